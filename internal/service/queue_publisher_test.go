package service

import (
    "context"
    "encoding/json"
    "errors"
    "testing"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    q "github.com/iliyamo/church-manager/internal/queue"
)

type fakeChannel struct {
    declared []string
    sent     []amqp.Publishing
    keys     []string
    fail     error
    closed   bool
}

func (f *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
    if !durable {
        return amqp.Queue{}, errors.New("queue must be durable")
    }
    f.declared = append(f.declared, name)
    return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
    if f.fail != nil {
        return f.fail
    }
    f.keys = append(f.keys, key)
    f.sent = append(f.sent, msg)
    return nil
}

func (f *fakeChannel) Close() error { f.closed = true; return nil }

func TestPublisher_PublishChurchSwitched(t *testing.T) {
    ch := &fakeChannel{}
    dials := 0
    p := NewPublisher("amqp://x", "", zerolog.Nop())
    p.dial = func(string) (amqpChannel, func() error, error) {
        dials++
        return ch, func() error { return nil }, nil
    }

    ev := q.ChurchSwitchedEvent{UserID: 1, ChurchID: 9, PreviousChurchID: 7, SwitchedAt: time.Now().UTC()}
    require.NoError(t, p.PublishChurchSwitched(context.Background(), ev))
    require.NoError(t, p.PublishChurchSwitched(context.Background(), ev))

    assert.Equal(t, 1, dials, "connection is reused")
    assert.Equal(t, []string{q.ChurchSwitchedQueue}, ch.declared)
    assert.Equal(t, []string{q.ChurchSwitchedQueue, q.ChurchSwitchedQueue}, ch.keys)
    assert.Equal(t, amqp.Persistent, ch.sent[0].DeliveryMode)

    var got q.ChurchSwitchedEvent
    require.NoError(t, json.Unmarshal(ch.sent[0].Body, &got))
    assert.EqualValues(t, 9, got.ChurchID)
    assert.EqualValues(t, 7, got.PreviousChurchID)
}

func TestPublisher_RedialsAfterFailure(t *testing.T) {
    broken := &fakeChannel{fail: errors.New("channel closed")}
    healthy := &fakeChannel{}
    chans := []*fakeChannel{broken, healthy}
    p := NewPublisher("amqp://x", "church.switched", zerolog.Nop())
    p.dial = func(string) (amqpChannel, func() error, error) {
        ch := chans[0]
        chans = chans[1:]
        return ch, func() error { return nil }, nil
    }

    ev := q.ChurchSwitchedEvent{UserID: 1, ChurchID: 9}
    require.Error(t, p.PublishChurchSwitched(context.Background(), ev))
    assert.True(t, broken.closed)

    require.NoError(t, p.PublishChurchSwitched(context.Background(), ev))
    assert.Len(t, healthy.sent, 1)
    require.NoError(t, p.Close())
    assert.True(t, healthy.closed)
}

func TestPublisher_DialFailure(t *testing.T) {
    p := NewPublisher("amqp://x", "", zerolog.Nop())
    p.dial = func(string) (amqpChannel, func() error, error) { return nil, nil, errors.New("refused") }
    assert.EqualError(t, p.PublishChurchSwitched(context.Background(), q.ChurchSwitchedEvent{UserID: 1}), "refused")
}
