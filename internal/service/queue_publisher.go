// Package service holds the server's outbound integrations.
package service

import (
    "context"
    "encoding/json"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"

    q "github.com/iliyamo/church-manager/internal/queue"
)

// amqpChannel is the subset of *amqp.Channel the publisher uses.
type amqpChannel interface {
    QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
    PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
    Close() error
}

type dialFunc func(url string) (amqpChannel, func() error, error)

func dialAMQP(url string) (amqpChannel, func() error, error) {
    conn, err := amqp.Dial(url)
    if err != nil {
        return nil, nil, err
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, nil, err
    }
    return ch, conn.Close, nil
}

// Publisher publishes church.switched events.  The connection is opened on
// first use and reopened after any failure.  Errors are logged and returned
// so callers can ignore them without interrupting the request.
type Publisher struct {
    url   string
    queue string
    log   zerolog.Logger
    dial  dialFunc

    mu        sync.Mutex
    ch        amqpChannel
    closeConn func() error
}

func NewPublisher(url, queue string, log zerolog.Logger) *Publisher {
    if queue == "" {
        queue = q.ChurchSwitchedQueue
    }
    return &Publisher{url: url, queue: queue, log: log.With().Str("component", "publisher").Logger(), dial: dialAMQP}
}

// PublishChurchSwitched publishes ev to the church.switched queue as a
// persistent JSON message.
func (p *Publisher) PublishChurchSwitched(ctx context.Context, ev q.ChurchSwitchedEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    if p.ch == nil {
        ch, closeConn, err := p.dial(p.url)
        if err != nil {
            p.log.Warn().Err(err).Msg("rabbitmq: dial failed")
            return err
        }
        // Durable so messages survive broker restarts.
        if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
            p.log.Warn().Err(err).Msg("rabbitmq: queue declare failed")
            _ = ch.Close()
            _ = closeConn()
            return err
        }
        p.ch, p.closeConn = ch, closeConn
    }

    err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    })
    if err != nil {
        p.log.Warn().Err(err).Uint64("user_id", ev.UserID).Msg("rabbitmq: publish failed")
        p.resetLocked()
        return err
    }
    return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.resetLocked()
    return nil
}

func (p *Publisher) resetLocked() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.closeConn != nil {
        _ = p.closeConn()
    }
    p.ch, p.closeConn = nil, nil
}
