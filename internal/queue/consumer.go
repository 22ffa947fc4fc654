package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    "github.com/cenkalti/backoff/v5"
    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/rs/zerolog"
)

// UserPurger drops every cached response of a user.
type UserPurger interface {
    PurgeUser(ctx context.Context, userID uint64) (int, error)
}

// Consumer listens on the church.switched queue and purges the switching
// user's response cache entries.
type Consumer struct {
    url   string
    queue string
    purge UserPurger
    log   zerolog.Logger
}

func NewConsumer(url, queue string, purge UserPurger, log zerolog.Logger) *Consumer {
    if queue == "" {
        queue = ChurchSwitchedQueue
    }
    return &Consumer{
        url:   url,
        queue: queue,
        purge: purge,
        log:   log.With().Str("component", "church-switched-consumer").Str("queue", queue).Logger(),
    }
}

func newRetryBackoff() *backoff.ExponentialBackOff {
    bo := backoff.NewExponentialBackOff()
    bo.InitialInterval = time.Second
    bo.MaxInterval = 30 * time.Second
    bo.Multiplier = 2
    return bo
}

// Run dials the broker and consumes until ctx is cancelled, reconnecting
// with exponential backoff whenever the connection or the delivery channel
// drops.  It returns ctx.Err().
func (c *Consumer) Run(ctx context.Context) error {
    bo := newRetryBackoff()
    for {
        conn, err := amqp.Dial(c.url)
        if err == nil {
            bo.Reset()
            err = c.consume(ctx, conn)
            _ = conn.Close()
        }
        if ctx.Err() != nil {
            return ctx.Err()
        }
        delay := bo.NextBackOff()
        c.log.Warn().Err(err).Dur("retry_in", delay).Msg("broker unavailable")
        select {
        case <-ctx.Done():
            return ctx.Err()
        case <-time.After(delay):
        }
    }
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.log.Warn().Err(err).Msg("set QoS failed")
    }
    if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }
    c.log.Info().Msg("consuming")

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handle(ctx, d.Body); err != nil {
                c.log.Error().Err(err).Msg("handle message failed")
                _ = d.Nack(false, false) // no requeue; cache entries expire on their own TTL
                continue
            }
            _ = d.Ack(false)
        }
    }
}

var errMalformed = errors.New("malformed event")

func (c *Consumer) handle(ctx context.Context, body []byte) error {
    var ev ChurchSwitchedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("%w: %v", errMalformed, err)
    }
    if ev.UserID == 0 {
        return fmt.Errorf("%w: missing user_id", errMalformed)
    }
    n, err := c.purge.PurgeUser(ctx, ev.UserID)
    if err != nil {
        return fmt.Errorf("purge user %d: %w", ev.UserID, err)
    }
    c.log.Debug().
        Uint64("user_id", ev.UserID).
        Uint64("church_id", ev.ChurchID).
        Uint64("previous_church_id", ev.PreviousChurchID).
        Int("keys", n).
        Msg("church switch applied")
    return nil
}
