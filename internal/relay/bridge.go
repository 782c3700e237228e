package relay

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Broadcaster delivers a payload to every connected live-feed client.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// Appender records a serialized event in the contract-event history.
type Appender interface {
	Append(ctx context.Context, payload string) error
}

// Bridge subscribes to one upstream Pub/Sub channel and fans each message
// out to the live feed. Payloads are opaque here: no parsing, no validation,
// no backpressure. Normalization happens at query time so the feed carries
// exactly what the producer wrote.
type Bridge struct {
	client  *redis.Client
	channel string
	store   Appender
	feed    Broadcaster
	logger  *logrus.Logger
}

func NewBridge(client *redis.Client, channel string, store Appender, feed Broadcaster, logger *logrus.Logger) (*Bridge, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if channel == "" {
		return nil, fmt.Errorf("channel is required")
	}
	if feed == nil {
		return nil, fmt.Errorf("broadcaster is nil")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Bridge{
		client:  client,
		channel: channel,
		store:   store,
		feed:    feed,
		logger:  logger,
	}, nil
}

// Run subscribes and relays until the context is canceled. A subscription
// failure is logged and returned; the go-redis PubSub transport handles its
// own reconnects, so there is no resubscribe logic here.
func (b *Bridge) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		b.logger.WithError(err).WithField("channel", b.channel).Error("failed to subscribe to upstream channel")
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.logger.WithField("channel", b.channel).Info("subscribed to upstream channel")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(ctx, msg.Payload)
		}
	}
}

// handle relays one inbound payload: best-effort append to the event
// history, then broadcast. An append failure never blocks delivery.
func (b *Bridge) handle(ctx context.Context, payload string) {
	if b.store != nil {
		if err := b.store.Append(ctx, payload); err != nil {
			b.logger.WithError(err).Warn("failed to record relayed event")
		}
	}
	b.feed.Broadcast([]byte(payload))
}
