package broadcast

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"lokapasar/internal/domain/entity"
	apperrors "lokapasar/pkg/errors"
	"lokapasar/pkg/logger"
)

// Publisher pushes one event onto the channel named for a conversation.
// Delivery is fire-and-forget: a nil return means "published", not
// "received". Subscribers that are not listening at publish time miss the
// event.
type Publisher interface {
	Publish(ctx context.Context, conversationID string, message *entity.Message) error
}

// Feed is the global broadcast feed covering every conversation channel.
type Feed interface {
	Subscribe(ctx context.Context) (Subscription, error)
}

// Subscription is a live attachment to the feed. Events stops yielding after
// Close.
type Subscription interface {
	Events() <-chan *Event
	Close() error
}

const defaultReadyTimeout = 5000 * time.Millisecond

type RedisBroadcaster struct {
	client       *redis.Client
	readyTimeout time.Duration
}

func NewRedisBroadcaster(client *redis.Client, readyTimeout time.Duration) *RedisBroadcaster {
	if readyTimeout <= 0 {
		readyTimeout = defaultReadyTimeout
	}
	return &RedisBroadcaster{
		client:       client,
		readyTimeout: readyTimeout,
	}
}

// Publish sends exactly one new-message event to the conversation's channel.
// The readiness check and the publish share one bounded timer; on expiry the
// in-flight operation is abandoned.
func (b *RedisBroadcaster) Publish(ctx context.Context, conversationID string, message *entity.Message) error {
	payload, err := encodeEvent(&Event{Name: EventNewMessage, Message: message})
	if err != nil {
		return apperrors.ChannelError("Failed to encode broadcast event", err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.readyTimeout)
	defer cancel()

	if err := b.client.Ping(ctx).Err(); err != nil {
		return classifyTransportError("Broadcast channel not ready", err)
	}

	if err := b.client.Publish(ctx, ChannelFor(conversationID), payload).Err(); err != nil {
		return classifyTransportError("Failed to publish broadcast event", err)
	}

	return nil
}

// Subscribe attaches to every conversation channel at once. It blocks until
// the subscription is confirmed or the ready timeout expires.
func (b *RedisBroadcaster) Subscribe(ctx context.Context) (Subscription, error) {
	pubsub := b.client.PSubscribe(ctx, globalPattern)

	readyCtx, cancel := context.WithTimeout(ctx, b.readyTimeout)
	defer cancel()

	if _, err := pubsub.Receive(readyCtx); err != nil {
		pubsub.Close()
		return nil, classifyTransportError("Failed to subscribe to broadcast feed", err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		events: make(chan *Event, 64),
	}
	go sub.pump()

	return sub, nil
}

func classifyTransportError(message string, err error) *apperrors.AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.PublishTimeout(message, err)
	}
	return apperrors.ChannelError(message, err)
}

type redisSubscription struct {
	pubsub *redis.PubSub
	events chan *Event
}

func (s *redisSubscription) pump() {
	defer close(s.events)

	for msg := range s.pubsub.Channel() {
		event, err := decodeEvent([]byte(msg.Payload))
		if err != nil {
			logger.Warn("Dropping malformed broadcast payload on %s: %v", msg.Channel, err)
			continue
		}
		s.events <- event
	}
}

func (s *redisSubscription) Events() <-chan *Event {
	return s.events
}

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}
