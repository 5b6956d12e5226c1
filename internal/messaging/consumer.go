package messaging

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds how often a failing alert is redelivered before it is dropped.
const DefaultMaxAttempts = 5

// Handler processes a single event.
type Handler[T any] func(ctx context.Context, event *T) error

type outcome int

const (
	handled outcome = iota
	dropped
	retry
)

// ConsumerOption configures a Consumer.
type ConsumerOption func(*consumerConfig)

type consumerConfig struct {
	maxAttempts int
}

// WithMaxAttempts sets how many deliveries a message gets before it is acked and logged
// as lost. Zero or less retries forever.
func WithMaxAttempts(n int) ConsumerOption {
	return func(c *consumerConfig) { c.maxAttempts = n }
}

// Consumer reads one alert topic and feeds decoded events to a typed handler.
type Consumer[T any] struct {
	subscriber  message.Subscriber
	topic       string
	handler     Handler[T]
	logger      *zap.Logger
	maxAttempts int

	mu       sync.Mutex
	attempts map[string]int

	cancel context.CancelFunc
	done   chan struct{}
}

func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
	opts ...ConsumerOption,
) *Consumer[T] {
	cfg := consumerConfig{maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Consumer[T]{
		subscriber:  subscriber,
		topic:       topic,
		handler:     handler,
		logger:      logger.With(zap.String("topic", topic)),
		maxAttempts: cfg.maxAttempts,
		attempts:    make(map[string]int),
		done:        make(chan struct{}),
	}
}

// Topic returns the topic this consumer subscribes to.
func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start subscribes and processes messages in the background until ctx ends or Shutdown.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		cancel()

		return err
	}

	c.cancel = cancel

	go func() {
		defer close(c.done)

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				if c.dispatch(ctx, msg) == retry {
					msg.Nack()
				} else {
					msg.Ack()
				}
			}
		}
	}()

	return nil
}

func (c *Consumer[T]) dispatch(ctx context.Context, msg *message.Message) outcome {
	logger := c.logger.With(
		zap.String("message_id", msg.UUID),
		zap.String("request_id", msg.Metadata.Get(MetadataRequestID)),
	)

	if published := msg.Metadata.Get(MetadataTopic); published != "" && published != c.topic {
		logger.Warn("skipping event published to another topic", zap.String("published_topic", published))

		return dropped
	}

	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		logger.Error("dropping undecodable event", zap.Error(err))

		return dropped
	}

	if err := c.handler(ctx, &event); err != nil {
		attempt := c.attempt(msg.UUID)
		if c.maxAttempts > 0 && attempt >= c.maxAttempts {
			c.forget(msg.UUID)
			logger.Error("alert lost after repeated failures", zap.Int("attempts", attempt), zap.Error(err))

			return dropped
		}

		logger.Warn("failed to handle event", zap.Int("attempt", attempt), zap.Error(err))

		return retry
	}

	c.forget(msg.UUID)
	logger.Debug("processed event")

	return handled
}

func (c *Consumer[T]) attempt(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attempts[id]++

	return c.attempts[id]
}

func (c *Consumer[T]) forget(id string) {
	c.mu.Lock()
	delete(c.attempts, id)
	c.mu.Unlock()
}

// Shutdown stops the consumer and waits for the message in hand to finish.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel == nil {
		return nil
	}

	c.cancel()
	<-c.done

	return nil
}
