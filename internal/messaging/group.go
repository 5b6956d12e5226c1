package messaging

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable represents a component that can be started and shutdown.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// ConsumerGroup runs the alert consumers that share one subscriber.
type ConsumerGroup struct {
	consumers  []Runnable
	running    []Runnable
	subscriber message.Subscriber
	logger     *zap.Logger
}

func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

// Add registers consumers to the group.
func (g *ConsumerGroup) Add(consumers ...Runnable) {
	g.consumers = append(g.consumers, consumers...)
}

// Topics lists the topics of consumers that expose one.
func (g *ConsumerGroup) Topics() []string {
	topics := make([]string, 0, len(g.consumers))

	for _, c := range g.consumers {
		if t, ok := c.(interface{ Topic() string }); ok {
			topics = append(topics, t.Topic())
		}
	}

	return topics
}

// Start starts every consumer. If one fails, the ones already running are stopped.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	for i, consumer := range g.consumers {
		if err := consumer.Start(ctx); err != nil {
			stopErr := g.stop()

			return errors.Join(fmt.Errorf("start consumer %d: %w", i, err), stopErr)
		}

		g.running = append(g.running, consumer)
	}

	g.logger.Info("alert consumers started", zap.Strings("topics", g.Topics()))

	return nil
}

// stop shuts running consumers down newest first.
func (g *ConsumerGroup) stop() error {
	var errs []error

	for _, consumer := range slices.Backward(g.running) {
		if err := consumer.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	g.running = nil

	return errors.Join(errs...)
}

// Shutdown stops every running consumer, then closes the subscriber. All errors are returned.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("stopping alert consumers")

	return errors.Join(g.stop(), g.subscriber.Close())
}
