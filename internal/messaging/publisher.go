package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	// MetadataTopic carries the topic a message was published to.
	MetadataTopic = "topic"
	// MetadataRequestID ties an alert back to the API request that raised it.
	MetadataRequestID = "request_id"
)

// Publish sends one typed event.
type Publish[T any] func(ctx context.Context, event *T) error

// PublishOption stamps extra metadata derived from the event.
type PublishOption[T any] func(event *T, md message.Metadata)

// WithRequestID copies the request id of each event into its message metadata.
func WithRequestID[T any](requestID func(*T) string) PublishOption[T] {
	return func(event *T, md message.Metadata) {
		if id := requestID(event); id != "" {
			md.Set(MetadataRequestID, id)
		}
	}
}

// NewPublishFunc returns a Publish bound to topic.
func NewPublishFunc[T any](publisher message.Publisher, topic string, opts ...PublishOption[T]) Publish[T] {
	return func(ctx context.Context, event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode %s event: %w", topic, err)
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set(MetadataTopic, topic)

		for _, opt := range opts {
			opt(event, msg.Metadata)
		}

		msg.SetContext(ctx)

		if err := publisher.Publish(topic, msg); err != nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}

		return nil
	}
}

// PublisherGroup owns the publisher shared by every alert topic.
type PublisherGroup struct {
	publisher message.Publisher
}

func NewPublisherGroup(publisher message.Publisher) *PublisherGroup {
	return &PublisherGroup{publisher: publisher}
}

// Publisher returns the underlying message publisher for creating typed publish functions.
func (g *PublisherGroup) Publisher() message.Publisher {
	return g.publisher
}

// Shutdown closes the underlying publisher.
func (g *PublisherGroup) Shutdown() error {
	return g.publisher.Close()
}
