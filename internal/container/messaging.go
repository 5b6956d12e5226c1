package container

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/aruj94/deviceAPI/internal/alerts"
	alertstore "github.com/aruj94/deviceAPI/internal/alerts/store"
	"github.com/aruj94/deviceAPI/internal/messaging"
	"github.com/samber/do"
	"go.uber.org/zap"
)

// ConsumerGroupName is the Redis stream consumer group shared by alert consumers.
const ConsumerGroupName = "alerts"

// PublisherGroupPackage provides the alert event publisher.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*StreamClient](i)
		logger := do.MustInvoke[*zap.Logger](i)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: client.Client,
		}, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// ConsumerGroupPackage provides the alert store and the consumers persisting into it.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (alerts.Store, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.AlertStore {
		case "log":
			return alertstore.NewLog(do.MustInvoke[*zap.Logger](i)), nil
		case "redis", "":
			return alertstore.NewRedis(do.MustInvoke[*StreamClient](i).Client, int64(opts.AlertHistory)), nil
		default:
			return nil, fmt.Errorf("unknown alert store %q", opts.AlertStore)
		}
	})

	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		client := do.MustInvoke[*StreamClient](i)
		logger := do.MustInvoke[*zap.Logger](i)
		alertStore := do.MustInvoke[alerts.Store](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client.Client,
			ConsumerGroup: ConsumerGroupName,
		}, messaging.NewZapLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create subscriber: %w", err)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(
			messaging.NewConsumer(subscriber, alerts.TopicOverTemperature,
				alerts.OverTemperatureHandler(alertStore), logger),
			messaging.NewConsumer(subscriber, alerts.TopicMalformedReport,
				alerts.MalformedReportHandler(alertStore), logger),
		)

		return group, nil
	})
}
