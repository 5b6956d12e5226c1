package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/aruj94/deviceAPI/internal/alerts"
	"github.com/aruj94/deviceAPI/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	messages   map[string][]*message.Message
	publishErr error
	closeErr   error
}

func (m *mockPublisher) Publish(topic string, msgs ...*message.Message) error {
	if m.publishErr != nil {
		return m.publishErr
	}

	if m.messages == nil {
		m.messages = make(map[string][]*message.Message)
	}

	m.messages[topic] = append(m.messages[topic], msgs...)

	return nil
}

func (m *mockPublisher) Close() error {
	return m.closeErr
}

func overTempRequestID(e *alerts.OverTemperatureEvent) string { return e.RequestID }

func TestNewPublishFunc(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes an over temperature alert on its topic", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc(mock, alerts.TopicOverTemperature,
			messaging.WithRequestID(overTempRequestID))

		err := publish(ctx, &alerts.OverTemperatureEvent{DeviceID: "365951380", Temperature: 92, RequestID: "req-9"})
		require.NoError(t, err)

		msgs := mock.messages[alerts.TopicOverTemperature]
		require.Len(t, msgs, 1)
		assert.Equal(t, alerts.TopicOverTemperature, msgs[0].Metadata.Get(messaging.MetadataTopic))
		assert.Equal(t, "req-9", msgs[0].Metadata.Get(messaging.MetadataRequestID))

		var got alerts.OverTemperatureEvent
		require.NoError(t, json.Unmarshal(msgs[0].Payload, &got))
		assert.Equal(t, "365951380", got.DeviceID)
	})

	t.Run("leaves the request id unset when the event has none", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc(mock, alerts.TopicOverTemperature,
			messaging.WithRequestID(overTempRequestID))

		require.NoError(t, publish(ctx, &alerts.OverTemperatureEvent{DeviceID: "1"}))

		_, set := mock.messages[alerts.TopicOverTemperature][0].Metadata[messaging.MetadataRequestID]
		assert.False(t, set)
	})

	t.Run("names the topic when publish fails", func(t *testing.T) {
		mock := &mockPublisher{publishErr: errors.New("publish error")}
		publish := messaging.NewPublishFunc[alerts.MalformedReportEvent](mock, alerts.TopicMalformedReport)

		err := publish(ctx, &alerts.MalformedReportEvent{Data: "garbage"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), alerts.TopicMalformedReport)
	})
}

func TestPublisherGroup(t *testing.T) {
	t.Run("returns underlying publisher", func(t *testing.T) {
		mock := &mockPublisher{}
		group := messaging.NewPublisherGroup(mock)

		assert.Equal(t, mock, group.Publisher())
	})

	t.Run("returns error when close fails", func(t *testing.T) {
		group := messaging.NewPublisherGroup(&mockPublisher{closeErr: errors.New("close error")})

		assert.Error(t, group.Shutdown())
	})
}
