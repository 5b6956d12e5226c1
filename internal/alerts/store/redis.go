package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aruj94/deviceAPI/internal/alerts"
	"github.com/redis/go-redis/v9"
)

// DefaultHistory is how many alerts are kept per list.
const DefaultHistory int64 = 100

// Redis keeps the most recent alerts in capped Redis lists:
// one per device for over-temperature alerts and one for malformed reports.
type Redis struct {
	client  redis.Cmdable
	history int64
}

// NewRedis creates a Redis-backed alert store keeping history entries per list.
func NewRedis(client redis.Cmdable, history int64) *Redis {
	if history <= 0 {
		history = DefaultHistory
	}

	return &Redis{client: client, history: history}
}

// OverTemperatureKey is the list holding alerts for deviceID.
func OverTemperatureKey(deviceID string) string {
	return "alerts:overtemp:" + deviceID
}

// MalformedKey is the list holding malformed report notifications.
const MalformedKey = "alerts:malformed"

func (r *Redis) SaveOverTemperature(ctx context.Context, event *alerts.OverTemperatureEvent) error {
	return r.push(ctx, OverTemperatureKey(event.DeviceID), event)
}

func (r *Redis) SaveMalformedReport(ctx context.Context, event *alerts.MalformedReportEvent) error {
	return r.push(ctx, MalformedKey, event)
}

// Recent returns up to n of the newest raw entries in key, newest first.
func (r *Redis) Recent(ctx context.Context, key string, n int64) ([]string, error) {
	return r.client.LRange(ctx, key, 0, n-1).Result()
}

func (r *Redis) push(ctx context.Context, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, r.history-1)

		return nil
	})
	if err != nil {
		return fmt.Errorf("save alert to %s: %w", key, err)
	}

	return nil
}
