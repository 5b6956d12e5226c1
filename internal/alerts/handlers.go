package alerts

import (
	"context"
	"errors"

	"github.com/aruj94/deviceAPI/internal/messaging"
)

var errMissingDevice = errors.New("over temperature event without device id")

// OverTemperatureHandler persists over-temperature alerts.
func OverTemperatureHandler(store Store) messaging.Handler[OverTemperatureEvent] {
	return func(ctx context.Context, event *OverTemperatureEvent) error {
		if event.DeviceID == "" {
			return errMissingDevice
		}

		return store.SaveOverTemperature(ctx, event)
	}
}

// MalformedReportHandler persists malformed report notifications.
func MalformedReportHandler(store Store) messaging.Handler[MalformedReportEvent] {
	return store.SaveMalformedReport
}
