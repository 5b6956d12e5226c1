package alerts

import "context"

// Store defines the interface for persisting alert events.
type Store interface {
	SaveOverTemperature(ctx context.Context, event *OverTemperatureEvent) error
	SaveMalformedReport(ctx context.Context, event *MalformedReportEvent) error
}
