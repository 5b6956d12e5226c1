// Package alerts carries telemetry alert events from the API to the consumer.
package alerts

import "time"

const (
	TopicOverTemperature = "telemetry.overtemp"
	TopicMalformedReport = "telemetry.malformed"
)

// OverTemperatureEvent is emitted when a device reports a temperature at or above the threshold.
type OverTemperatureEvent struct {
	DeviceID      string    `json:"deviceId"`
	Temperature   float64   `json:"temperature"`
	Threshold     float64   `json:"threshold"`
	ReportedAt    time.Time `json:"reportedAt"`
	FormattedTime string    `json:"formattedTime"`
	ClientIP      string    `json:"clientIp"`
	RequestID     string    `json:"requestId"`
}

// MalformedReportEvent is emitted when a report fails validation and is kept as an error record.
type MalformedReportEvent struct {
	Data       string    `json:"data"`
	ReceivedAt time.Time `json:"receivedAt"`
	ClientIP   string    `json:"clientIp"`
	RequestID  string    `json:"requestId"`
}
