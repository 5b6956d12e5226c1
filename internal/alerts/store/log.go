package store

import (
	"context"

	"github.com/aruj94/deviceAPI/internal/alerts"
	"go.uber.org/zap"
)

// Log is an alerts.Store that only writes events to the log.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a new logging alert store.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) SaveOverTemperature(_ context.Context, event *alerts.OverTemperatureEvent) error {
	l.logger.Warn("device over temperature",
		zap.String("deviceId", event.DeviceID),
		zap.Float64("temperature", event.Temperature),
		zap.Float64("threshold", event.Threshold),
		zap.String("formattedTime", event.FormattedTime),
		zap.String("requestId", event.RequestID),
	)

	return nil
}

func (l *Log) SaveMalformedReport(_ context.Context, event *alerts.MalformedReportEvent) error {
	l.logger.Info("malformed report received",
		zap.String("data", event.Data),
		zap.Time("receivedAt", event.ReceivedAt),
		zap.String("clientIp", event.ClientIP),
	)

	return nil
}
