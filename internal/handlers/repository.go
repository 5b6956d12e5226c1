package handlers

import (
	"context"

	"github.com/aruj94/deviceAPI/internal/telemetry"
)

// ErrorRecords is the cached view of malformed reports.
type ErrorRecords interface {
	Read(ctx context.Context) ([]telemetry.ErrorRecord, error)
	Write(ctx context.Context, rec telemetry.ErrorRecord) error
	Clear(ctx context.Context) (int64, error)
}
