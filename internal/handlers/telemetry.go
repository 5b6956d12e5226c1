package handlers

import (
	"context"
	"net/http"

	"github.com/aruj94/deviceAPI/internal/alerts"
	"github.com/aruj94/deviceAPI/internal/messaging"
	"github.com/aruj94/deviceAPI/internal/telemetry"
	"github.com/danielgtaylor/huma/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	welcomeMessage = "Welcome to megapack test API"
	clearedMessage = "Error buffer cleared successfully"
)

// TelemetryHandler serves device reports and the malformed report buffer.
type TelemetryHandler struct {
	errors           ErrorRecords
	threshold        float64
	clock            clockwork.Clock
	publishOverTemp  messaging.Publish[alerts.OverTemperatureEvent]
	publishMalformed messaging.Publish[alerts.MalformedReportEvent]
	logger           *zap.Logger
}

// NewTelemetryHandler creates a new telemetry handler.
func NewTelemetryHandler(
	errorRecords ErrorRecords,
	threshold float64,
	clock clockwork.Clock,
	publishOverTemp messaging.Publish[alerts.OverTemperatureEvent],
	publishMalformed messaging.Publish[alerts.MalformedReportEvent],
	logger *zap.Logger,
) *TelemetryHandler {
	if threshold == 0 {
		threshold = telemetry.DefaultAlertThreshold
	}

	return &TelemetryHandler{
		errors:           errorRecords,
		threshold:        threshold,
		clock:            clock,
		publishOverTemp:  publishOverTemp,
		publishMalformed: publishMalformed,
		logger:           logger,
	}
}

func (h *TelemetryHandler) Welcome(_ context.Context, _ *struct{}) (*WelcomeResponse, error) {
	return &WelcomeResponse{
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte(welcomeMessage),
	}, nil
}

func (h *TelemetryHandler) ListErrors(ctx context.Context, _ *struct{}) (*ListErrorsResponse, error) {
	records, err := h.errors.Read(ctx)
	if err != nil {
		h.logger.Error("failed to read error records", zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to read error records")
	}

	resp := &ListErrorsResponse{}
	resp.Body.Errors = make([]string, 0, len(records))

	for _, rec := range records {
		resp.Body.Errors = append(resp.Body.Errors, rec.Data)
	}

	return resp, nil
}

func (h *TelemetryHandler) ClearErrors(ctx context.Context, _ *struct{}) (*ClearErrorsResponse, error) {
	deleted, err := h.errors.Clear(ctx)
	if err != nil {
		h.logger.Error("failed to clear error records", zap.Int64("deleted", deleted), zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to clear error records")
	}

	h.logger.Info("error records cleared", zap.Int64("deleted", deleted))

	resp := &ClearErrorsResponse{}
	resp.Body.Message = clearedMessage

	return resp, nil
}

func (h *TelemetryHandler) PostTemperature(ctx context.Context, req *TemperatureRequest) (*TemperatureResponse, error) {
	if req.Body.Data == nil {
		return nil, huma.Error400BadRequest("bad request: missing data")
	}

	data := *req.Body.Data
	meta := RequestMetaFromContext(ctx)

	report, err := telemetry.ParseReport(data)
	if err != nil {
		return h.malformed(ctx, data, meta)
	}

	resp := &TemperatureResponse{Status: http.StatusOK}
	over := report.OverTemperature(h.threshold)
	resp.Body.OverTemp = &over

	if !over {
		return resp, nil
	}

	now := h.clock.Now()
	resp.Body.DeviceID = report.DeviceID
	resp.Body.FormattedTime = now.Format(telemetry.AlertTimeLayout)

	event := &alerts.OverTemperatureEvent{
		DeviceID:      report.DeviceID,
		Temperature:   report.Temperature,
		Threshold:     h.threshold,
		ReportedAt:    now,
		FormattedTime: resp.Body.FormattedTime,
		ClientIP:      meta.ClientIP,
		RequestID:     meta.RequestID,
	}

	if err := h.publishOverTemp(ctx, event); err != nil {
		h.logger.Error("failed to publish over temperature alert",
			zap.String("deviceId", event.DeviceID),
			zap.Error(err),
		)
	}

	return resp, nil
}

func (h *TelemetryHandler) malformed(ctx context.Context, data string, meta RequestMeta) (*TemperatureResponse, error) {
	if err := h.errors.Write(ctx, telemetry.ErrorRecord{Data: data}); err != nil {
		h.logger.Error("failed to persist malformed report", zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to persist malformed report")
	}

	event := &alerts.MalformedReportEvent{
		Data:       data,
		ReceivedAt: h.clock.Now(),
		ClientIP:   meta.ClientIP,
		RequestID:  meta.RequestID,
	}

	if err := h.publishMalformed(ctx, event); err != nil {
		h.logger.Error("failed to publish malformed report", zap.Error(err))
	}

	resp := &TemperatureResponse{Status: http.StatusOK}
	resp.Body.Malformed = true

	return resp, nil
}
