package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers the telemetry routes under /api. authenticate guards every
// route except the welcome message.
func RegisterRoutes(api huma.API, h *TelemetryHandler, authenticate func(huma.Context, func(huma.Context))) {
	protected := huma.Middlewares{authenticate}

	huma.Register(api, huma.Operation{
		OperationID: "welcome",
		Method:      http.MethodGet,
		Path:        "/api",
		Summary:     "Welcome message",
		Tags:        []string{"Telemetry"},
	}, h.Welcome)

	huma.Register(api, huma.Operation{
		OperationID: "list-errors",
		Method:      http.MethodGet,
		Path:        "/api/errors",
		Summary:     "List malformed reports",
		Description: "Returns every stored report that failed validation, served from the cache when warm.",
		Tags:        []string{"Errors"},
		Middlewares: protected,
	}, h.ListErrors)

	huma.Register(api, huma.Operation{
		OperationID: "clear-errors",
		Method:      http.MethodDelete,
		Path:        "/api/errors",
		Summary:     "Clear malformed reports",
		Tags:        []string{"Errors"},
		Middlewares: protected,
	}, h.ClearErrors)

	huma.Register(api, huma.Operation{
		OperationID:   "post-temperature",
		Method:        http.MethodPost,
		Path:          "/api/temp",
		Summary:       "Check a temperature report",
		Description:   "Validates a device report and flags temperatures at or above the alert threshold.",
		Tags:          []string{"Telemetry"},
		DefaultStatus: http.StatusOK,
		Middlewares:   protected,
	}, h.PostTemperature)
}
