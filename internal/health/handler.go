package health

import (
	"context"
	"time"

	"github.com/aruj94/deviceAPI/internal/ratelimit"
	"github.com/danielgtaylor/huma/v2"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// DefaultTimeout bounds each dependency check.
const DefaultTimeout = 2 * time.Second

// Checker defines the interface for checking service health.
// *store.RedisCache and *pgxpool.Pool both satisfy it.
type Checker interface {
	Ping(ctx context.Context) error
}

// Handler handles health check operations.
type Handler struct {
	cache   Checker
	store   Checker
	timeout time.Duration
}

// NewHandler creates a new health handler probing the cache and the durable store.
func NewHandler(cache, store Checker) *Handler {
	return &Handler{cache: cache, store: store, timeout: DefaultTimeout}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status string `enum:"ok,degraded" json:"status"`
		Cache  string `json:"cache"`
		Store  string `json:"store"`
	}
}

// Check performs a health check of the application and its dependencies.
// A dead cache degrades the service; reads still fall back to the store.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = "ok"
	resp.Body.Cache = h.check(ctx, h.cache)
	resp.Body.Store = h.check(ctx, h.store)

	if resp.Body.Cache != statusHealthy || resp.Body.Store != statusHealthy {
		resp.Body.Status = "degraded"
	}

	return resp, nil
}

func (h *Handler) check(ctx context.Context, c Checker) string {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		return statusUnhealthy
	}

	return statusHealthy
}

// RegisterRoutes registers health check routes. Health checks are not rate limited.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      "GET",
		Path:        "/health",
		Summary:     "Service health",
		Tags:        []string{"Health"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{Disabled: true},
		},
	}, h.Check)
}
