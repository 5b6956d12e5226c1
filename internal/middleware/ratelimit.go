package middleware

import (
	"net/http"

	"github.com/aruj94/deviceAPI/internal/ratelimit"
	"github.com/aruj94/deviceAPI/internal/telemetry"
	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"
)

// RateLimiter returns a Huma middleware that limits requests per client IP.
// Operations whose ratelimit.EndpointConfig sets Disabled are not counted.
func RateLimiter(
	api huma.API,
	limiter ratelimit.Limiter,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if cfg := ratelimit.GetEndpointConfig(ctx); cfg != nil && cfg.Disabled {
			next(ctx)

			return
		}

		ip := clientIP(ctx)

		allowed, err := limiter.Allow(ctx.Context(), ip)
		if err != nil {
			logger.Error("rate limit check failed",
				zap.String("path", operationPath(ctx)),
				zap.String("client_ip", ip),
				zap.Error(err),
			)
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error")

			return
		}

		if !allowed {
			logger.Warn("rate limit exceeded",
				zap.String("path", operationPath(ctx)),
				zap.String("method", ctx.Method()),
				zap.String("client_ip", ip),
			)
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, telemetry.ErrRateLimited.Error())

			return
		}

		next(ctx)
	}
}

// operationPath extracts the path from the operation, if available.
func operationPath(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil {
		return op.Path
	}

	return ""
}
