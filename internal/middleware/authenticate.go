package middleware

import (
	"net/http"
	"strings"

	"github.com/aruj94/deviceAPI/internal/auth"
	"github.com/aruj94/deviceAPI/internal/telemetry"
	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"
)

const unauthorizedMessage = "Unauthorized: Invalid API key provided"

// Authenticate returns a Huma middleware that requires a valid API key in the
// Authorization header. A "Bearer " prefix is accepted.
func Authenticate(
	api huma.API,
	authenticator auth.Authenticator,
	logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		key := strings.TrimSpace(ctx.Header("Authorization"))
		key = strings.TrimSpace(strings.TrimPrefix(key, "Bearer "))

		if key == "" {
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, unauthorizedMessage, telemetry.ErrUnauthenticated)

			return
		}

		ok, err := authenticator.Validate(ctx.Context(), key)
		if err != nil {
			logger.Error("api key validation failed",
				zap.String("path", operationPath(ctx)),
				zap.Error(err),
			)
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "internal server error")

			return
		}

		if !ok {
			logger.Info("rejected api key",
				zap.String("path", operationPath(ctx)),
				zap.String("client_ip", clientIP(ctx)),
			)
			_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, unauthorizedMessage, telemetry.ErrUnauthenticated)

			return
		}

		next(ctx)
	}
}
