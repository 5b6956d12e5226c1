package container

import (
	"context"
	"fmt"

	"github.com/aruj94/deviceAPI/internal/alerts"
	"github.com/aruj94/deviceAPI/internal/auth"
	"github.com/aruj94/deviceAPI/internal/handlers"
	"github.com/aruj94/deviceAPI/internal/health"
	"github.com/aruj94/deviceAPI/internal/messaging"
	"github.com/aruj94/deviceAPI/internal/middleware"
	"github.com/aruj94/deviceAPI/internal/ratelimit"
	"github.com/aruj94/deviceAPI/internal/recordcache"
	"github.com/aruj94/deviceAPI/internal/store"
	"github.com/aruj94/deviceAPI/internal/syncer"
	"github.com/aruj94/deviceAPI/internal/telemetry"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/samber/do"
	"go.uber.org/zap"
)

// RateLimitPackage provides the per-client token bucket limiter. Buckets live in Redis
// unless RateLimitStore is "memory", which only suits a single instance.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (ratelimit.Limiter, error) {
		opts := do.MustInvoke[*Options](i)

		var bucketStore ratelimit.Store

		switch opts.RateLimitStore {
		case "memory":
			memoryStore := store.NewRateLimitMemoryStore(clockwork.NewRealClock())
			do.MustInvoke[*syncer.Supervisor](i).Schedule("ratelimit:prune", opts.rateWindow(),
				func(_ context.Context) error {
					memoryStore.Prune()

					return nil
				})

			bucketStore = memoryStore
		case "redis", "":
			bucketStore = store.NewRateLimitRedisStore(do.MustInvoke[*store.RedisCache](i))
		default:
			return nil, fmt.Errorf("unknown rate limit store %q", opts.RateLimitStore)
		}

		return ratelimit.NewTokenBucketLimiter(bucketStore, int64(opts.RateLimit), opts.rateWindow()), nil
	})
}

// AuthPackage provides the key hasher and the credential validator.
func AuthPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (auth.Hasher, error) {
		return auth.NewBcryptHasher(0), nil
	})

	do.Provide(i, func(i *do.Injector) (auth.Authenticator, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		return auth.NewValidator(
			do.MustInvoke[*syncer.Engine[telemetry.APIKeyRecord]](i),
			do.MustInvoke[*store.PostgresCollection[telemetry.APIKeyRecord]](i),
			do.MustInvoke[auth.Hasher](i),
			clockwork.NewRealClock(),
			logger.Named("auth"),
		), nil
	})
}

// HTTPPackage provides the router and the huma API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		api := humachi.New(router, huma.DefaultConfig("Device Telemetry API", "1.0.0"))

		api.UseMiddleware(
			middleware.RequestMeta(api),
			middleware.RateLimiter(api, do.MustInvoke[ratelimit.Limiter](i), logger),
		)

		publisher := do.MustInvoke[*messaging.PublisherGroup](i).Publisher()

		telemetryHandler := handlers.NewTelemetryHandler(
			do.MustInvoke[*recordcache.Facade[telemetry.ErrorRecord]](i),
			float64(opts.AlertThreshold),
			clockwork.NewRealClock(),
			messaging.NewPublishFunc(publisher, alerts.TopicOverTemperature,
				messaging.WithRequestID(func(e *alerts.OverTemperatureEvent) string { return e.RequestID })),
			messaging.NewPublishFunc(publisher, alerts.TopicMalformedReport,
				messaging.WithRequestID(func(e *alerts.MalformedReportEvent) string { return e.RequestID })),
			logger,
		)

		handlers.RegisterRoutes(api, telemetryHandler,
			middleware.Authenticate(api, do.MustInvoke[auth.Authenticator](i), logger))

		health.RegisterRoutes(api, health.NewHandler(
			do.MustInvoke[*store.RedisCache](i),
			do.MustInvoke[*Database](i),
		))

		return api, nil
	})
}
