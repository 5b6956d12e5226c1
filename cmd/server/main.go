package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aruj94/deviceAPI/internal/container"
	"github.com/aruj94/deviceAPI/internal/recordcache"
	"github.com/aruj94/deviceAPI/internal/telemetry"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/samber/do"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func registerPackages(injector *do.Injector, options *container.Options) {
	do.ProvideValue(injector, options)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.RepositoryPackage(injector)
	container.RateLimitPackage(injector)
	container.AuthPackage(injector)
	container.PublisherGroupPackage(injector)
	container.HTTPPackage(injector)
}

// resyncer is the part of a record facade used to warm its cache namespace.
type resyncer interface {
	Resync() bool
}

// warmCaches schedules a cache resync for every record class. A class whose resync
// could not be scheduled is only logged; its periodic reconcile will fill the cache.
func warmCaches(logger *zap.Logger, classes map[string]resyncer) {
	for name, facade := range classes {
		if !facade.Resync() {
			logger.Warn("cache warm-up not scheduled", zap.String("class", name))

			continue
		}

		logger.Debug("cache warm-up scheduled", zap.String("class", name))
	}
}

func newServer(injector *do.Injector, port int) *http.Server {
	router := do.MustInvoke[*chi.Mux](injector)

	// Routes are registered when the API is built.
	_ = do.MustInvoke[huma.API](injector)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		injector := do.New()
		registerPackages(injector, options)

		logger := do.MustInvoke[*zap.Logger](injector)

		var server *http.Server

		hooks.OnStart(func() {
			server = newServer(injector, options.Port)

			warmCaches(logger, map[string]resyncer{
				"errors":   do.MustInvoke[*recordcache.Facade[telemetry.ErrorRecord]](injector),
				"api_keys": do.MustInvoke[*recordcache.Facade[telemetry.APIKeyRecord]](injector),
			})

			logger.Info("device API listening", zap.Int("port", options.Port))

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			var errs []error

			if server != nil {
				errs = append(errs, server.Shutdown(ctx))
			}

			// Stops the supervisor before the cache and database it syncs.
			errs = append(errs, injector.Shutdown())

			if err := errors.Join(errs...); err != nil {
				logger.Error("shutdown incomplete", zap.Error(err))

				return
			}

			logger.Info("shutdown complete")
		})
	})

	cli.Run()
}
