package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/aruj94/deviceAPI/internal/container"
	"github.com/aruj94/deviceAPI/internal/messaging"
	"github.com/samber/do"
	"go.uber.org/zap"
)

// optionsFromEnv reads the alert consumer settings; unset variables keep their defaults.
func optionsFromEnv(getenv func(string) string) *container.Options {
	get := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}

		return fallback
	}

	history, err := strconv.Atoi(get("ALERT_HISTORY", "100"))
	if err != nil || history < 0 {
		history = 100
	}

	return &container.Options{
		RedisAddr:     get("REDIS_ADDR", "localhost:6379"),
		RedisPassword: get("REDIS_PASSWORD", ""),
		LogFormat:     get("LOG_FORMAT", "console"),
		AlertStore:    get("ALERT_STORE", "redis"),
		AlertHistory:  history,
	}
}

func main() {
	injector := do.New()
	do.ProvideValue(injector, optionsFromEnv(os.Getenv))
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.ConsumerGroupPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)
	group := do.MustInvoke[*messaging.ConsumerGroup](injector)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := group.Start(ctx); err != nil {
		logger.Fatal("alert consumers failed to start", zap.Error(err))
	}

	<-ctx.Done()
	logger.Info("stopping alert consumer")

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown incomplete", zap.Error(err))

		return
	}

	logger.Info("alert consumer stopped")
}
