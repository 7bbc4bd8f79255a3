package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"donorboard/internal/analytics"
	"donorboard/internal/cli"
	apphttp "donorboard/internal/http"
	"donorboard/internal/log"
	"donorboard/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.InitBackend(context.Background(), logger, cfg, cfg.DataBackend)

	dashboard := services.NewDashboardService(res.Fetcher, res.Fetcher,
		services.WithLanguage(cfg.Language()),
		services.WithLogger(logger),
		services.WithEnricherOptions(
			analytics.WithLookupTimeout(cfg.IdentityLookupTimeout),
			analytics.WithLookupConcurrency(cfg.IdentityLookupConcurrency),
		))

	srv := apphttp.NewServer(":"+cfg.Port, dashboard, apphttp.Options{
		Logger:             logger,
		Ready:              res.Ready,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = apphttp.DefaultRequestTimeout + 5*time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(context.Background(), logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err.Error())
		}
	})

	logger.Info("Starting donorboard server", log.FieldOperation, log.OpStartup, "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		_ = res.Close()
		os.Exit(1)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
}
