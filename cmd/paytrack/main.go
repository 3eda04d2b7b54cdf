package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"paytrack/internal/backend"
	"paytrack/internal/cache"
	"paytrack/internal/cli"
	apphttp "paytrack/internal/http"
	"paytrack/internal/profile"
	"paytrack/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, os.Stdout)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if res.Cleanup != nil {
		defer func() {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	secret, err := cli.JWTSecret(cfg, logger)
	if err != nil {
		logger.Error("Failed to prepare token signing", "error", err)
		os.Exit(1)
	}

	payments := services.NewPaymentService(res.Store, res.Publisher, cfg.CacheTTL)
	profiles := profile.NewService(res.Users, profile.NewTokens(secret, cfg.TokenTTL))

	caches := cache.NewManager()
	caches.Register("breakdowns", payments.BreakdownCache())

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Payments: payments,
		Profiles: profiles,
		Ready:    res.Ready,
		Logger:   logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting paytrack server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return caches.Run(gctx, cfg.CacheTTL)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
