package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	// Embedded zone database so APP_TIMEZONE works in minimal images.
	_ "time/tzdata"

	"momo/internal/auth"
	"momo/internal/backend"
	"momo/internal/cli"
	"momo/internal/config"
	apphttp "momo/internal/http"
	applog "momo/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	registry, err := auth.ParseAgents(cfg.Agents)
	if err != nil {
		logger.Error("Invalid AGENTS configuration", "error", err)
		os.Exit(1)
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		logger.Warn("SESSION_SECRET is not set; using a random secret, sessions will not survive a restart")
		if secret, err = auth.RandomSecret(); err != nil {
			logger.Error("Failed to generate session secret", "error", err)
			os.Exit(1)
		}
	}
	sessions, err := auth.NewSessionManager(secret, cfg.SessionTTL, cfg.SecureCookies)
	if err != nil {
		logger.Error("Failed to initialize sessions", "error", err)
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Records:        res.Service,
		Authenticator:  registry,
		Sessions:       sessions,
		LoginRateLimit: cfg.LoginRateLimit,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", "error", err)
		os.Exit(1)
	}
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting momo server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", cfg.AppTimezone,
		"agents", len(registry.Usernames()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
