// Package main Airdrop Paywall API
//
// @title           Airdrop Paywall API
// @version         1.0
// @description     Платный доступ к ленте аирдропов с оплатой USDT в сети TRON

// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/airdrop-paywall/internal/app/paywall"
	"github.com/magabrotheeeer/airdrop-paywall/internal/config"
	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/logger"
	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/airdrop-paywall/internal/metrics"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env, os.Stdout)

	log.Info("starting paywall", slog.String("env", cfg.Env))
	log.Debug("config loaded", slog.String("config", cfg.String()))
	metrics.InitMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := paywall.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("paywall stopped gracefully")
}
