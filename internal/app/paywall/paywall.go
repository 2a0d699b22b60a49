package paywall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/airdrop-paywall/internal/aggregator"
	"github.com/magabrotheeeer/airdrop-paywall/internal/cache"
	"github.com/magabrotheeeer/airdrop-paywall/internal/config"
	"github.com/magabrotheeeer/airdrop-paywall/internal/http/handlers/claims/submit"
	"github.com/magabrotheeeer/airdrop-paywall/internal/http/handlers/content/feed"
	"github.com/magabrotheeeer/airdrop-paywall/internal/http/handlers/health"
	"github.com/magabrotheeeer/airdrop-paywall/internal/http/handlers/payment/instructions"
	"github.com/magabrotheeeer/airdrop-paywall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/airdrop-paywall/internal/ledger"
	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/jwt"
	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/airdrop-paywall/internal/migrations"
	"github.com/magabrotheeeer/airdrop-paywall/internal/services/content"
	"github.com/magabrotheeeer/airdrop-paywall/internal/services/subscription"
	"github.com/magabrotheeeer/airdrop-paywall/internal/services/verifier"
	"github.com/magabrotheeeer/airdrop-paywall/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-сервер API и его ресурсы.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

// New открывает хранилище, применяет миграции и собирает сервисы.
// Redis необязателен: без него лента собирается на каждый запрос.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.paywall.New"

	if err := cfg.ValidatePayments(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("%s: jwt secret is not set", op)
	}
	minAmount, err := cfg.MinPayment()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := repository.New(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB.DB, db.DriverName()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{logger: logger, db: db}

	var feedCache aggregator.Cache
	if cfg.AddressRedis != "" {
		c, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			logger.Warn("redis unavailable, feed cache disabled", sl.Err(err))
		} else {
			app.cache = c
			feedCache = c
		}
	}

	ledgerClient := ledger.NewClient(cfg.TronAPIURL, cfg.APIKey, cfg.RequestTimeout)
	verifierService := verifier.New(ledgerClient, verifier.Config{
		PayoutAddress: cfg.PayoutAddress,
		TokenContract: cfg.TokenContract,
		MinAmount:     minAmount,
		Timeout:       cfg.RequestTimeout,
	}, logger)
	manager := subscription.NewManager(db, verifierService, cfg.DurationDays, logger)

	feedAggregator := aggregator.New(aggregator.Config{
		Sources:      cfg.Sources,
		PerSource:    cfg.PerSource,
		Limit:        cfg.Limit,
		FetchTimeout: cfg.FetchTimeout,
		CacheTTL:     cfg.CacheTTL,
	}, &http.Client{}, feedCache, logger)
	gate := content.NewGate(db, cfg.PreviewSize, cfg.UpsellText, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Handlers{
		Instructions: instructions.New(logger, cfg.PayoutAddress, minAmount.String(), cfg.PaymentLinkFmt),
		Submit:       submit.New(logger, manager),
		Feed:         feed.New(logger, feedAggregator, gate),
		Health:       health.New(logger, db.DB),
		Tokens:       jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		ClaimLimiter: middlewarectx.NewUserRateLimiter(cfg.ClaimsRPS, cfg.ClaimsBurst),
	})

	// запись ответа ждет проверку в сети, поэтому WriteTimeout не меньше таймаута узла
	writeTimeout := max(cfg.TimeoutHTTP, cfg.RequestTimeout+5*time.Second)
	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: writeTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run обслуживает запросы до отмены ctx, затем плавно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
