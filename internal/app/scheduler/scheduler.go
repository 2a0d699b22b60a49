// Package scheduler собирает процесс ежедневных напоминаний.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/airdrop-paywall/internal/config"
	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/telegram"
	"github.com/magabrotheeeer/airdrop-paywall/internal/notifier"
	"github.com/magabrotheeeer/airdrop-paywall/internal/rabbitmq"
	schedulerservice "github.com/magabrotheeeer/airdrop-paywall/internal/services/scheduler"
	"github.com/magabrotheeeer/airdrop-paywall/internal/storage/repository"
)

const (
	dbRetries    = 10
	dbRetryDelay = 3 * time.Second
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.Service
	db               *repository.Storage
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	var err error
	for range dbRetries {
		if err = repository.CheckDatabaseReady(ctx, db); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dbRetryDelay):
		}
	}
	return fmt.Errorf("database not ready after retries: %w", err)
}

// New подключает хранилище и выбирает способ доставки: очередь RabbitMQ,
// если задан её адрес, иначе прямую отправку через Bot API.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.scheduler.New"

	if err := cfg.ValidateScheduler(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := repository.New(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect storage: %w", op, err)
	}
	if err = waitForDB(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{db: db, logger: logger}

	var n schedulerservice.Notifier
	if cfg.RabbitMQURL != "" {
		app.conn, err = rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: failed to connect RabbitMQ: %w", op, err)
		}
		app.ch, err = rabbitmq.SetupChannel(app.conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: failed to setup RabbitMQ channel: %w", op, err)
		}
		n = notifier.NewQueue(app.ch, logger)
		logger.Info("reminders are published to RabbitMQ", slog.String("queue", rabbitmq.ExpiringQueue))
	} else {
		if cfg.BotToken == "" {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, errors.New("neither rabbitmq url nor bot token is set"))
		}
		n = telegram.NewClient(cfg.BotAPIURL, cfg.BotToken, cfg.Telegram.Timeout)
		logger.Info("reminders are sent directly via Bot API")
	}

	app.schedulerService = schedulerservice.New(db, n, schedulerservice.Config{
		Interval:      cfg.Interval,
		FirstRunDelay: cfg.FirstRunDelay,
		LeadDays:      cfg.WarningLeadDays,
	}, logger)
	return app, nil
}

// Run запускает обходы и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.schedulerService.Run(ctx)
	a.logger.Info("shutting down scheduler service")
	a.close()
	return nil
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
