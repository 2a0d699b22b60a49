// Package sender собирает процесс доставки напоминаний из очереди в Telegram.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/airdrop-paywall/internal/config"
	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/telegram"
	"github.com/magabrotheeeer/airdrop-paywall/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/airdrop-paywall/internal/services/sender"
)

// App потребитель очереди напоминаний.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New подключается к брокеру и объявляет очередь напоминаний.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.sender.New"

	if cfg.RabbitMQURL == "" || cfg.BotToken == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("rabbitmq url and bot token are required"))
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client := telegram.NewClient(cfg.BotAPIURL, cfg.BotToken, cfg.Telegram.Timeout)
	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderservice.NewService(client, logger),
		logger:        logger,
	}, nil
}

// Run обрабатывает очередь до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.ExpiringQueue, a.senderService.HandleReminder, a.logger)
	if err != nil {
		a.logger.Error("failed to start reminders consumer", sl.Err(err))
	}

	a.logger.Info("sender service shutting down gracefully")
	if cerr := a.ch.Close(); cerr != nil {
		a.logger.Error("failed to close channel", sl.Err(cerr))
	}
	if cerr := a.conn.Close(); cerr != nil {
		a.logger.Error("failed to close connection", sl.Err(cerr))
	}
	return err
}
