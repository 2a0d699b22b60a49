// Package notifier публикует напоминания об окончании подписки в очередь RabbitMQ.
// Доставку выполняет отдельный процесс sender.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/airdrop-paywall/internal/models"
	"github.com/magabrotheeeer/airdrop-paywall/internal/rabbitmq"
)

// Queue ставит напоминания в очередь.
type Queue struct {
	ch  rabbitmq.Channel
	log *slog.Logger
}

// NewQueue создает Queue поверх открытого канала.
func NewQueue(ch rabbitmq.Channel, log *slog.Logger) *Queue {
	return &Queue{ch: ch, log: log}
}

// Notify публикует напоминание пользователю.
func (q *Queue) Notify(ctx context.Context, userID int64, endDate time.Time) error {
	const op = "notifier.Notify"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg := models.Reminder{
		ID:      uuid.NewString(),
		UserID:  userID,
		EndDate: endDate,
		Text:    models.ReminderText(endDate),
	}
	if err := rabbitmq.PublishMessage(q.ch, rabbitmq.Exchange, rabbitmq.ExpiringRoutingKey, msg.ID, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	q.log.Debug("reminder queued", slog.String("op", op), slog.String("id", msg.ID), slog.Int64("user_id", userID))
	return nil
}
