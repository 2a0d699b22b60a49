// Package sender доставляет напоминания из очереди в чаты пользователей.
package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/telegram"
	"github.com/magabrotheeeer/airdrop-paywall/internal/metrics"
	"github.com/magabrotheeeer/airdrop-paywall/internal/models"
)

// Messenger отправляет текст в чат пользователя.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Service обработчик очереди напоминаний.
type Service struct {
	messenger Messenger
	log       *slog.Logger
}

// NewService создает Service.
func NewService(messenger Messenger, log *slog.Logger) *Service {
	return &Service{
		messenger: messenger,
		log:       log,
	}
}

// HandleReminder доставляет одно напоминание. Возвращает ошибку, только если
// доставку стоит повторить; битые сообщения и окончательные отказы
// Bot API подтверждаются и отбрасываются.
func (s *Service) HandleReminder(ctx context.Context, body []byte) error {
	const op = "services.sender.HandleReminder"
	log := s.log.With(slog.String("op", op))

	var msg models.Reminder
	if err := json.Unmarshal(body, &msg); err != nil {
		log.Error("failed to unmarshal reminder, dropping", sl.Err(err))
		metrics.RemindersTotal.WithLabelValues("dropped").Inc()
		return nil
	}
	if msg.UserID == 0 {
		log.Error("reminder without user, dropping", slog.String("id", msg.ID))
		metrics.RemindersTotal.WithLabelValues("dropped").Inc()
		return nil
	}
	log = log.With(slog.String("id", msg.ID), sl.UserID(msg.UserID))

	text := msg.Text
	if text == "" {
		text = models.ReminderText(msg.EndDate)
	}

	err := s.messenger.SendMessage(ctx, msg.UserID, text)
	switch {
	case err == nil:
		log.Info("reminder delivered")
		metrics.RemindersTotal.WithLabelValues("delivered").Inc()
		return nil
	case errors.Is(err, telegram.ErrPermanent):
		log.Warn("reminder rejected by bot api, dropping", sl.Err(err))
		metrics.RemindersTotal.WithLabelValues("dropped").Inc()
		return nil
	default:
		metrics.RemindersTotal.WithLabelValues("retry").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
}
