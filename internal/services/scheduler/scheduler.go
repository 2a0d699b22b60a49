// Package scheduler раз в сутки находит подписки, которые скоро закончатся,
// и отправляет владельцам напоминание.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/airdrop-paywall/internal/metrics"
	"github.com/magabrotheeeer/airdrop-paywall/internal/models"
)

// Repository выбирает подписки с окончанием не позже until.
type Repository interface {
	ScanExpiringSoon(ctx context.Context, until time.Time) ([]models.Expiring, error)
}

// Notifier доставляет напоминание пользователю.
type Notifier interface {
	Notify(ctx context.Context, userID int64, endDate time.Time) error
}

// Report итог одного обхода.
type Report struct {
	Scanned  int
	Notified int
	Failed   int
}

// Config параметры обхода.
type Config struct {
	Interval      time.Duration
	FirstRunDelay time.Duration
	LeadDays      int // за сколько дней до окончания предупреждать
}

// Service планировщик напоминаний.
type Service struct {
	repo     Repository
	notifier Notifier
	cfg      Config
	now      func() time.Time
	log      *slog.Logger
}

// DefaultInterval период обхода, если Interval не задан.
const DefaultInterval = 24 * time.Hour

// New создает планировщик. Неположительный Interval заменяется на DefaultInterval.
func New(repo Repository, notifier Notifier, cfg Config, log *slog.Logger) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	cfg.FirstRunDelay = max(cfg.FirstRunDelay, 0)
	return &Service{
		repo:     repo,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		log:      log,
	}
}

// Run выполняет обход через FirstRunDelay, затем каждые Interval.
// Возвращается после отмены ctx.
func (s *Service) Run(ctx context.Context) {
	const op = "services.scheduler.Run"
	log := s.log.With(slog.String("op", op))

	timer := time.NewTimer(s.cfg.FirstRunDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		if _, err := s.RunOnce(ctx); err != nil {
			log.Error("expiry scan failed", sl.Err(err))
		}
		select {
		case <-ctx.Done():
			log.Info("scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce находит подписки, заканчивающиеся в ближайшие LeadDays дней,
// и уведомляет каждого пользователя. Ошибка одного уведомления не прерывает обход.
func (s *Service) RunOnce(ctx context.Context) (Report, error) {
	const op = "services.scheduler.RunOnce"
	log := s.log.With(slog.String("op", op))

	until := models.DateOf(s.now().AddDate(0, 0, s.cfg.LeadDays))
	expiring, err := s.repo.ScanExpiringSoon(ctx, until)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", op, err)
	}

	report := Report{Scanned: len(expiring)}
	if len(expiring) == 0 {
		log.Info("no expiring subscriptions found")
		return report, nil
	}
	log.Info("found expiring subscriptions", slog.Int("count", len(expiring)))

	for _, e := range expiring {
		if ctx.Err() != nil {
			return report, fmt.Errorf("%s: %w", op, ctx.Err())
		}
		if err := s.notify(ctx, e); err != nil {
			report.Failed++
			metrics.RemindersTotal.WithLabelValues("failed").Inc()
			log.Error("failed to notify user", sl.UserID(e.UserID), sl.Err(err))
			continue
		}
		report.Notified++
		metrics.RemindersTotal.WithLabelValues("sent").Inc()
	}

	log.Info("expiry scan finished",
		slog.Int("notified", report.Notified),
		slog.Int("failed", report.Failed))
	return report, nil
}

func (s *Service) notify(ctx context.Context, e models.Expiring) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return s.notifier.Notify(ctx, e.UserID, e.EndDate)
}
