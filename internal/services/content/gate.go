// Package content решает, какую часть ленты показать пользователю.
package content

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/airdrop-paywall/internal/metrics"
	"github.com/magabrotheeeer/airdrop-paywall/internal/models"
)

// Repository читает подписку пользователя.
type Repository interface {
	Get(ctx context.Context, userID int64) (*models.Subscription, error)
}

// Gate отдает подписчикам всю ленту, остальным превью и приглашение оплатить.
type Gate struct {
	repo        Repository
	previewSize int
	upsell      string
	now         func() time.Time
	log         *slog.Logger
}

// NewGate создает Gate.
func NewGate(repo Repository, previewSize int, upsell string, log *slog.Logger) *Gate {
	return &Gate{
		repo:        repo,
		previewSize: previewSize,
		upsell:      upsell,
		now:         time.Now,
		log:         log,
	}
}

// Render формирует выдачу для пользователя. При ошибке хранилища
// пользователь получает превью.
func (g *Gate) Render(ctx context.Context, userID int64, feed []models.Item) models.DisplayResult {
	const op = "services.content.Render"

	sub, err := g.repo.Get(ctx, userID)
	if err != nil {
		g.log.Error("failed to read subscription", slog.String("op", op), sl.UserID(userID), sl.Err(err))
		sub = nil
	}

	var res models.DisplayResult
	if sub.ActiveAt(g.now()) {
		res = models.DisplayResult{Mode: models.DisplayFull, Items: feed}
	} else {
		n := min(len(feed), g.previewSize)
		res = models.DisplayResult{Mode: models.DisplayPreview, Items: feed[:n], Upsell: g.upsell}
	}
	if res.Items == nil {
		res.Items = []models.Item{}
	}
	metrics.FeedRendersTotal.WithLabelValues(string(res.Mode)).Inc()
	return res
}
