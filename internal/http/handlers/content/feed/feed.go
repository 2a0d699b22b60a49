// Package feed отдает ленту аирдропов: подписчикам целиком, остальным превью.
package feed

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/airdrop-paywall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/airdrop-paywall/internal/http/response"
	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/airdrop-paywall/internal/models"
)

// Source поставляет ленту.
type Source interface {
	Feed(ctx context.Context) []models.Item
}

// Gate решает, что показать пользователю.
type Gate interface {
	Render(ctx context.Context, userID int64, feed []models.Item) models.DisplayResult
}

// Handler обрабатывает GET /content.
type Handler struct {
	log    *slog.Logger
	source Source
	gate   Gate
}

// New создает Handler.
func New(log *slog.Logger, source Source, gate Gate) *Handler {
	return &Handler{
		log:    log,
		source: source,
		gate:   gate,
	}
}

// ServeHTTP godoc
// @Summary Лента аирдропов
// @Description Подписчикам отдает всю ленту, остальным превью и приглашение оплатить
// @Tags Content
// @Produce  json
// @Success 200 {object} response.Response{data=models.DisplayResult} "Лента"
// @Failure 401 {object} response.Response "Пользователь не авторизован"
// @Router /content [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.content.feed"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	res := h.gate.Render(r.Context(), userID, h.source.Feed(r.Context()))
	log.Debug("feed rendered", sl.UserID(userID), slog.String("mode", string(res.Mode)), slog.Int("items", len(res.Items)))
	render.JSON(w, r, response.StatusOKWithData(res))
}
