// Package paywall собирает HTTP API, которым пользуется чат-бот:
// реквизиты оплаты, прием хэша транзакции и выдачу ленты.
package paywall

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/magabrotheeeer/airdrop-paywall/internal/http/docs"
	"github.com/magabrotheeeer/airdrop-paywall/internal/http/middlewarectx"
)

// Handlers обработчики и зависимости маршрутов.
type Handlers struct {
	Instructions http.Handler
	Submit       http.Handler
	Feed         http.Handler
	Health       http.Handler
	Tokens       middlewarectx.TokenParser
	ClaimLimiter *middlewarectx.UserRateLimiter
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, h Handlers) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(h.Tokens, logger))
			r.Get("/payment/instructions", h.Instructions.ServeHTTP)
			r.Get("/content", h.Feed.ServeHTTP)
			r.With(middlewarectx.RateLimitMiddleware(h.ClaimLimiter, logger)).
				Post("/claims", h.Submit.ServeHTTP)
		})
	})

	r.Get("/health", h.Health.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
