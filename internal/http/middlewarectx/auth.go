// Package middlewarectx содержит HTTP middleware API: проверку JWT
// и ограничение частоты заявок на пользователя.
//
// JWTMiddleware проверяет токен в заголовке Authorization и кладет
// идентификатор пользователя чата в контекст запроса.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/airdrop-paywall/internal/http/response"
	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/jwt"
	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// UserID ключ идентификатора пользователя в контексте.
const UserID Key = "user_id"

// TokenParser проверяет токен.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// WithUserID кладет идентификатор пользователя в контекст.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserID, userID)
}

// UserIDFrom достает идентификатор пользователя из контекста.
func UserIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserID).(int64)
	return id, ok && id != 0
}

// JWTMiddleware возвращает middleware, который пропускает только запросы
// с действующим токеном. Иначе отвечает 401.
func JWTMiddleware(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}

			claims, err := parser.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				log.Warn("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), claims.UserID)))
		})
	}
}
