package middlewarectx

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/airdrop-paywall/internal/http/response"
	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/sl"
)

const (
	limiterIdleTTL  = 10 * time.Minute
	limiterSweepLen = 10000
)

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserRateLimiter ограничивает частоту запросов каждого пользователя отдельно.
type UserRateLimiter struct {
	mu       sync.Mutex
	limiters map[int64]*userLimiter
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

// NewUserRateLimiter создает ограничитель: rps запросов в секунду, всплеск до burst.
func NewUserRateLimiter(rps float64, burst int) *UserRateLimiter {
	return &UserRateLimiter{
		limiters: make(map[int64]*userLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow сообщает, можно ли выполнить запрос пользователя сейчас.
func (l *UserRateLimiter) Allow(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.limiters) >= limiterSweepLen {
		for id, ul := range l.limiters {
			if now.Sub(ul.lastSeen) > limiterIdleTTL {
				delete(l.limiters, id)
			}
		}
	}

	ul, ok := l.limiters[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[userID] = ul
	}
	ul.lastSeen = now
	return ul.limiter.AllowN(now, 1)
}

// RateLimitMiddleware отвечает 429, если пользователь превысил лимит.
// Должен стоять после JWTMiddleware.
func RateLimitMiddleware(limiter *UserRateLimiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFrom(r.Context())
			if !ok {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}
			if !limiter.Allow(userID) {
				log.Warn("too many requests", sl.UserID(userID))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
