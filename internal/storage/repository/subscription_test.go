package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/airdrop-paywall/internal/models"
)

func fixedRenew(end time.Time) RenewFunc {
	return func(*models.Subscription) models.Subscription {
		return models.Subscription{Subscribed: true, EndDate: end}
	}
}

func consumed(hash string, userID int64) models.ConsumedTx {
	return models.ConsumedTx{TxHash: hash, UserID: userID, Amount: decimal.RequireFromString("0.99")}
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New("mysql", "whatever")
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestStorage_GetAbsent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Storage) {
		sub, err := s.Get(context.Background(), 100)
		require.NoError(t, err)
		assert.Nil(t, sub)
		require.NoError(t, CheckDatabaseReady(context.Background(), s))
	})
}

func TestStorage_UpsertIfTxUnused(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Storage) {
		ctx := context.Background()
		end := date(2026, 11, 16)

		var seen *models.Subscription
		outcome, sub, err := s.UpsertIfTxUnused(ctx, consumed(hashOf('a'), 7), func(current *models.Subscription) models.Subscription {
			seen = current
			return models.Subscription{Subscribed: true, EndDate: end}
		})
		require.NoError(t, err)
		assert.Equal(t, models.Applied, outcome)
		assert.Nil(t, seen, "first claim sees no previous subscription")
		require.NotNil(t, sub)
		assert.Equal(t, int64(7), sub.UserID)
		assert.True(t, end.Equal(sub.EndDate))

		stored, err := s.Get(ctx, 7)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.True(t, stored.Subscribed)
		assert.True(t, end.Equal(stored.EndDate))

		used, err := s.IsTxConsumed(ctx, hashOf('a'))
		require.NoError(t, err)
		assert.True(t, used)

		// второй хэш того же пользователя видит текущую запись
		outcome, _, err = s.UpsertIfTxUnused(ctx, consumed(hashOf('b'), 7), func(current *models.Subscription) models.Subscription {
			seen = current
			return models.Subscription{Subscribed: true, EndDate: current.EndDate.AddDate(0, 0, 30)}
		})
		require.NoError(t, err)
		assert.Equal(t, models.Applied, outcome)
		require.NotNil(t, seen)
		assert.True(t, end.Equal(seen.EndDate))

		stored, err = s.Get(ctx, 7)
		require.NoError(t, err)
		assert.True(t, date(2026, 12, 16).Equal(stored.EndDate))
	})
}

func TestStorage_UpsertIfTxUnused_Replay(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Storage) {
		ctx := context.Background()

		outcome, _, err := s.UpsertIfTxUnused(ctx, consumed(hashOf('c'), 1), fixedRenew(date(2026, 11, 1)))
		require.NoError(t, err)
		require.Equal(t, models.Applied, outcome)

		called := false
		outcome, sub, err := s.UpsertIfTxUnused(ctx, consumed(hashOf('c'), 2), func(*models.Subscription) models.Subscription {
			called = true
			return models.Subscription{Subscribed: true, EndDate: date(2030, 1, 1)}
		})
		require.NoError(t, err)
		assert.Equal(t, models.AlreadyUsed, outcome)
		assert.Nil(t, sub)
		assert.False(t, called)

		other, err := s.Get(ctx, 2)
		require.NoError(t, err)
		assert.Nil(t, other, "replayed hash must not create a record for another user")
	})
}

func TestStorage_UpsertIfTxUnused_Concurrent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Storage) {
		ctx := context.Background()
		const workers = 8

		var applied, rejected atomic.Int32
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				outcome, _, err := s.UpsertIfTxUnused(ctx, consumed(hashOf('d'), 9), func(current *models.Subscription) models.Subscription {
					base := date(2026, 10, 17)
					if current != nil {
						base = current.EndDate
					}
					return models.Subscription{Subscribed: true, EndDate: base.AddDate(0, 0, 30)}
				})
				if !assert.NoError(t, err) {
					return
				}
				switch outcome {
				case models.Applied:
					applied.Add(1)
				case models.AlreadyUsed:
					rejected.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), applied.Load())
		assert.Equal(t, int32(workers-1), rejected.Load())

		stored, err := s.Get(ctx, 9)
		require.NoError(t, err)
		assert.True(t, date(2026, 11, 16).Equal(stored.EndDate))
	})
}

func TestStorage_UpsertIfTxUnused_ConcurrentSameUser(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Storage) {
		ctx := context.Background()
		hashes := []byte{'1', '2', '3', '4', '5'}

		var wg sync.WaitGroup
		for _, c := range hashes {
			wg.Add(1)
			go func(c byte) {
				defer wg.Done()
				_, _, err := s.UpsertIfTxUnused(ctx, consumed(hashOf(c), 11), func(current *models.Subscription) models.Subscription {
					base := date(2026, 10, 17)
					if current != nil {
						base = current.EndDate
					}
					return models.Subscription{Subscribed: true, EndDate: base.AddDate(0, 0, 30)}
				})
				assert.NoError(t, err)
			}(c)
		}
		wg.Wait()

		stored, err := s.Get(ctx, 11)
		require.NoError(t, err)
		want := date(2026, 10, 17).AddDate(0, 0, 30*len(hashes))
		assert.True(t, want.Equal(stored.EndDate), "every renewal must extend the previous one, got %s", stored.EndDate)
	})
}

func TestStorage_ScanExpiringSoon(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Storage) {
		ctx := context.Background()
		today := date(2026, 10, 17)

		users := map[int64]time.Time{
			1: today.AddDate(0, 0, 1),
			2: today.AddDate(0, 0, 5),
			3: today.AddDate(0, 0, 10),
			4: today.AddDate(0, 0, 3),
		}
		c := byte('e')
		for id, end := range users {
			_, _, err := s.UpsertIfTxUnused(ctx, consumed(hashOf(c), id), fixedRenew(end))
			require.NoError(t, err)
			c++
		}

		got, err := s.ScanExpiringSoon(ctx, today.AddDate(0, 0, 3).Add(15*time.Hour))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(1), got[0].UserID)
		assert.True(t, users[1].Equal(got[0].EndDate))
		assert.Equal(t, int64(4), got[1].UserID)
	})
}

func TestStorage_ContextCancelled(t *testing.T) {
	s := setupSQLite(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.ScanExpiringSoon(ctx, time.Now())
	assert.ErrorIs(t, err, context.Canceled)

	_, _, err = s.UpsertIfTxUnused(ctx, consumed(hashOf('z'), 1), fixedRenew(time.Now()))
	assert.Error(t, err)
}
