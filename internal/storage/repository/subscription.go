package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/airdrop-paywall/internal/models"
)

// RenewFunc вычисляет новую запись подписки по текущей.
// current равен nil, если у пользователя еще не было подписки.
type RenewFunc func(current *models.Subscription) models.Subscription

type subscriptionRow struct {
	UserID     int64        `db:"user_id"`
	Subscribed bool         `db:"subscribed"`
	EndDate    sql.NullTime `db:"end_date"`
}

func (r subscriptionRow) toModel() *models.Subscription {
	if !r.Subscribed && !r.EndDate.Valid {
		return nil
	}
	sub := &models.Subscription{
		UserID:     r.UserID,
		Subscribed: r.Subscribed,
	}
	if r.EndDate.Valid {
		sub.EndDate = models.DateOf(r.EndDate.Time)
	}
	return sub
}

// Get возвращает подписку пользователя или nil, если записи нет.
func (s *Storage) Get(ctx context.Context, userID int64) (*models.Subscription, error) {
	const op = "storage.Get"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := s.DB.Rebind(`SELECT user_id, subscribed, end_date FROM users WHERE user_id = ?`)
	var row subscriptionRow
	err := s.DB.GetContext(ctx, &row, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return row.toModel(), nil
}

// IsTxConsumed сообщает, был ли хэш уже погашен.
func (s *Storage) IsTxConsumed(ctx context.Context, txHash string) (bool, error) {
	const op = "storage.IsTxConsumed"

	query := s.DB.Rebind(`SELECT EXISTS (SELECT 1 FROM consumed_transactions WHERE tx_hash = ?)`)
	var exists bool
	if err := s.DB.GetContext(ctx, &exists, query, txHash); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// UpsertIfTxUnused атомарно погашает хэш и продлевает подписку.
//
// Если хэш уже погашен, возвращает models.AlreadyUsed и ничего не меняет.
// Строка пользователя блокируется до вызова renew, поэтому параллельные
// продления одного пользователя выполняются строго последовательно.
func (s *Storage) UpsertIfTxUnused(ctx context.Context, consumed models.ConsumedTx, renew RenewFunc) (models.ApplyOutcome, *models.Subscription, error) {
	const op = "storage.UpsertIfTxUnused"

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: begin: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		tx.Rebind(`INSERT INTO consumed_transactions (tx_hash, user_id, amount, consumed_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (tx_hash) DO NOTHING`),
		consumed.TxHash, consumed.UserID, consumed.Amount.String(), now)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: consume: %w", op, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}
	if inserted == 0 {
		return models.AlreadyUsed, nil, nil
	}

	_, err = tx.ExecContext(ctx,
		tx.Rebind(`INSERT INTO users (user_id, subscribed) VALUES (?, FALSE)
			ON CONFLICT (user_id) DO NOTHING`),
		consumed.UserID)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: ensure user: %w", op, err)
	}

	var row subscriptionRow
	err = tx.GetContext(ctx, &row,
		tx.Rebind(`SELECT user_id, subscribed, end_date FROM users WHERE user_id = ?`+s.lockRow),
		consumed.UserID)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: lock user: %w", op, err)
	}

	next := renew(row.toModel())
	next.UserID = consumed.UserID
	next.EndDate = models.DateOf(next.EndDate)

	_, err = tx.ExecContext(ctx,
		tx.Rebind(`UPDATE users SET subscribed = ?, end_date = ?, updated_at = ? WHERE user_id = ?`),
		next.Subscribed, next.EndDate, now, next.UserID)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: update user: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("%s: commit: %w", op, err)
	}
	return models.Applied, &next, nil
}

// ScanExpiringSoon возвращает активных подписчиков, чья подписка
// заканчивается не позже until.
func (s *Storage) ScanExpiringSoon(ctx context.Context, until time.Time) ([]models.Expiring, error) {
	const op = "storage.ScanExpiringSoon"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := s.DB.Rebind(`SELECT user_id, end_date FROM users
		WHERE subscribed = TRUE AND end_date <= ?
		ORDER BY end_date, user_id`)
	var result []models.Expiring
	if err := s.DB.SelectContext(ctx, &result, query, models.DateOf(until)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for i := range result {
		result[i].EndDate = models.DateOf(result[i].EndDate)
	}
	return result, nil
}
