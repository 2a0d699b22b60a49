// Package subscription обрабатывает платежные заявки пользователей:
// проверяет формат хэша, подтверждает перевод в сети и продлевает подписку.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/airdrop-paywall/internal/metrics"
	"github.com/magabrotheeeer/airdrop-paywall/internal/models"
	"github.com/magabrotheeeer/airdrop-paywall/internal/storage/repository"
)

// TxHashLen длина хэша транзакции TRON в hex.
const TxHashLen = 64

// ReasonRetryLater причина отложенной заявки.
const ReasonRetryLater = "ledger unavailable, retry later"

// Repository определяет операции хранилища, нужные для зачисления платежа.
type Repository interface {
	// IsTxConsumed сообщает, был ли хэш уже погашен.
	IsTxConsumed(ctx context.Context, txHash string) (bool, error)
	// UpsertIfTxUnused атомарно погашает хэш и продлевает подписку.
	UpsertIfTxUnused(ctx context.Context, consumed models.ConsumedTx, renew repository.RenewFunc) (models.ApplyOutcome, *models.Subscription, error)
}

// Verifier подтверждает перевод по хэшу транзакции.
type Verifier interface {
	Verify(ctx context.Context, txHash string) models.Verdict
}

// Manager обрабатывает платежные заявки.
type Manager struct {
	repo         Repository
	verifier     Verifier
	durationDays int
	now          func() time.Time
	log          *slog.Logger
}

// NewManager создает обработчик заявок. durationDays задает срок одного продления.
func NewManager(repo Repository, verifier Verifier, durationDays int, log *slog.Logger) *Manager {
	return &Manager{
		repo:         repo,
		verifier:     verifier,
		durationDays: durationDays,
		now:          time.Now,
		log:          log,
	}
}

// NormalizeTxHash приводит хэш к нижнему регистру и проверяет формат:
// ровно 64 шестнадцатеричных символа.
func NormalizeTxHash(raw string) (string, bool) {
	hash := strings.ToLower(strings.TrimSpace(raw))
	if len(hash) != TxHashLen {
		return "", false
	}
	for _, c := range hash {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", false
		}
	}
	return hash, true
}

// Renew продлевает подписку на days дней от более поздней из дат:
// сегодня или текущее окончание. Оплаченные дни не теряются.
func Renew(current *models.Subscription, today time.Time, days int) models.Subscription {
	start := models.DateOf(today)
	if current != nil && current.Subscribed && current.EndDate.After(start) {
		start = models.DateOf(current.EndDate)
	}
	return models.Subscription{
		Subscribed: true,
		EndDate:    start.AddDate(0, 0, days),
	}
}

// SubmitClaim обрабатывает заявку. Ошибка возвращается только при сбое хранилища;
// отказ и отложенная проверка выражаются статусом результата.
func (m *Manager) SubmitClaim(ctx context.Context, claim models.Claim) (models.SubmissionResult, error) {
	const op = "services.subscription.SubmitClaim"
	log := m.log.With(slog.String("op", op), sl.UserID(claim.UserID))

	hash, ok := NormalizeTxHash(claim.TxHash)
	if !ok {
		return m.finish(log, models.Rejected(models.ReasonBadFormat)), nil
	}
	log = log.With(sl.TxHash(hash))

	used, err := m.repo.IsTxConsumed(ctx, hash)
	if err != nil {
		log.Error("failed to check consumed hash", sl.Err(err))
		metrics.ClaimsTotal.WithLabelValues("error", "store").Inc()
		return models.SubmissionResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if used {
		return m.finish(log, models.Rejected(models.ReasonAlreadyUsed)), nil
	}

	verdict := m.verifier.Verify(ctx, hash)
	switch verdict.Kind {
	case models.VerdictVerified:
	case models.VerdictInvalid:
		return m.finish(log, models.Rejected(verdict.Reason)), nil
	default:
		log.Warn("verification deferred", sl.Err(verdict.Cause))
		return m.finish(log, models.Deferred(ReasonRetryLater)), nil
	}

	consumed := models.ConsumedTx{
		TxHash: hash,
		UserID: claim.UserID,
		Amount: verdict.Amount,
	}
	today := m.now()
	outcome, sub, err := m.repo.UpsertIfTxUnused(ctx, consumed, func(current *models.Subscription) models.Subscription {
		return Renew(current, today, m.durationDays)
	})
	if err != nil {
		log.Error("failed to apply payment", sl.Err(err))
		metrics.ClaimsTotal.WithLabelValues("error", "store").Inc()
		return models.SubmissionResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if outcome == models.AlreadyUsed {
		// хэш погашен параллельной заявкой между проверкой и записью
		return m.finish(log, models.Rejected(models.ReasonAlreadyUsed)), nil
	}

	log.Info("subscription renewed",
		slog.String("amount", verdict.Amount.String()),
		slog.String("end_date", sub.EndDate.Format(models.DateLayout)))
	return m.finish(log, models.Accepted(sub.EndDate)), nil
}

func (m *Manager) finish(log *slog.Logger, res models.SubmissionResult) models.SubmissionResult {
	if res.Status != models.StatusAccepted {
		log.Info("claim not accepted", slog.String("status", string(res.Status)), slog.String("reason", res.Reason))
	}
	metrics.ClaimsTotal.WithLabelValues(string(res.Status), res.Reason).Inc()
	return res
}
