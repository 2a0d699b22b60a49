// Package metrics содержит метрики Prometheus сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ClaimsTotal заявки по итогу обработки (accepted, rejected, deferred, error).
	ClaimsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paywall_claims_total",
			Help: "Total number of payment claims by result",
		},
		[]string{"status", "reason"},
	)
	// VerdictsTotal вердикты проверки транзакций.
	VerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paywall_verdicts_total",
			Help: "Total number of transaction verdicts by kind",
		},
		[]string{"kind"},
	)
	// LedgerRequestDuration длительность запросов к TronGrid.
	LedgerRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paywall_ledger_request_duration_seconds",
			Help:    "Duration of ledger API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
	// RemindersTotal напоминания об окончании подписки.
	RemindersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paywall_reminders_total",
			Help: "Total number of expiry reminders by result",
		},
		[]string{"result"},
	)
	// SourceFailuresTotal ошибки загрузки источников ленты.
	SourceFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paywall_feed_source_failures_total",
			Help: "Total number of failed feed source fetches",
		},
		[]string{"source"},
	)
	// FeedRendersTotal выдачи ленты по режиму.
	FeedRendersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paywall_feed_renders_total",
			Help: "Total number of rendered feeds by mode",
		},
		[]string{"mode"},
	)
)

// InitMetrics регистрирует метрики в реестре по умолчанию.
// Вызывается один раз при старте процесса.
func InitMetrics() {
	prometheus.MustRegister(ClaimsTotal)
	prometheus.MustRegister(VerdictsTotal)
	prometheus.MustRegister(LedgerRequestDuration)
	prometheus.MustRegister(RemindersTotal)
	prometheus.MustRegister(SourceFailuresTotal)
	prometheus.MustRegister(FeedRendersTotal)
}
