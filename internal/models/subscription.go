// Package models содержит доменные структуры: подписку пользователя,
// платежную заявку, вердикт проверки транзакции и результат обработки заявки.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Subscription запись о подписке пользователя чата.
// Отсутствие записи в хранилище равносильно Subscribed == false.
type Subscription struct {
	UserID     int64     `json:"user_id"`
	Subscribed bool      `json:"subscribed"`
	EndDate    time.Time `json:"end_date"` // календарная дата, полночь UTC
}

// ActiveAt сообщает, действует ли подписка в момент now.
func (s *Subscription) ActiveAt(now time.Time) bool {
	if s == nil || !s.Subscribed {
		return false
	}
	return s.EndDate.After(now)
}

// Expiring строка выборки для планировщика напоминаний.
type Expiring struct {
	UserID  int64     `json:"user_id" db:"user_id"`
	EndDate time.Time `json:"end_date" db:"end_date"`
}

// ConsumedTx запись о погашенной транзакции.
type ConsumedTx struct {
	TxHash string
	UserID int64
	Amount decimal.Decimal
}

// ApplyOutcome результат атомарной записи заявки.
type ApplyOutcome int

const (
	// Applied хэш погашен, подписка записана.
	Applied ApplyOutcome = iota + 1
	// AlreadyUsed хэш уже был погашен ранее.
	AlreadyUsed
)

func (o ApplyOutcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case AlreadyUsed:
		return "already_used"
	default:
		return "unknown"
	}
}

// DateLayout формат календарной даты в ответах и сообщениях.
const DateLayout = "2006-01-02"

// DateOf отбрасывает время суток и приводит момент к UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
