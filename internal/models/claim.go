package models

import "time"

// Claim заявка пользователя на зачисление платежа.
type Claim struct {
	TxHash string
	UserID int64
}

// SubmissionStatus итог обработки заявки.
type SubmissionStatus string

const (
	StatusAccepted SubmissionStatus = "accepted"
	StatusRejected SubmissionStatus = "rejected"
	StatusDeferred SubmissionStatus = "deferred"
)

// SubmissionResult ответ менеджера подписок на заявку.
type SubmissionResult struct {
	Status  SubmissionStatus `json:"status"`
	EndDate time.Time        `json:"end_date,omitempty"`
	Reason  string           `json:"reason,omitempty"`
}

// Accepted заявка зачтена, подписка действует до endDate.
func Accepted(endDate time.Time) SubmissionResult {
	return SubmissionResult{Status: StatusAccepted, EndDate: endDate}
}

// Rejected заявка отклонена.
func Rejected(reason string) SubmissionResult {
	return SubmissionResult{Status: StatusRejected, Reason: reason}
}

// Deferred проверку нужно повторить позже.
func Deferred(reason string) SubmissionResult {
	return SubmissionResult{Status: StatusDeferred, Reason: reason}
}

// Reminder сообщение о скором окончании подписки, уходит в очередь.
type Reminder struct {
	ID      string    `json:"id"`
	UserID  int64     `json:"user_id"`
	EndDate time.Time `json:"end_date"`
	Text    string    `json:"text"`
}

// ReminderText возвращает текст напоминания для даты окончания подписки.
func ReminderText(endDate time.Time) string {
	return "⚠️ Subscription expires on " + endDate.Format(DateLayout) + "\nRenew now: /start"
}
