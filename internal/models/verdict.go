package models

import "github.com/shopspring/decimal"

// VerdictKind вариант вердикта проверки транзакции.
type VerdictKind int

const (
	// VerdictVerified перевод подтвержден.
	VerdictVerified VerdictKind = iota + 1
	// VerdictInvalid транзакция не подходит, повтор бессмысленен.
	VerdictInvalid
	// VerdictTransient сеть или ответ узла недоступны, можно повторить.
	VerdictTransient
)

func (k VerdictKind) String() string {
	switch k {
	case VerdictVerified:
		return "verified"
	case VerdictInvalid:
		return "invalid"
	case VerdictTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Причины отказа, которые видит пользователь.
const (
	ReasonBadFormat       = "bad format"
	ReasonAlreadyUsed     = "already used"
	ReasonExecutionFailed = "execution failed"
	ReasonWrongCallType   = "wrong call type"
	ReasonWrongMethod     = "wrong method"
	ReasonWrongToken      = "wrong token contract"
	ReasonMalformed       = "malformed transaction"
	ReasonNotFound        = "transaction not found"
	ReasonWrongRecipient  = "wrong recipient or amount"
)

// Verdict итог проверки транзакции. Заполнены только поля своего варианта.
type Verdict struct {
	Kind      VerdictKind
	Recipient string          // Verified
	Amount    decimal.Decimal // Verified
	Reason    string          // Invalid
	Cause     error           // Transient
}

// Verified создает подтвержденный вердикт.
func Verified(recipient string, amount decimal.Decimal) Verdict {
	return Verdict{Kind: VerdictVerified, Recipient: recipient, Amount: amount}
}

// Invalid создает вердикт отказа с причиной.
func Invalid(reason string) Verdict {
	return Verdict{Kind: VerdictInvalid, Reason: reason}
}

// Transient создает вердикт временной ошибки.
func Transient(cause error) Verdict {
	return Verdict{Kind: VerdictTransient, Cause: cause}
}
