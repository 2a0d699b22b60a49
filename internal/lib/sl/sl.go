// Package sl содержит вспомогательные функции для работы с логгером slog.
// Основная цель: упростить формирование структурированных полей лога
// для ошибок и идентификаторов платежных заявок.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// UserID возвращает атрибут с идентификатором пользователя чата.
func UserID(id int64) slog.Attr {
	return slog.Int64("user_id", id)
}

// TxHash возвращает атрибут с хэшем транзакции.
func TxHash(hash string) slog.Attr {
	return slog.String("tx_hash", hash)
}
