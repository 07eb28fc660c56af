package pgerrors

import (
	"errors"

	"github.com/lib/pq"
)

// Коды ошибок Postgres, которые различает приложение
const (
	CodeUniqueViolation      = pq.ErrorCode("23505")
	CodeSerializationFailure = pq.ErrorCode("40001")
)

// IsUniqueViolation нарушение уникального индекса
func IsUniqueViolation(err error) bool {
	return hasCode(err, CodeUniqueViolation)
}

// IsSerializationFailure конфликт сериализуемых транзакций
func IsSerializationFailure(err error) bool {
	return hasCode(err, CodeSerializationFailure)
}

func hasCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == code
	}
	return false
}
