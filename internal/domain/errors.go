package domain

import "errors"

var (
	// ErrStoreUnavailable хранилище недоступно, движок работает по принципу fail closed
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrSlotConflict запрошенный интервал пересекается с существующим бронированием
	ErrSlotConflict = errors.New("slot conflict")

	// ErrDuplicateBlock блокировка с таким ключом уже существует (для вызывающей стороны это успех)
	ErrDuplicateBlock = errors.New("duplicate block")

	// ErrBlockedByReservation попытка снять блокировку над подтверждённым бронированием
	ErrBlockedByReservation = errors.New("blocked by confirmed reservation")

	// ErrInvalidRange некорректный диапазон времени (конец раньше начала, время в прошлом)
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidInput некорректные входные данные
	ErrInvalidInput = errors.New("invalid input data")

	// ErrDuplicateSubmission повторная отправка той же заявки (дата, время, email)
	ErrDuplicateSubmission = errors.New("duplicate submission")

	// ErrReservationNotFound бронирование не найдено
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrSessionNotFound сессия кондуктора не найдена
	ErrSessionNotFound = errors.New("conductor session not found")
)
