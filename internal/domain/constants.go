package domain

// Значения по умолчанию
const (
	DefaultTourDurationMinutes = 45
	DefaultOpening             = "09:00"
	DefaultClosing             = "18:00"
	DefaultSlotStepMinutes     = 90
)

// Бизнес-ограничения
const (
	// MaxCapacity одна машина - одно бронирование на пересекающийся интервал
	MaxCapacity = 1

	MaxPartySize     = 50
	MaxNotesLength   = 500
	MaxReasonLength  = 500
	MaxCustomerField = 255
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// NonCancelledStatuses статусы, занимающие интервал в расписании
var NonCancelledStatuses = []ReservationStatus{
	StatusPending,
	StatusConfirmed,
	StatusCompleted,
}
