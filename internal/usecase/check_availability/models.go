package check_availability

import (
	"time"

	"github.com/m04kA/TourBookingService/pkg/types"
)

// Reason машинно-читаемая причина отказа
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonSlotConflict     Reason = "slot_conflict"
	ReasonBlocked          Reason = "blocked"
	ReasonStoreUnavailable Reason = "store_unavailable"
)

// Request модель запроса проверки доступности
type Request struct {
	Date      time.Time        // Дата тура (без времени)
	Time      types.TimeString // Время начала
	PartySize int              // Информационное поле, на ёмкость не влияет
	TourType  string
}

// Response результат проверки. Отказ - это обычный результат, а не ошибка
type Response struct {
	IsAvailable      bool
	ConflictingCount int // сколько существующих бронирований пересекается с запросом
	MaxCapacity      int // всегда 1
	AlternativeTimes []types.TimeString
	Message          string
	Reason           Reason
}

// AlternativesRequest запрос полного списка альтернатив по каталогу
type AlternativesRequest struct {
	Date     time.Time
	TourType string
	Exclude  *types.TimeString // обычно исходно запрошенное время
}

// AlternativesResponse все подходящие слоты каталога
type AlternativesResponse struct {
	Date  time.Time
	Times []types.TimeString
}
