package project_day

import (
	"time"

	"github.com/m04kA/TourBookingService/internal/domain"
)

// Request модель запроса календаря дня
type Request struct {
	Date time.Time // Дата (без времени)
}

// Response сетка слотов дня
type Response struct {
	Date  time.Time
	Slots []domain.TimeSlot

	// Conductor текущее состояние машины, nil если трекер не подключён или недоступен
	Conductor *domain.ConductorStatus
}
