package domain

import "github.com/m04kA/TourBookingService/pkg/types"

// SlotStatus статус слота в календаре
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotOccupied  SlotStatus = "occupied"
	SlotBlocked   SlotStatus = "blocked"
)

// TimeSlot вычисляемый слот дня, не хранится
type TimeSlot struct {
	Time          types.TimeString
	Status        SlotStatus
	BlockedBy     *string // причина блокировки
	ReservationID *int64
}

// IsAvailable true, если слот свободен
func (s *TimeSlot) IsAvailable() bool {
	return s.Status == SlotAvailable
}
