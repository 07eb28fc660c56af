package create_reservation

import (
	"github.com/m04kA/TourBookingService/internal/domain"
	"github.com/m04kA/TourBookingService/pkg/types"
)

// SlotConflictError отказ из-за пересечения с уже существующим бронированием.
// errors.Is(err, domain.ErrSlotConflict) == true
type SlotConflictError struct {
	Message          string
	AlternativeTimes []types.TimeString
}

func (e *SlotConflictError) Error() string {
	return "create_reservation: " + e.Message
}

func (e *SlotConflictError) Unwrap() error {
	return domain.ErrSlotConflict
}
