package project_day

import (
	"time"

	"github.com/m04kA/TourBookingService/internal/domain"
)

// Projector строит сетку слотов дня из бронирований и блокировок
type Projector struct {
	durations *domain.DurationTable
	catalog   *domain.TimeSlotCatalog
	slotSpan  int
}

// NewProjector slotSpan - ширина слота в минутах при проверке занятости; <= 0 означает 45
func NewProjector(durations *domain.DurationTable, catalog *domain.TimeSlotCatalog, slotSpan int) *Projector {
	if slotSpan <= 0 {
		slotSpan = domain.DefaultTourDurationMinutes
	}
	return &Projector{durations: durations, catalog: catalog, slotSpan: slotSpan}
}

// ProjectDay статус каждого слота каталога.
// Приоритет: блокировка дня > блокировка часа > занято > свободно
func (p *Projector) ProjectDay(date time.Time, reservations []*domain.Reservation, blocks []*domain.BlockedPeriod) []domain.TimeSlot {
	dayBlocks := domain.BlocksForDate(blocks, date)

	var wholeDay *domain.BlockedPeriod
	hourBlocks := make(map[domain.BlockKey]*domain.BlockedPeriod)
	for _, b := range dayBlocks {
		if b.IsWholeDay() {
			if wholeDay == nil {
				wholeDay = b
			}
			continue
		}
		if _, ok := hourBlocks[b.Key()]; !ok {
			hourBlocks[b.Key()] = b
		}
	}

	slots := p.catalog.Slots()
	result := make([]domain.TimeSlot, 0, len(slots))

	for _, slot := range slots {
		ts := domain.TimeSlot{Time: slot, Status: domain.SlotAvailable}

		if wholeDay != nil {
			ts.Status = domain.SlotBlocked
			ts.BlockedBy = blockLabel(wholeDay)
			result = append(result, ts)
			continue
		}

		s := slot
		if b, ok := hourBlocks[domain.NewBlockKey(date, &s)]; ok {
			ts.Status = domain.SlotBlocked
			ts.BlockedBy = blockLabel(b)
			result = append(result, ts)
			continue
		}

		window := domain.NewInterval(slot, p.slotSpan)
		for _, r := range reservations {
			if r == nil || !r.IsActive() || !domain.SameDay(r.Date, date) {
				continue
			}
			if window.Overlaps(r.Interval(p.durations)) {
				id := r.ID
				ts.Status = domain.SlotOccupied
				ts.ReservationID = &id
				break
			}
		}

		result = append(result, ts)
	}

	return result
}

// blockLabel причина блокировки, либо автор, если причина не указана
func blockLabel(b *domain.BlockedPeriod) *string {
	if b.Reason != nil && *b.Reason != "" {
		reason := *b.Reason
		return &reason
	}
	createdBy := b.CreatedBy
	return &createdBy
}
