package check_availability

import (
	"sort"

	"github.com/m04kA/TourBookingService/internal/domain"
	"github.com/m04kA/TourBookingService/pkg/types"
)

// Evaluation результат чистой проверки одного запроса
type Evaluation struct {
	IsAvailable      bool
	ConflictingCount int
	Blocked          bool
	WholeDayBlocked  bool
	BlockReason      *string
	NextAvailable    *types.TimeString
}

// Evaluator чистая логика проверки: без хранилища, без побочных эффектов.
// Используется и при проверке, и внутри транзакции создания бронирования
type Evaluator struct {
	durations *domain.DurationTable
	catalog   *domain.TimeSlotCatalog
}

func NewEvaluator(durations *domain.DurationTable, catalog *domain.TimeSlotCatalog) *Evaluator {
	return &Evaluator{durations: durations, catalog: catalog}
}

// Evaluate проверяет запрос против бронирований и блокировок одного дня.
// reservations могут содержать отменённые, они игнорируются
func (e *Evaluator) Evaluate(
	start types.TimeString,
	tourType string,
	reservations []*domain.Reservation,
	blocks []*domain.BlockedPeriod,
) Evaluation {
	duration := e.durations.DurationMinutes(tourType)
	candidate := domain.NewInterval(start, duration)
	intervals := e.occupiedIntervals(reservations)

	var ev Evaluation

	// 1. Пересечения с существующими бронированиями
	for _, iv := range intervals {
		if candidate.Overlaps(iv) {
			ev.ConflictingCount++
		}
	}

	// 2. Блокировки администратора
	if block := blockingPeriod(candidate, blocks); block != nil {
		ev.Blocked = true
		ev.WholeDayBlocked = block.IsWholeDay()
		ev.BlockReason = block.Reason
	}

	ev.IsAvailable = ev.ConflictingCount < domain.MaxCapacity && !ev.Blocked
	if ev.IsAvailable || ev.WholeDayBlocked {
		return ev
	}

	// 3. Ищем ближайшее свободное время
	ev.NextAvailable = e.findNextAvailableTime(start, duration, intervals, blocks)
	return ev
}

// GenerateAlternativeTimes все слоты каталога, куда помещается тур данного типа
func (e *Evaluator) GenerateAlternativeTimes(
	tourType string,
	reservations []*domain.Reservation,
	blocks []*domain.BlockedPeriod,
	exclude *types.TimeString,
) []types.TimeString {
	duration := e.durations.DurationMinutes(tourType)
	intervals := e.occupiedIntervals(reservations)

	out := make([]types.TimeString, 0)
	for _, slot := range e.catalog.Slots() {
		if exclude != nil && slot == *exclude {
			continue
		}
		if e.fits(slot.Minutes(), duration, intervals, blocks) {
			out = append(out, slot)
		}
	}
	return out
}

// findNextAvailableTime ищет первый момент >= requested, с которого тур помещается:
// перед первым бронированием, между двумя соседними или после последнего до закрытия.
// Кандидаты: само запрошенное время, концы занятых интервалов и слоты каталога после requested
// (последние нужны, когда ближайший свободный момент совпадает с блокировкой часа)
func (e *Evaluator) findNextAvailableTime(
	requested types.TimeString,
	duration int,
	intervals []domain.Interval,
	blocks []*domain.BlockedPeriod,
) *types.TimeString {
	from := requested.Minutes()

	candidates := []int{from}
	for _, iv := range intervals {
		if iv.End > from {
			candidates = append(candidates, iv.End)
		}
	}
	for _, slot := range e.catalog.Slots() {
		if m := slot.Minutes(); m > from {
			candidates = append(candidates, m)
		}
	}
	sort.Ints(candidates)

	for _, c := range candidates {
		if !e.fits(c, duration, intervals, blocks) {
			continue
		}
		ts, err := types.FromMinutes(c)
		if err != nil {
			return nil
		}
		return &ts
	}
	return nil
}

// fits тур помещается с минуты start: не выходит за закрытие, ни с чем не пересекается
// и не проходит через заблокированный час
func (e *Evaluator) fits(start, duration int, intervals []domain.Interval, blocks []*domain.BlockedPeriod) bool {
	if start+duration > e.catalog.Closing().Minutes() {
		return false
	}

	candidate := domain.Interval{Start: start, End: start + duration}
	for _, iv := range intervals {
		if candidate.Overlaps(iv) {
			return false
		}
	}

	return blockingPeriod(candidate, blocks) == nil
}

// occupiedIntervals интервалы неотменённых бронирований, отсортированные по началу
func (e *Evaluator) occupiedIntervals(reservations []*domain.Reservation) []domain.Interval {
	intervals := make([]domain.Interval, 0, len(reservations))
	for _, r := range reservations {
		if r == nil || !r.IsActive() || r.Time.Minutes() < 0 {
			continue
		}
		intervals = append(intervals, r.Interval(e.durations))
	}
	domain.SortIntervals(intervals)
	return intervals
}

// blockingPeriod блокировка, мешающая интервалу; блокировка на весь день имеет приоритет над блокировкой часа
func blockingPeriod(iv domain.Interval, blocks []*domain.BlockedPeriod) *domain.BlockedPeriod {
	var hour *domain.BlockedPeriod
	for _, b := range blocks {
		if b == nil || !b.Blocks(iv) {
			continue
		}
		if b.IsWholeDay() {
			return b
		}
		if hour == nil {
			hour = b
		}
	}
	return hour
}
