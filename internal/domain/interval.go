package domain

import (
	"sort"

	"github.com/m04kA/TourBookingService/pkg/types"
)

// Interval полуоткрытый интервал [Start, End) в минутах от полуночи
type Interval struct {
	Start int
	End   int
}

// NewInterval интервал, занимаемый бронированием длительностью durationMinutes.
// End может выходить за пределы суток, это не ошибка
func NewInterval(start types.TimeString, durationMinutes int) Interval {
	s := start.Minutes()
	return Interval{Start: s, End: s + durationMinutes}
}

// Overlaps сравнивает полуоткрытые интервалы. Касающиеся интервалы (endA == startB) не пересекаются
func Overlaps(startA, endA, startB, endB int) bool {
	return startA < endB && startB < endA
}

func (i Interval) Overlaps(other Interval) bool {
	return Overlaps(i.Start, i.End, other.Start, other.End)
}

// Contains true, если минута попадает в [Start, End)
func (i Interval) Contains(minute int) bool {
	return i.Start <= minute && minute < i.End
}

// Duration длина интервала в минутах
func (i Interval) Duration() int {
	return i.End - i.Start
}

// SortIntervals сортирует интервалы по началу, при равенстве по концу
func SortIntervals(intervals []Interval) {
	sort.Slice(intervals, func(a, b int) bool {
		if intervals[a].Start == intervals[b].Start {
			return intervals[a].End < intervals[b].End
		}
		return intervals[a].Start < intervals[b].Start
	})
}
