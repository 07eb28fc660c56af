package domain

import (
	"fmt"
	"sort"

	"github.com/m04kA/TourBookingService/pkg/types"
)

// TimeSlotCatalog каноническая сетка времён начала на рабочий день
type TimeSlotCatalog struct {
	opening types.TimeString
	closing types.TimeString
	step    int
	slots   []types.TimeString
}

// NewTimeSlotCatalog строит каталог. Если fixed не пуст, используется он (отсортированный,
// без дублей), иначе сетка генерируется от opening с шагом step, слот не выходит за closing
func NewTimeSlotCatalog(opening, closing types.TimeString, step int, fixed []types.TimeString) (*TimeSlotCatalog, error) {
	if err := opening.Validate(); err != nil {
		return nil, fmt.Errorf("%w: opening: %v", ErrInvalidInput, err)
	}
	if err := closing.Validate(); err != nil {
		return nil, fmt.Errorf("%w: closing: %v", ErrInvalidInput, err)
	}
	if !opening.IsBefore(closing) {
		return nil, fmt.Errorf("%w: closing %s is not after opening %s", ErrInvalidRange, closing, opening)
	}

	c := &TimeSlotCatalog{opening: opening, closing: closing, step: step}

	if len(fixed) > 0 {
		seen := make(map[types.TimeString]struct{}, len(fixed))
		for _, s := range fixed {
			if err := s.Validate(); err != nil {
				return nil, fmt.Errorf("%w: fixed slot: %v", ErrInvalidInput, err)
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			c.slots = append(c.slots, s)
		}
		sort.Slice(c.slots, func(i, j int) bool { return c.slots[i].IsBefore(c.slots[j]) })
		return c, nil
	}

	if step <= 0 {
		return nil, fmt.Errorf("%w: step must be positive", ErrInvalidInput)
	}

	for m := opening.Minutes(); m+step <= closing.Minutes(); m += step {
		slot, err := types.FromMinutes(m)
		if err != nil {
			return nil, err
		}
		c.slots = append(c.slots, slot)
	}

	return c, nil
}

// DefaultTimeSlotCatalog 09:00-18:00 каждые 90 минут
func DefaultTimeSlotCatalog() *TimeSlotCatalog {
	c, err := NewTimeSlotCatalog(
		types.MustTimeString(DefaultOpening),
		types.MustTimeString(DefaultClosing),
		DefaultSlotStepMinutes,
		nil,
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Slots упорядоченные времена начала (копия)
func (c *TimeSlotCatalog) Slots() []types.TimeString {
	out := make([]types.TimeString, len(c.slots))
	copy(out, c.slots)
	return out
}

// SlotsBetween слоты из [from, to)
func (c *TimeSlotCatalog) SlotsBetween(from, to types.TimeString) []types.TimeString {
	out := make([]types.TimeString, 0)
	for _, s := range c.slots {
		if !s.IsBefore(from) && s.IsBefore(to) {
			out = append(out, s)
		}
	}
	return out
}

// Contains true, если время есть в сетке
func (c *TimeSlotCatalog) Contains(t types.TimeString) bool {
	for _, s := range c.slots {
		if s == t {
			return true
		}
	}
	return false
}

func (c *TimeSlotCatalog) Opening() types.TimeString { return c.opening }
func (c *TimeSlotCatalog) Closing() types.TimeString { return c.closing }
