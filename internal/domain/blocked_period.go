package domain

import (
	"time"

	"github.com/m04kA/TourBookingService/pkg/types"
)

// BlockedPeriod блокировка администратора: весь день (StartTime == nil) или конкретный час
type BlockedPeriod struct {
	ID        int64
	Date      time.Time
	StartTime *types.TimeString
	Reason    *string
	CreatedBy string
	CreatedAt time.Time
}

// BlockKey ключ группировки (date, startTime). StartTime пустой для блокировки на весь день
type BlockKey struct {
	Date      string
	StartTime types.TimeString
}

// IsWholeDay true для блокировки на весь день
func (b *BlockedPeriod) IsWholeDay() bool {
	return b.StartTime == nil
}

// Key ключ уникальности блокировки
func (b *BlockedPeriod) Key() BlockKey {
	return NewBlockKey(b.Date, b.StartTime)
}

// Blocks true, если блокировка мешает интервалу iv: блокировка дня мешает всему,
// блокировка часа мешает интервалу, внутри которого лежит её начало
func (b *BlockedPeriod) Blocks(iv Interval) bool {
	if b.IsWholeDay() {
		return true
	}
	return HourBlockHits(iv, *b.StartTime)
}

// HourBlockHits единое правило для проверки бронирования и снятия блокировки часа:
// тур [Start, End) задевает блокировку часа start, если start попадает в его интервал
func HourBlockHits(iv Interval, start types.TimeString) bool {
	return iv.Contains(start.Minutes())
}

// NewBlockKey ключ для даты и необязательного часа
func NewBlockKey(date time.Time, startTime *types.TimeString) BlockKey {
	key := BlockKey{Date: date.Format(DateFormat)}
	if startTime != nil {
		key.StartTime = *startTime
	}
	return key
}

// FindBlock ищет блокировку с указанным ключом
func FindBlock(blocks []*BlockedPeriod, key BlockKey) *BlockedPeriod {
	for _, b := range blocks {
		if b.Key() == key {
			return b
		}
	}
	return nil
}

// BlocksForDate блокировки на конкретную дату
func BlocksForDate(blocks []*BlockedPeriod, date time.Time) []*BlockedPeriod {
	out := make([]*BlockedPeriod, 0)
	for _, b := range blocks {
		if SameDay(b.Date, date) {
			out = append(out, b)
		}
	}
	return out
}
