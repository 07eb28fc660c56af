package models

import (
	"time"

	"github.com/m04kA/TourBookingService/pkg/types"
)

// CreateRequest запрос на блокировку дня (StartTime == nil) или часа
type CreateRequest struct {
	Date      time.Time
	StartTime *types.TimeString
	Reason    *string
	CreatedBy string
}

// BlockRangeRequest блокировка всех слотов каталога в [From, To).
// From/To приходят строками, чтобы некорректный ввод отклонялся до обращения к хранилищу
type BlockRangeRequest struct {
	Date      time.Time
	From      string // "10:00"
	To        string // "14:00"
	Reason    *string
	CreatedBy string
}
