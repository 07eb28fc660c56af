package blocked_periods

import (
	"context"
	"time"

	"github.com/m04kA/TourBookingService/internal/domain"
	"github.com/m04kA/TourBookingService/internal/service/blocks/models"
	"github.com/m04kA/TourBookingService/pkg/types"
)

type BlocksService interface {
	Create(ctx context.Context, req *models.CreateRequest) (*domain.BlockedPeriod, error)
	BlockRange(ctx context.Context, req *models.BlockRangeRequest) ([]*domain.BlockedPeriod, error)
	DeleteByDate(ctx context.Context, date time.Time, startTime *types.TimeString) error
	ListAll(ctx context.Context) ([]*domain.BlockedPeriod, error)
	ListByDate(ctx context.Context, date time.Time) ([]*domain.BlockedPeriod, error)
	CleanDuplicates(ctx context.Context) (int, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
