package project_day

import (
	"context"
	"fmt"

	"github.com/m04kA/TourBookingService/internal/domain"
)

// UseCase календарь дня для отрисовки
type UseCase struct {
	reservationRepo ReservationRepository
	blockRepo       BlockedPeriodRepository
	conductor       ConductorStatusReader
	projector       *Projector
	logger          Logger
}

// NewUseCase создает новый экземпляр use case. conductor может быть nil
func NewUseCase(
	reservationRepo ReservationRepository,
	blockRepo BlockedPeriodRepository,
	conductor ConductorStatusReader,
	projector *Projector,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		blockRepo:       blockRepo,
		conductor:       conductor,
		projector:       projector,
		logger:          logger,
	}
}

// Execute загружает бронирования и блокировки дня и строит сетку слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация
	if req == nil || req.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	date := req.Date.Format(domain.DateFormat)
	uc.logger.Info("ProjectDay: date=%s", date)

	// 2. Бронирования дня
	reservations, err := uc.reservationRepo.ListNonCancelledByDate(ctx, req.Date)
	if err != nil {
		uc.logger.Error("ProjectDay: failed to load reservations for %s: %v", date, err)
		return nil, fmt.Errorf("%w: ProjectDay - reservations: %v", domain.ErrStoreUnavailable, err)
	}

	// 3. Блокировки дня
	blocks, err := uc.blockRepo.ListByDate(ctx, req.Date)
	if err != nil {
		uc.logger.Error("ProjectDay: failed to load blocked periods for %s: %v", date, err)
		return nil, fmt.Errorf("%w: ProjectDay - blocked periods: %v", domain.ErrStoreUnavailable, err)
	}

	// 4. Проекция
	resp := &Response{
		Date:  req.Date,
		Slots: uc.projector.ProjectDay(req.Date, reservations, blocks),
	}

	// 5. Аннотация состоянием кондуктора: ошибка трекера не ломает календарь
	if uc.conductor != nil {
		status, err := uc.conductor.ActiveStatus(ctx)
		if err != nil {
			uc.logger.Warn("ProjectDay: conductor status unavailable: %v", err)
		} else {
			resp.Conductor = status
		}
	}

	uc.logger.Info("ProjectDay: date=%s, slots=%d, reservations=%d, blocks=%d",
		date, len(resp.Slots), len(reservations), len(blocks))
	return resp, nil
}
