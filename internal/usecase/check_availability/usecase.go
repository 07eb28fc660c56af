package check_availability

import (
	"context"
	"fmt"

	"github.com/m04kA/TourBookingService/internal/domain"
	"github.com/m04kA/TourBookingService/pkg/types"
)

const (
	msgAvailable        = "time slot is available"
	msgConflict         = "requested time overlaps an existing reservation"
	msgNoAlternative    = "no free time left on this day for the selected tour"
	msgBlocked          = "requested time is blocked by the operator"
	msgDayBlocked       = "this day is blocked by the operator"
	msgStoreUnavailable = "availability cannot be verified right now, please try again later"
)

// UseCase проверка доступности слота (fail closed при недоступности хранилища)
type UseCase struct {
	reservationRepo ReservationRepository
	blockRepo       BlockedPeriodRepository
	evaluator       *Evaluator
	metrics         MetricsRecorder
	logger          Logger
}

// NewUseCase создает новый экземпляр use case. metrics может быть nil
func NewUseCase(
	reservationRepo ReservationRepository,
	blockRepo BlockedPeriodRepository,
	evaluator *Evaluator,
	metrics MetricsRecorder,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		blockRepo:       blockRepo,
		evaluator:       evaluator,
		metrics:         metrics,
		logger:          logger,
	}
}

// Execute проверяет, можно ли забронировать тур на дату и время
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CheckAvailability: validation failed: %v", err)
		return nil, err
	}

	date := req.Date.Format(domain.DateFormat)
	uc.logger.Info("CheckAvailability: date=%s, time=%s, tour=%s, party=%d", date, req.Time, req.TourType, req.PartySize)

	// 2. Бронирования дня
	reservations, err := uc.reservationRepo.ListNonCancelledByDate(ctx, req.Date)
	if err != nil {
		uc.logger.Error("CheckAvailability: failed to load reservations for %s: %v", date, err)
		return uc.storeUnavailable(), nil
	}

	// 3. Блокировки дня
	blocks, err := uc.blockRepo.ListByDate(ctx, req.Date)
	if err != nil {
		uc.logger.Error("CheckAvailability: failed to load blocked periods for %s: %v", date, err)
		return uc.storeUnavailable(), nil
	}

	// 4. Проверка
	ev := uc.evaluator.Evaluate(req.Time, req.TourType, reservations, blocks)
	resp := buildResponse(ev)

	uc.observe(resp.Reason)
	uc.logger.Info("CheckAvailability: date=%s, time=%s, available=%t, conflicts=%d, alternatives=%v",
		date, req.Time, resp.IsAvailable, resp.ConflictingCount, resp.AlternativeTimes)

	return resp, nil
}

// GenerateAlternativeTimes полный список слотов каталога, подходящих для тура
func (uc *UseCase) GenerateAlternativeTimes(ctx context.Context, req *AlternativesRequest) (*AlternativesResponse, error) {
	if req == nil || req.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	date := req.Date.Format(domain.DateFormat)

	reservations, err := uc.reservationRepo.ListNonCancelledByDate(ctx, req.Date)
	if err != nil {
		uc.logger.Error("GenerateAlternativeTimes: failed to load reservations for %s: %v", date, err)
		return nil, fmt.Errorf("%w: GenerateAlternativeTimes - reservations: %v", domain.ErrStoreUnavailable, err)
	}

	blocks, err := uc.blockRepo.ListByDate(ctx, req.Date)
	if err != nil {
		uc.logger.Error("GenerateAlternativeTimes: failed to load blocked periods for %s: %v", date, err)
		return nil, fmt.Errorf("%w: GenerateAlternativeTimes - blocked periods: %v", domain.ErrStoreUnavailable, err)
	}

	times := uc.evaluator.GenerateAlternativeTimes(req.TourType, reservations, blocks, req.Exclude)

	uc.logger.Info("GenerateAlternativeTimes: date=%s, tour=%s, found=%d", date, req.TourType, len(times))
	return &AlternativesResponse{Date: req.Date, Times: times}, nil
}

func (uc *UseCase) storeUnavailable() *Response {
	uc.observe(ReasonStoreUnavailable)
	return &Response{
		IsAvailable:      false,
		MaxCapacity:      domain.MaxCapacity,
		AlternativeTimes: []types.TimeString{},
		Message:          msgStoreUnavailable,
		Reason:           ReasonStoreUnavailable,
	}
}

func (uc *UseCase) observe(reason Reason) {
	if uc.metrics == nil {
		return
	}
	result := string(reason)
	if reason == ReasonNone {
		result = "available"
	}
	uc.metrics.ObserveAvailabilityCheck(result)
}

// buildResponse переводит Evaluation в ответ с сообщением для пользователя
func buildResponse(ev Evaluation) *Response {
	resp := &Response{
		IsAvailable:      ev.IsAvailable,
		ConflictingCount: ev.ConflictingCount,
		MaxCapacity:      domain.MaxCapacity,
		AlternativeTimes: []types.TimeString{},
	}

	if ev.NextAvailable != nil {
		resp.AlternativeTimes = append(resp.AlternativeTimes, *ev.NextAvailable)
	}

	switch {
	case ev.IsAvailable:
		resp.Message = msgAvailable
	case ev.Blocked:
		resp.Reason = ReasonBlocked
		resp.Message = msgBlocked
		if ev.WholeDayBlocked {
			resp.Message = msgDayBlocked
		}
		if ev.BlockReason != nil && *ev.BlockReason != "" {
			resp.Message = fmt.Sprintf("%s: %s", resp.Message, *ev.BlockReason)
		}
	default:
		resp.Reason = ReasonSlotConflict
		resp.Message = msgConflict
	}

	if !ev.IsAvailable && !ev.WholeDayBlocked {
		if ev.NextAvailable != nil {
			resp.Message = fmt.Sprintf("%s; next available time is %s", resp.Message, *ev.NextAvailable)
		} else {
			resp.Message = fmt.Sprintf("%s; %s", resp.Message, msgNoAlternative)
		}
	}

	return resp
}
