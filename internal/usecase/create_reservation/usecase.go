package create_reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/TourBookingService/internal/domain"
	reservationRepo "github.com/m04kA/TourBookingService/internal/infra/storage/reservation"
	"github.com/m04kA/TourBookingService/internal/usecase/check_availability"
	"github.com/m04kA/TourBookingService/pkg/types"
)

const (
	msgConflict = "requested time overlaps an existing reservation"
	msgBlocked  = "requested time is blocked by the operator"
	msgRaced    = "this time was just booked by someone else"
)

// UseCase use case для создания бронирования
type UseCase struct {
	reservationRepo ReservationRepository
	blockRepo       BlockedPeriodRepository
	evaluator       *check_availability.Evaluator
	durations       *domain.DurationTable
	txManager       TransactionManager
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	blockRepo BlockedPeriodRepository,
	evaluator *check_availability.Evaluator,
	durations *domain.DurationTable,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		blockRepo:       blockRepo,
		evaluator:       evaluator,
		durations:       durations,
		txManager:       txManager,
		logger:          logger,
	}
}

// Execute выполняет use case создания бронирования
// Проверка и вставка идут в одной сериализуемой транзакции; уникальный индекс
// (booking_date, start_time) закрывает гонку за одно и то же время
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateReservation: date=%s, time=%s, tour=%s, party=%d, created_by=%s",
		req.Date, req.Time, req.TourType, req.PartySize, req.CreatedBy)

	// 1. Валидация и построение бронирования
	reservation, err := domain.NewReservation(domain.ReservationParams{
		Date:          req.Date,
		Time:          req.Time,
		TourType:      req.TourType,
		PartySize:     req.PartySize,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
		ManualPayment: req.ManualPayment,
		CreatedBy:     req.CreatedBy,
	}, uc.durations)
	if err != nil {
		uc.logger.Warn("CreateReservation: validation failed: %v", err)
		return nil, err
	}

	var (
		created *domain.Reservation
		raced   bool
	)

	// 2. Выполняем операции с БД в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 2.1. Повторная отправка той же заявки
		duplicate, err := uc.reservationRepo.ExistsDuplicate(txCtx, reservation.Date, reservation.Time, reservation.CustomerEmail)
		if err != nil {
			uc.logger.Error("CreateReservation: duplicate check failed: %v", err)
			return fmt.Errorf("%w: CreateReservation - duplicate check: %v", domain.ErrStoreUnavailable, err)
		}
		if duplicate {
			uc.logger.Warn("CreateReservation: duplicate submission date=%s, time=%s, email=%s",
				req.Date, reservation.Time, reservation.CustomerEmail)
			return domain.ErrDuplicateSubmission
		}

		// 2.2. Бронирования дня (FOR UPDATE внутри транзакции)
		reservations, err := uc.reservationRepo.ListNonCancelledByDate(txCtx, reservation.Date)
		if err != nil {
			uc.logger.Error("CreateReservation: failed to load reservations: %v", err)
			return fmt.Errorf("%w: CreateReservation - reservations: %v", domain.ErrStoreUnavailable, err)
		}

		// 2.3. Блокировки дня
		blocks, err := uc.blockRepo.ListByDate(txCtx, reservation.Date)
		if err != nil {
			uc.logger.Error("CreateReservation: failed to load blocked periods: %v", err)
			return fmt.Errorf("%w: CreateReservation - blocked periods: %v", domain.ErrStoreUnavailable, err)
		}

		// 2.4. Проверка пересечений и блокировок
		ev := uc.evaluator.Evaluate(reservation.Time, reservation.TourType, reservations, blocks)
		if !ev.IsAvailable {
			conflict := &SlotConflictError{Message: msgConflict, AlternativeTimes: []types.TimeString{}}
			if ev.Blocked {
				conflict.Message = msgBlocked
			}
			if ev.NextAvailable != nil {
				conflict.AlternativeTimes = append(conflict.AlternativeTimes, *ev.NextAvailable)
			}
			uc.logger.Warn("CreateReservation: slot unavailable date=%s, time=%s, conflicts=%d, blocked=%t",
				req.Date, reservation.Time, ev.ConflictingCount, ev.Blocked)
			return conflict
		}

		// 2.5. Вставка
		created, err = uc.reservationRepo.Create(txCtx, reservation)
		if err != nil {
			if errors.Is(err, reservationRepo.ErrDuplicate) {
				uc.logger.Warn("CreateReservation: unique violation date=%s, time=%s", req.Date, reservation.Time)
				raced = true
				return &SlotConflictError{Message: msgRaced, AlternativeTimes: []types.TimeString{}}
			}
			uc.logger.Error("CreateReservation: failed to insert reservation: %v", err)
			return fmt.Errorf("%w: CreateReservation - insert: %v", domain.ErrStoreUnavailable, err)
		}

		return nil
	})

	if err != nil {
		var conflict *SlotConflictError
		if raced && errors.As(err, &conflict) {
			// Транзакция откатилась; предложение считаем по дню уже с выигравшим бронированием
			conflict.AlternativeTimes = uc.suggestAfterRace(ctx, reservation)
			return nil, conflict
		}
		if errors.Is(err, domain.ErrSlotConflict) || errors.Is(err, domain.ErrDuplicateSubmission) ||
			errors.Is(err, domain.ErrStoreUnavailable) {
			return nil, err
		}
		// Ошибки begin/commit (в т.ч. serialization failure) считаем недоступностью хранилища
		uc.logger.Error("CreateReservation: transaction failed: %v", err)
		return nil, fmt.Errorf("%w: CreateReservation - transaction: %v", domain.ErrStoreUnavailable, err)
	}

	uc.logger.Info("CreateReservation: reservation id=%d created for %s %s", created.ID, req.Date, created.Time)

	return &Response{
		ID:              created.ID,
		Date:            created.Date,
		Time:            created.Time,
		TourType:        created.TourType,
		DurationMinutes: uc.durations.DurationMinutes(created.TourType),
		PartySize:       created.PartySize,
		Status:          string(created.Status),
		CustomerName:    created.CustomerName,
		CustomerEmail:   created.CustomerEmail,
		CustomerPhone:   created.CustomerPhone,
		Notes:           created.Notes,
		ManualPayment:   created.ManualPayment,
		CreatedAt:       created.CreatedAt,
		UpdatedAt:       created.UpdatedAt,
	}, nil
}

// suggestAfterRace ближайшее свободное время после проигранной гонки за слот.
// Читает день вне транзакции; при сбое хранилища возвращает пустой список
func (uc *UseCase) suggestAfterRace(ctx context.Context, reservation *domain.Reservation) []types.TimeString {
	times := []types.TimeString{}
	date := reservation.Date.Format(domain.DateFormat)

	reservations, err := uc.reservationRepo.ListNonCancelledByDate(ctx, reservation.Date)
	if err != nil {
		uc.logger.Warn("CreateReservation: failed to reload reservations for %s after unique violation: %v", date, err)
		return times
	}
	blocks, err := uc.blockRepo.ListByDate(ctx, reservation.Date)
	if err != nil {
		uc.logger.Warn("CreateReservation: failed to reload blocked periods for %s after unique violation: %v", date, err)
		return times
	}

	ev := uc.evaluator.Evaluate(reservation.Time, reservation.TourType, reservations, blocks)
	switch {
	case ev.IsAvailable:
		// Выигравшее бронирование уже отменено, время снова свободно
		times = append(times, reservation.Time)
	case ev.NextAvailable != nil:
		times = append(times, *ev.NextAvailable)
	}
	return times
}
