package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/TourBookingService/internal/domain"
	reservationRepo "github.com/m04kA/TourBookingService/internal/infra/storage/reservation"
	"github.com/m04kA/TourBookingService/internal/service/reservations/models"
)

// Service администрирование бронирований: просмотр, смена статуса, физическое удаление
type Service struct {
	reservationRepo ReservationRepository
	txManager       TransactionManager
	durations       *domain.DurationTable
	logger          Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	reservationRepo ReservationRepository,
	txManager TransactionManager,
	durations *domain.DurationTable,
	logger Logger,
) *Service {
	return &Service{
		reservationRepo: reservationRepo,
		txManager:       txManager,
		durations:       durations,
		logger:          logger,
	}
}

// GetByID получает бронирование по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.ReservationResponse, error) {
	s.logger.Info("GetByID: fetching reservation id=%d", id)

	res, err := s.getByID(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	return models.FromDomainReservation(res, s.durations), nil
}

// ListByDate все бронирования дня, включая отменённые
func (s *Service) ListByDate(ctx context.Context, date time.Time) (*models.ReservationListResponse, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", domain.ErrInvalidInput)
	}

	items, err := s.reservationRepo.ListByDate(ctx, date)
	if err != nil {
		s.logger.Error("ListByDate: repository error for %s: %v", date.Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: ListByDate - repository error: %v", domain.ErrStoreUnavailable, err)
	}

	s.logger.Info("ListByDate: fetched %d reservations for %s", len(items), date.Format(domain.DateFormat))
	return models.FromDomainReservationList(items, s.durations), nil
}

// UpdateStatus меняет статус бронирования.
// Возврат отменённого бронирования в работу снова проверяется на пересечение с активными
func (s *Service) UpdateStatus(ctx context.Context, id int64, req *models.UpdateStatusRequest) (*models.ReservationResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request is required", domain.ErrInvalidInput)
	}

	status, err := domain.ParseReservationStatus(req.Status)
	if err != nil {
		s.logger.Warn("UpdateStatus: invalid status=%q for reservation id=%d", req.Status, id)
		return nil, err
	}

	s.logger.Info("UpdateStatus: reservation id=%d -> %s", id, status)

	var updated *domain.Reservation

	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 1. Текущее состояние
		current, err := s.getByID(txCtx, "UpdateStatus", id)
		if err != nil {
			return err
		}

		// 2. Реактивация: интервал не должен пересекаться с активными бронированиями дня
		if !current.IsActive() && status != domain.StatusCancelled {
			if err := s.checkReactivation(txCtx, current); err != nil {
				return err
			}
		}

		// 3. Запись
		if err := s.reservationRepo.UpdateStatus(txCtx, id, status); err != nil {
			switch {
			case errors.Is(err, reservationRepo.ErrReservationNotFound):
				return domain.ErrReservationNotFound
			case errors.Is(err, reservationRepo.ErrDuplicate):
				return fmt.Errorf("%w: reservation #%d start time is already taken", domain.ErrSlotConflict, id)
			}
			s.logger.Error("UpdateStatus: repository error for reservation id=%d: %v", id, err)
			return fmt.Errorf("%w: UpdateStatus - repository error: %v", domain.ErrStoreUnavailable, err)
		}

		updated, err = s.getByID(txCtx, "UpdateStatus", id)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrReservationNotFound) ||
			errors.Is(err, domain.ErrSlotConflict) ||
			errors.Is(err, domain.ErrStoreUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: UpdateStatus - transaction: %v", domain.ErrStoreUnavailable, err)
	}

	s.logger.Info("UpdateStatus: reservation id=%d is now %s", id, updated.Status)
	return models.FromDomainReservation(updated, s.durations), nil
}

// Purge физически удаляет бронирование. Обычный путь отмены - статус cancelled
func (s *Service) Purge(ctx context.Context, id int64) error {
	s.logger.Info("Purge: deleting reservation id=%d", id)

	if err := s.reservationRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			s.logger.Warn("Purge: reservation id=%d not found", id)
			return domain.ErrReservationNotFound
		}
		s.logger.Error("Purge: repository error for reservation id=%d: %v", id, err)
		return fmt.Errorf("%w: Purge - repository error: %v", domain.ErrStoreUnavailable, err)
	}

	s.logger.Info("Purge: reservation id=%d deleted", id)
	return nil
}

func (s *Service) getByID(ctx context.Context, op string, id int64) (*domain.Reservation, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			s.logger.Warn("%s: reservation id=%d not found", op, id)
			return nil, domain.ErrReservationNotFound
		}
		s.logger.Error("%s: repository error for reservation id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", domain.ErrStoreUnavailable, op, err)
	}
	return res, nil
}

func (s *Service) checkReactivation(ctx context.Context, res *domain.Reservation) error {
	active, err := s.reservationRepo.ListNonCancelledByDate(ctx, res.Date)
	if err != nil {
		s.logger.Error("UpdateStatus: failed to load reservations for %s: %v", res.Date.Format(domain.DateFormat), err)
		return fmt.Errorf("%w: UpdateStatus - reservations: %v", domain.ErrStoreUnavailable, err)
	}

	interval := res.Interval(s.durations)
	for _, other := range active {
		if other.ID == res.ID {
			continue
		}
		if interval.Overlaps(other.Interval(s.durations)) {
			s.logger.Warn("UpdateStatus: reservation id=%d overlaps id=%d at %s", res.ID, other.ID, other.Time)
			return fmt.Errorf("%w: reservation #%d overlaps reservation #%d at %s",
				domain.ErrSlotConflict, res.ID, other.ID, other.Time)
		}
	}
	return nil
}
