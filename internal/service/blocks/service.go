package blocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/TourBookingService/internal/domain"
	blockRepo "github.com/m04kA/TourBookingService/internal/infra/storage/blocked_period"
	"github.com/m04kA/TourBookingService/internal/service/blocks/models"
	"github.com/m04kA/TourBookingService/pkg/types"
)

const (
	removedByUnblock   = "unblock"
	removedAsDuplicate = "duplicate"
)

// Service блокировки администратора: идемпотентное создание, снятие с защитой
// подтверждённых бронирований, очистка дублей
type Service struct {
	blockRepo       BlockedPeriodRepository
	reservationRepo ReservationRepository
	txManager       TransactionManager
	durations       *domain.DurationTable
	catalog         *domain.TimeSlotCatalog
	metrics         MetricsRecorder
	logger          Logger
}

// NewService создает новый экземпляр сервиса блокировок. metrics может быть nil
func NewService(
	blockRepo BlockedPeriodRepository,
	reservationRepo ReservationRepository,
	txManager TransactionManager,
	durations *domain.DurationTable,
	catalog *domain.TimeSlotCatalog,
	metrics MetricsRecorder,
	logger Logger,
) *Service {
	return &Service{
		blockRepo:       blockRepo,
		reservationRepo: reservationRepo,
		txManager:       txManager,
		durations:       durations,
		catalog:         catalog,
		metrics:         metrics,
		logger:          logger,
	}
}

// Create блокирует день или час. Если такая блокировка уже есть, возвращает её без вставки
func (s *Service) Create(ctx context.Context, req *models.CreateRequest) (*domain.BlockedPeriod, error) {
	if err := validateCreate(req); err != nil {
		s.logger.Warn("CreateBlock: validation failed: %v", err)
		return nil, err
	}

	key := domain.NewBlockKey(req.Date, req.StartTime)
	s.logger.Info("CreateBlock: date=%s, start=%q, created_by=%s", key.Date, key.StartTime, req.CreatedBy)

	// 1. Проверяем существующую блокировку с тем же ключом
	existing, err := s.findByKey(ctx, req.Date, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Info("CreateBlock: %v, returning id=%d (date=%s, start=%q)", domain.ErrDuplicateBlock, existing.ID, key.Date, key.StartTime)
		return existing, nil
	}

	// 2. Вставка
	created, err := s.blockRepo.Create(ctx, &domain.BlockedPeriod{
		Date:      req.Date,
		StartTime: req.StartTime,
		Reason:    req.Reason,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		if !errors.Is(err, blockRepo.ErrDuplicate) {
			s.logger.Error("CreateBlock: repository error: %v", err)
			return nil, fmt.Errorf("%w: CreateBlock - insert: %v", domain.ErrStoreUnavailable, err)
		}

		// Параллельный запрос успел раньше: уникальный индекс сработал, возвращаем его блокировку
		existing, err := s.findByKey(ctx, req.Date, key)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("%w: CreateBlock - duplicate reported but block not found", domain.ErrStoreUnavailable)
		}
		s.logger.Info("CreateBlock: %v after concurrent insert, returning id=%d", domain.ErrDuplicateBlock, existing.ID)
		return existing, nil
	}

	s.logger.Info("CreateBlock: block id=%d created", created.ID)
	return created, nil
}

// BlockRange блокирует каждый слот каталога в [From, To) одной транзакцией:
// при ошибке ни одна блокировка диапазона не остаётся в хранилище.
// Уже существующие блокировки слотов возвращаются как есть
func (s *Service) BlockRange(ctx context.Context, req *models.BlockRangeRequest) ([]*domain.BlockedPeriod, error) {
	// 1. Валидация диапазона до любых обращений к хранилищу
	slots, err := s.rangeSlots(req)
	if err != nil {
		s.logger.Warn("BlockRange: %v", err)
		return nil, err
	}

	day := req.Date.Format(domain.DateFormat)
	s.logger.Info("BlockRange: date=%s, from=%s, to=%s, slots=%d", day, req.From, req.To, len(slots))

	var result []*domain.BlockedPeriod

	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		result = make([]*domain.BlockedPeriod, 0, len(slots))

		existing, err := s.blockRepo.ListByDate(txCtx, req.Date)
		if err != nil {
			s.logger.Error("BlockRange: failed to load blocks for %s: %v", day, err)
			return fmt.Errorf("%w: BlockRange - list: %v", domain.ErrStoreUnavailable, err)
		}

		// 2. Блокировка на каждый слот, существующие переиспользуются
		for _, slot := range slots {
			start := slot
			key := domain.NewBlockKey(req.Date, &start)

			if block := domain.FindBlock(existing, key); block != nil {
				s.logger.Info("BlockRange: %v, reusing id=%d (%s)", domain.ErrDuplicateBlock, block.ID, describeKey(key))
				result = append(result, block)
				continue
			}

			block, created, err := s.blockRepo.CreateIfAbsent(txCtx, &domain.BlockedPeriod{
				Date:      req.Date,
				StartTime: &start,
				Reason:    req.Reason,
				CreatedBy: req.CreatedBy,
			})
			if err != nil {
				s.logger.Error("BlockRange: failed to block %s: %v", describeKey(key), err)
				return fmt.Errorf("%w: BlockRange - insert %s: %v", domain.ErrStoreUnavailable, describeKey(key), err)
			}

			if !created {
				// Параллельная вставка успела раньше: перечитываем день
				if existing, err = s.blockRepo.ListByDate(txCtx, req.Date); err != nil {
					return fmt.Errorf("%w: BlockRange - reload: %v", domain.ErrStoreUnavailable, err)
				}
				if block = domain.FindBlock(existing, key); block == nil {
					return fmt.Errorf("%w: BlockRange - conflict reported but %s not found", domain.ErrStoreUnavailable, describeKey(key))
				}
			}
			result = append(result, block)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: BlockRange - transaction: %v", domain.ErrStoreUnavailable, err)
	}

	s.logger.Info("BlockRange: %d slots blocked on %s", len(result), day)
	return result, nil
}

// DeleteByDate снимает блокировку дня (startTime == nil) или конкретного часа.
// Отказывает, если под блокировкой есть подтверждённое бронирование
func (s *Service) DeleteByDate(ctx context.Context, date time.Time, startTime *types.TimeString) error {
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", domain.ErrInvalidInput)
	}
	if startTime != nil {
		if err := startTime.Validate(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	}

	key := domain.NewBlockKey(date, startTime)
	s.logger.Info("DeleteBlock: date=%s, start=%q", key.Date, key.StartTime)

	var removed int64

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 1. Подтверждённые бронирования под блокировкой
		reservations, err := s.reservationRepo.ListNonCancelledByDate(txCtx, date)
		if err != nil {
			s.logger.Error("DeleteBlock: failed to load reservations: %v", err)
			return fmt.Errorf("%w: DeleteBlock - reservations: %v", domain.ErrStoreUnavailable, err)
		}

		if r := s.confirmedUnder(reservations, startTime); r != nil {
			s.logger.Warn("DeleteBlock: rejected, confirmed reservation id=%d at %s %s", r.ID, key.Date, r.Time)
			return fmt.Errorf("%w: cannot unblock %s: confirmed reservation #%d at %s (%s)",
				domain.ErrBlockedByReservation, describeKey(key), r.ID, r.Time, r.TourType)
		}

		// 2. Удаление строго по ключу
		removed, err = s.blockRepo.DeleteWhere(txCtx, date, startTime)
		if err != nil {
			s.logger.Error("DeleteBlock: repository error: %v", err)
			return fmt.Errorf("%w: DeleteBlock - delete: %v", domain.ErrStoreUnavailable, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrBlockedByReservation) || errors.Is(err, domain.ErrStoreUnavailable) {
			return err
		}
		return fmt.Errorf("%w: DeleteBlock - transaction: %v", domain.ErrStoreUnavailable, err)
	}

	s.observeRemoved(removedByUnblock, int(removed))
	s.logger.Info("DeleteBlock: removed=%d for %s", removed, describeKey(key))
	return nil
}

// ListAll все блокировки
func (s *Service) ListAll(ctx context.Context) ([]*domain.BlockedPeriod, error) {
	blocks, err := s.blockRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error("ListBlocks: repository error: %v", err)
		return nil, fmt.Errorf("%w: ListBlocks - repository error: %v", domain.ErrStoreUnavailable, err)
	}
	return blocks, nil
}

// ListByDate блокировки конкретного дня
func (s *Service) ListByDate(ctx context.Context, date time.Time) ([]*domain.BlockedPeriod, error) {
	blocks, err := s.blockRepo.ListByDate(ctx, date)
	if err != nil {
		s.logger.Error("ListBlocksByDate: repository error for %s: %v", date.Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: ListBlocksByDate - repository error: %v", domain.ErrStoreUnavailable, err)
	}
	return blocks, nil
}

// CleanDuplicates оставляет по одной (самой свежей) блокировке на ключ (date, startTime),
// остальные удаляет. Возвращает количество удалённых
func (s *Service) CleanDuplicates(ctx context.Context) (int, error) {
	s.logger.Info("CleanDuplicates: scanning blocked periods")

	all, err := s.blockRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error("CleanDuplicates: repository error: %v", err)
		return 0, fmt.Errorf("%w: CleanDuplicates - list: %v", domain.ErrStoreUnavailable, err)
	}

	ids := duplicateIDs(all)
	if len(ids) == 0 {
		s.logger.Info("CleanDuplicates: no duplicates among %d blocks", len(all))
		return 0, nil
	}

	removed, err := s.blockRepo.DeleteByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("CleanDuplicates: failed to delete %d duplicates: %v", len(ids), err)
		return 0, fmt.Errorf("%w: CleanDuplicates - delete: %v", domain.ErrStoreUnavailable, err)
	}

	s.observeRemoved(removedAsDuplicate, int(removed))
	s.logger.Info("CleanDuplicates: removed=%d of %d blocks", removed, len(all))
	return int(removed), nil
}

func (s *Service) findByKey(ctx context.Context, date time.Time, key domain.BlockKey) (*domain.BlockedPeriod, error) {
	blocks, err := s.blockRepo.ListByDate(ctx, date)
	if err != nil {
		s.logger.Error("CreateBlock: failed to load blocks for %s: %v", key.Date, err)
		return nil, fmt.Errorf("%w: CreateBlock - list: %v", domain.ErrStoreUnavailable, err)
	}
	return domain.FindBlock(blocks, key), nil
}

// confirmedUnder подтверждённое бронирование, которое откроется при снятии блокировки:
// для дня - любое, для часа - то, которое задевает этот час по тому же правилу, что и проверка бронирования
func (s *Service) confirmedUnder(reservations []*domain.Reservation, startTime *types.TimeString) *domain.Reservation {
	for _, r := range reservations {
		if !r.IsConfirmed() {
			continue
		}
		if startTime == nil {
			return r
		}
		if domain.HourBlockHits(r.Interval(s.durations), *startTime) {
			return r
		}
	}
	return nil
}

func (s *Service) rangeSlots(req *models.BlockRangeRequest) ([]types.TimeString, error) {
	if req == nil || req.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", domain.ErrInvalidRange)
	}

	from, err := types.NewTimeStringFromString(req.From)
	if err != nil {
		return nil, fmt.Errorf("%w: start hour: %v", domain.ErrInvalidRange, err)
	}
	to, err := types.NewTimeStringFromString(req.To)
	if err != nil {
		return nil, fmt.Errorf("%w: end hour: %v", domain.ErrInvalidRange, err)
	}
	if !from.IsBefore(to) {
		return nil, fmt.Errorf("%w: end %s is not after start %s", domain.ErrInvalidRange, to, from)
	}

	if req.Reason != nil && len(*req.Reason) > domain.MaxReasonLength {
		return nil, fmt.Errorf("%w: reason exceeds %d characters", domain.ErrInvalidInput, domain.MaxReasonLength)
	}

	slots := s.catalog.SlotsBetween(from, to)
	if len(slots) == 0 {
		return nil, fmt.Errorf("%w: no bookable slots between %s and %s", domain.ErrInvalidRange, from, to)
	}
	return slots, nil
}

func (s *Service) observeRemoved(reason string, count int) {
	if s.metrics == nil || count == 0 {
		return
	}
	s.metrics.ObserveBlocksRemoved(reason, count)
}

// duplicateIDs для каждой группы с одинаковым ключом оставляет самую свежую
// блокировку (при равном created_at - с большим ID), остальные ID возвращает
func duplicateIDs(blocks []*domain.BlockedPeriod) []int64 {
	groups := make(map[domain.BlockKey][]*domain.BlockedPeriod)
	for _, b := range blocks {
		groups[b.Key()] = append(groups[b.Key()], b)
	}

	ids := make([]int64, 0)
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			if group[i].CreatedAt.Equal(group[j].CreatedAt) {
				return group[i].ID > group[j].ID
			}
			return group[i].CreatedAt.After(group[j].CreatedAt)
		})
		for _, b := range group[1:] {
			ids = append(ids, b.ID)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func describeKey(key domain.BlockKey) string {
	if key.StartTime.IsZero() {
		return key.Date
	}
	return fmt.Sprintf("%s %s", key.Date, key.StartTime)
}
