package blocked_period

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/TourBookingService/internal/domain"
	"github.com/m04kA/TourBookingService/pkg/dbmetrics"
	"github.com/m04kA/TourBookingService/pkg/pgerrors"
	"github.com/m04kA/TourBookingService/pkg/psqlbuilder"
	"github.com/m04kA/TourBookingService/pkg/types"
)

const table = "blocked_periods"

var columns = []string{"id", "block_date", "start_time", "reason", "created_by", "created_at"}

// Repository репозиторий блокировок администратора
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория блокировок
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create вставляет блокировку. Повтор ключа (block_date, start_time) даёт ErrDuplicate
func (r *Repository) Create(ctx context.Context, block *domain.BlockedPeriod) (*domain.BlockedPeriod, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns("block_date", "start_time", "reason", "created_by").
		Values(block.Date.Format(domain.DateFormat), block.StartTime, block.Reason, block.CreatedBy).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&block.ID, &block.CreatedAt); err != nil {
		if pgerrors.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: Create - date=%s", ErrDuplicate, block.Date.Format(domain.DateFormat))
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return block, nil
}

// CreateIfAbsent вставляет блокировку, если ключа (block_date, start_time) ещё нет.
// Не нарушает уникальный индекс, поэтому годится внутри транзакции; при конфликте возвращает false
func (r *Repository) CreateIfAbsent(ctx context.Context, block *domain.BlockedPeriod) (*domain.BlockedPeriod, bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns("block_date", "start_time", "reason", "created_by").
		Values(block.Date.Format(domain.DateFormat), block.StartTime, block.Reason, block.CreatedBy).
		Suffix("ON CONFLICT DO NOTHING RETURNING id, created_at").
		ToSql()

	if err != nil {
		return nil, false, fmt.Errorf("%w: CreateIfAbsent - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&block.ID, &block.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: CreateIfAbsent - execute insert: %v", ErrExecQuery, err)
	}

	return block, true, nil
}

// ListAll все блокировки, по дате и времени создания
func (r *Repository) ListAll(ctx context.Context) ([]*domain.BlockedPeriod, error) {
	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		OrderBy("block_date ASC", "start_time ASC NULLS FIRST", "created_at ASC", "id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListAll - build select query: %v", ErrBuildQuery, err)
	}

	return r.query(ctx, "ListAll", query, args)
}

// ListByDate блокировки одного дня
func (r *Repository) ListByDate(ctx context.Context, date time.Time) ([]*domain.BlockedPeriod, error) {
	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"block_date": date.Format(domain.DateFormat)}).
		OrderBy("start_time ASC NULLS FIRST", "id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListByDate - build select query: %v", ErrBuildQuery, err)
	}

	return r.query(ctx, "ListByDate", query, args)
}

// DeleteWhere удаляет блокировку дня (startTime == nil) или конкретного часа, без перекрёстного удаления
func (r *Repository) DeleteWhere(ctx context.Context, date time.Time, startTime *types.TimeString) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	deleteBuilder := psqlbuilder.Delete(table).
		Where(squirrel.Eq{"block_date": date.Format(domain.DateFormat)})

	if startTime == nil {
		deleteBuilder = deleteBuilder.Where(squirrel.Eq{"start_time": nil})
	} else {
		deleteBuilder = deleteBuilder.Where(squirrel.Eq{"start_time": *startTime})
	}

	query, args, err := deleteBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteWhere - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteWhere - execute delete: %v", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteWhere - rows affected: %v", ErrExecQuery, err)
	}

	return affected, nil
}

// DeleteByIDs удаляет блокировки по списку ID (очистка дублей)
func (r *Repository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete(table).
		Where(squirrel.Eq{"id": ids}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: DeleteByIDs - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteByIDs - execute delete: %v", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteByIDs - rows affected: %v", ErrExecQuery, err)
	}

	return affected, nil
}

func (r *Repository) query(ctx context.Context, op, query string, args []interface{}) ([]*domain.BlockedPeriod, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, op, err)
	}
	defer rows.Close()

	blocks := make([]*domain.BlockedPeriod, 0)
	for rows.Next() {
		var (
			b         domain.BlockedPeriod
			startTime types.TimeString
			createdBy sql.NullString
		)

		if err := rows.Scan(&b.ID, &b.Date, &startTime, &b.Reason, &createdBy, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %s - scan blocked period: %v", ErrScanRow, op, err)
		}

		if !startTime.IsZero() {
			st := startTime
			b.StartTime = &st
		}
		b.CreatedBy = createdBy.String

		blocks = append(blocks, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows iteration: %v", ErrScanRow, op, err)
	}

	return blocks, nil
}
