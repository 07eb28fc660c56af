package conductor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/TourBookingService/internal/domain"
	"github.com/m04kA/TourBookingService/pkg/dbmetrics"
	"github.com/m04kA/TourBookingService/pkg/psqlbuilder"
)

const table = "conductor_sessions"

var columns = []string{"conductor_id", "is_active", "is_available", "occupied_until", "updated_at"}

// Repository репозиторий сессий кондукторов
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория сессий
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Get сессия кондуктора по ID
func (r *Repository) Get(ctx context.Context, conductorID string) (*domain.ConductorSession, error) {
	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"conductor_id": conductorID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Get - build select query: %v", ErrBuildQuery, err)
	}

	return r.queryOne(ctx, "Get", query, args)
}

// GetActive текущая "живая" сессия; при нескольких активных побеждает последняя обновлённая
func (r *Repository) GetActive(ctx context.Context) (*domain.ConductorSession, error) {
	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("updated_at DESC").
		Limit(1).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetActive - build select query: %v", ErrBuildQuery, err)
	}

	return r.queryOne(ctx, "GetActive", query, args)
}

// ListByIDs сессии указанных кондукторов (для опроса)
func (r *Repository) ListByIDs(ctx context.Context, ids []string) ([]*domain.ConductorSession, error) {
	if len(ids) == 0 {
		return []*domain.ConductorSession{}, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(table).
		Where(squirrel.Eq{"conductor_id": ids}).
		OrderBy("conductor_id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListByIDs - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByIDs - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	sessions := make([]*domain.ConductorSession, 0, len(ids))
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListByIDs - scan session: %v", ErrScanRow, err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByIDs - rows iteration: %v", ErrScanRow, err)
	}

	return sessions, nil
}

// Upsert создаёт или обновляет сессию; updated_at выставляет база
func (r *Repository) Upsert(ctx context.Context, s *domain.ConductorSession) (*domain.ConductorSession, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(table).
		Columns("conductor_id", "is_active", "is_available", "occupied_until", "updated_at").
		Values(s.ConductorID, s.IsActive, s.IsAvailable, s.OccupiedUntil, squirrel.Expr("NOW()")).
		Suffix("ON CONFLICT (conductor_id) DO UPDATE SET " +
			"is_active = EXCLUDED.is_active, " +
			"is_available = EXCLUDED.is_available, " +
			"occupied_until = EXCLUDED.occupied_until, " +
			"updated_at = EXCLUDED.updated_at " +
			"RETURNING updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - build upsert query: %v", ErrBuildQuery, err)
	}

	saved := s.Clone()
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&saved.UpdatedAt); err != nil {
		return nil, fmt.Errorf("%w: Upsert - execute upsert: %v", ErrExecQuery, err)
	}

	return saved, nil
}

// DeactivateOthers снимает флаг активности со всех сессий, кроме указанной,
// и возвращает снятые сессии в новом состоянии
func (r *Repository) DeactivateOthers(ctx context.Context, conductorID string) ([]*domain.ConductorSession, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(table).
		Set("is_active", false).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.NotEq{"conductor_id": conductorID}).
		Suffix("RETURNING " + strings.Join(columns, ", ")).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: DeactivateOthers - build update query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: DeactivateOthers - execute update: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	deactivated := make([]*domain.ConductorSession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: DeactivateOthers - scan session: %v", ErrScanRow, err)
		}
		deactivated = append(deactivated, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: DeactivateOthers - rows iteration: %v", ErrScanRow, err)
	}

	return deactivated, nil
}

func (r *Repository) queryOne(ctx context.Context, op, query string, args []interface{}) (*domain.ConductorSession, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	s, err := scanSession(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan session: %v", ErrScanRow, op, err)
	}

	return s, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*domain.ConductorSession, error) {
	var (
		s             domain.ConductorSession
		occupiedUntil sql.NullTime
	)

	if err := row.Scan(&s.ConductorID, &s.IsActive, &s.IsAvailable, &occupiedUntil, &s.UpdatedAt); err != nil {
		return nil, err
	}

	if occupiedUntil.Valid {
		until := occupiedUntil.Time
		s.OccupiedUntil = &until
	}

	return &s, nil
}
