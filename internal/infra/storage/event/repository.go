package event

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
	"github.com/m04kA/SMC-ResourceService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ResourceService/pkg/psqlbuilder"
)

var eventColumns = []string{
	"id",
	"title",
	"start_time",
	"end_time",
	"status",
	"organization_id",
	"parent_event_id",
	"created_at",
	"updated_at",
}

// ParentChildPair событие с родителем, для проверки иерархии
type ParentChildPair struct {
	Child  domain.Event
	Parent domain.Event
}

// Repository репозиторий событий
//
// Жизненный цикл событий принадлежит внешнему сервису платформы; движок
// читает таблицу events напрямую, потому что интервальному индексу нужны
// окна событий внутри той же транзакции, что и проверка мощности.
// Create/Delete используются только workflow'ом создания события с аллокациями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория событий
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает событие по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(eventColumns...).
		From("events").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var evt domain.Event
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&evt.ID,
		&evt.Title,
		&evt.StartTime,
		&evt.EndTime,
		&evt.Status,
		&evt.OrganizationID,
		&evt.ParentEventID,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan event: %v", ErrScanRow, err)
	}

	evt.CreatedAt = createdAt.Time
	evt.UpdatedAt = updatedAt.Time

	return &evt, nil
}

// Create создает новое событие
// Используется только workflow'ом создания события вместе с аллокациями
func (r *Repository) Create(ctx context.Context, evt *domain.Event) (*domain.Event, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("events").
		Columns(
			"title",
			"start_time",
			"end_time",
			"status",
			"organization_id",
			"parent_event_id",
		).
		Values(
			evt.Title,
			evt.StartTime,
			evt.EndTime,
			evt.Status,
			evt.OrganizationID,
			evt.ParentEventID,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&evt.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	evt.CreatedAt = createdAt.Time
	evt.UpdatedAt = updatedAt.Time

	return evt, nil
}

// Delete удаляет событие
// Используется компенсацией: откат только что созданного события,
// если его аллокации не прошли валидацию
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("events").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}

// GetParentChildPairs возвращает все события с родителем вместе с родительскими событиями
// Используется отчетом о нарушениях иерархии
func (r *Repository) GetParentChildPairs(ctx context.Context) ([]ParentChildPair, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"c.id",
		"c.title",
		"c.start_time",
		"c.end_time",
		"c.status",
		"c.organization_id",
		"c.parent_event_id",
		"p.id",
		"p.title",
		"p.start_time",
		"p.end_time",
		"p.status",
		"p.organization_id",
		"p.parent_event_id",
	).
		From("events c").
		Join("events p ON p.id = c.parent_event_id").
		OrderBy("c.id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetParentChildPairs - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetParentChildPairs - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	pairs := make([]ParentChildPair, 0)
	for rows.Next() {
		var pair ParentChildPair

		err := rows.Scan(
			&pair.Child.ID,
			&pair.Child.Title,
			&pair.Child.StartTime,
			&pair.Child.EndTime,
			&pair.Child.Status,
			&pair.Child.OrganizationID,
			&pair.Child.ParentEventID,
			&pair.Parent.ID,
			&pair.Parent.Title,
			&pair.Parent.StartTime,
			&pair.Parent.EndTime,
			&pair.Parent.Status,
			&pair.Parent.OrganizationID,
			&pair.Parent.ParentEventID,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: GetParentChildPairs - scan row: %v", ErrScanRow, err)
		}

		pairs = append(pairs, pair)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetParentChildPairs - rows error: %v", ErrScanRow, err)
	}

	return pairs, nil
}

// GetOrganizationIDByEvent возвращает организацию события
// Используется отчетом утилизации для группировки по (организация, ресурс)
func (r *Repository) GetOrganizationIDByEvent(ctx context.Context, eventID int64) (*int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("organization_id").
		From("events").
		Where(squirrel.Eq{"id": eventID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetOrganizationIDByEvent - build select query: %v", ErrBuildQuery, err)
	}

	var organizationID *int64
	err = executor.QueryRowContext(ctx, query, args...).Scan(&organizationID)

	if err == sql.ErrNoRows {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetOrganizationIDByEvent - scan row: %v", ErrScanRow, err)
	}

	return organizationID, nil
}
