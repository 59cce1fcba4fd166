package allocation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
	"github.com/m04kA/SMC-ResourceService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ResourceService/pkg/psqlbuilder"
)

// Repository репозиторий реестра аллокаций (allocation ledger)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория аллокаций
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новую аллокацию
// Если в контексте передана активная транзакция, использует её
func (r *Repository) Create(ctx context.Context, alloc *domain.Allocation) (*domain.Allocation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("allocations").
		Columns("resource_id", "event_id", "quantity").
		Values(alloc.ResourceID, alloc.EventID, alloc.Quantity).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&alloc.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	alloc.CreatedAt = createdAt.Time
	alloc.UpdatedAt = updatedAt.Time

	return alloc, nil
}

// GetByID получает аллокацию по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Allocation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"resource_id",
		"event_id",
		"quantity",
		"created_at",
		"updated_at",
	).
		From("allocations").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var alloc domain.Allocation
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&alloc.ID,
		&alloc.ResourceID,
		&alloc.EventID,
		&alloc.Quantity,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrAllocationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan allocation: %v", ErrScanRow, err)
	}

	alloc.CreatedAt = createdAt.Time
	alloc.UpdatedAt = updatedAt.Time

	return &alloc, nil
}

// GetByEventID получает все аллокации события
func (r *Repository) GetByEventID(ctx context.Context, eventID int64) ([]*domain.Allocation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"resource_id",
		"event_id",
		"quantity",
		"created_at",
		"updated_at",
	).
		From("allocations").
		Where(squirrel.Eq{"event_id": eventID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByEventID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByEventID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	allocations := make([]*domain.Allocation, 0)
	for rows.Next() {
		var alloc domain.Allocation
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&alloc.ID,
			&alloc.ResourceID,
			&alloc.EventID,
			&alloc.Quantity,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: GetByEventID - scan row: %v", ErrScanRow, err)
		}

		alloc.CreatedAt = createdAt.Time
		alloc.UpdatedAt = updatedAt.Time
		allocations = append(allocations, &alloc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetByEventID - rows error: %v", ErrScanRow, err)
	}

	return allocations, nil
}

// GetOverlapping возвращает аллокации ресурса, чьи события пересекаются
// с окном [from, to) - интервальный индекс пересечений
//
// Полуоткрытые интервалы: [a,b) и [c,d) пересекаются iff a < d && c < b,
// поэтому бронирования "встык" не конфликтуют.
// excludeEventID исключает аллокации указанного события - нужно при
// перевалидации аллокации существующего события, чтобы его собственная
// бронь не считалась против него самого.
// Отмененные события не удерживают мощность и не попадают в выборку.
//
// Внутри транзакции строки аллокаций блокируются (FOR UPDATE OF a),
// чтобы проверка доступности и запись выполнялись как одна
// сериализуемая единица по ресурсу
func (r *Repository) GetOverlapping(
	ctx context.Context,
	resourceID int64,
	from, to time.Time,
	excludeEventID *int64,
) ([]domain.AllocationWithWindow, error) {
	selectBuilder := r.joinedSelect().
		Where(squirrel.Eq{"a.resource_id": resourceID}).
		Where(squirrel.Lt{"e.start_time": to}).
		Where(squirrel.Gt{"e.end_time": from})

	if excludeEventID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"a.event_id": *excludeEventID})
	}

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE OF a")
	}

	return r.queryWithWindows(ctx, selectBuilder, "GetOverlapping")
}

// GetActiveByResource возвращает ВСЕ аллокации ресурса по неотмененным
// событиям без фильтра по времени
//
// Используется для расходуемых ресурсов (consumable): запас списывается,
// а не разделяется по времени, поэтому против кандидата считаются все
// активные аллокации, а не только пересекающиеся по окну
func (r *Repository) GetActiveByResource(
	ctx context.Context,
	resourceID int64,
	excludeEventID *int64,
) ([]domain.AllocationWithWindow, error) {
	selectBuilder := r.joinedSelect().
		Where(squirrel.Eq{"a.resource_id": resourceID})

	if excludeEventID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"a.event_id": *excludeEventID})
	}

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE OF a")
	}

	return r.queryWithWindows(ctx, selectBuilder, "GetActiveByResource")
}

// GetAllWithWindows возвращает все аллокации по неотмененным событиям
// с окнами событий, сгруппированные по ресурсу (сортировкой)
// Используется отчетами; блокировки не берутся
func (r *Repository) GetAllWithWindows(ctx context.Context) ([]domain.AllocationWithWindow, error) {
	selectBuilder := r.joinedSelect().
		OrderBy("a.resource_id ASC", "e.start_time ASC")

	return r.queryWithWindows(ctx, selectBuilder, "GetAllWithWindows")
}

// Update обновляет количество и/или ресурс аллокации
func (r *Repository) Update(ctx context.Context, id int64, resourceID int64, quantity int) (*domain.Allocation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("allocations").
		Set("resource_id", resourceID).
		Set("quantity", quantity).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING id, resource_id, event_id, quantity, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	var alloc domain.Allocation
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&alloc.ID,
		&alloc.ResourceID,
		&alloc.EventID,
		&alloc.Quantity,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrAllocationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	alloc.CreatedAt = createdAt.Time
	alloc.UpdatedAt = updatedAt.Time

	return &alloc, nil
}

// Delete удаляет аллокацию
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("allocations").
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
		return ErrAllocationNotFound
	}

	return nil
}

// DeleteByEventID удаляет все аллокации события
// Используется при удалении события владельцем
func (r *Repository) DeleteByEventID(ctx context.Context, eventID int64) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("allocations").
		Where(squirrel.Eq{"event_id": eventID}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: DeleteByEventID - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteByEventID - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteByEventID - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected, nil
}

// joinedSelect базовый SELECT аллокаций с окнами владеющих событий
// Отмененные события не удерживают мощность
func (r *Repository) joinedSelect() squirrel.SelectBuilder {
	return psqlbuilder.Select(
		"a.id",
		"a.resource_id",
		"a.event_id",
		"a.quantity",
		"a.created_at",
		"a.updated_at",
		"e.title",
		"e.start_time",
		"e.end_time",
	).
		From("allocations a").
		Join("events e ON e.id = a.event_id").
		Where(squirrel.NotEq{"e.status": string(domain.EventStatusCancelled)})
}

// queryWithWindows выполняет запрос joinedSelect и сканирует результат
func (r *Repository) queryWithWindows(
	ctx context.Context,
	selectBuilder squirrel.SelectBuilder,
	method string,
) ([]domain.AllocationWithWindow, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, method, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, method, err)
	}
	defer rows.Close()

	allocations := make([]domain.AllocationWithWindow, 0)
	for rows.Next() {
		var alloc domain.AllocationWithWindow
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&alloc.ID,
			&alloc.ResourceID,
			&alloc.EventID,
			&alloc.Quantity,
			&createdAt,
			&updatedAt,
			&alloc.EventTitle,
			&alloc.Window.Start,
			&alloc.Window.End,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan row: %v", ErrScanRow, method, err)
		}

		alloc.CreatedAt = createdAt.Time
		alloc.UpdatedAt = updatedAt.Time
		allocations = append(allocations, alloc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, method, err)
	}

	return allocations, nil
}
