package resource

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
	"github.com/m04kA/SMC-ResourceService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ResourceService/pkg/psqlbuilder"
)

var resourceColumns = []string{
	"id",
	"name",
	"type",
	"total_quantity",
	"max_concurrent_usage",
	"organization_id",
	"created_at",
	"updated_at",
}

// Repository репозиторий каталога ресурсов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория ресурсов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает ресурс по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Resource, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate получает ресурс по ID с блокировкой строки (FOR UPDATE)
// Точка сериализации мутаций по ресурсу: две конкурентные записи по одному
// ресурсу выстраиваются в очередь на этой блокировке
// Должен вызываться только внутри транзакции
func (r *Repository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Resource, error) {
	return r.getByID(ctx, id, true)
}

func (r *Repository) getByID(ctx context.Context, id int64, forUpdate bool) (*domain.Resource, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(resourceColumns...).
		From("resources").
		Where(squirrel.Eq{"id": id})

	if forUpdate && dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var res domain.Resource
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&res.ID,
		&res.Name,
		&res.Type,
		&res.TotalQuantity,
		&res.MaxConcurrentUsage,
		&res.OrganizationID,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan resource: %v", ErrScanRow, err)
	}

	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updatedAt.Time

	return &res, nil
}

// List получает ресурсы, видимые организации
// Если organizationID == nil, фильтр не применяется - каталог целиком (отчеты)
func (r *Repository) List(ctx context.Context, organizationID *int64) ([]*domain.Resource, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(resourceColumns...).
		From("resources").
		OrderBy("id ASC")

	if organizationID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Or{
			squirrel.Eq{"organization_id": nil},
			squirrel.Eq{"organization_id": *organizationID},
		})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	resources := make([]*domain.Resource, 0)
	for rows.Next() {
		var res domain.Resource
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&res.ID,
			&res.Name,
			&res.Type,
			&res.TotalQuantity,
			&res.MaxConcurrentUsage,
			&res.OrganizationID,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan row: %v", ErrScanRow, err)
		}

		res.CreatedAt = createdAt.Time
		res.UpdatedAt = updatedAt.Time
		resources = append(resources, &res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows error: %v", ErrScanRow, err)
	}

	return resources, nil
}

// UpdateTotalQuantity обновляет общее количество ресурса
// Используется при пополнении запаса расходуемого ресурса (restock)
func (r *Repository) UpdateTotalQuantity(ctx context.Context, id int64, totalQuantity int) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("resources").
		Set("total_quantity", totalQuantity).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateTotalQuantity - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateTotalQuantity - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateTotalQuantity - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrResourceNotFound
	}

	return nil
}
