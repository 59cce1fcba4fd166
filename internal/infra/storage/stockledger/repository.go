package stockledger

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

// Repository append-only журнал движения запаса расходуемых ресурсов
//
// Журнал никогда не обновляется и не удаляется: коррекции - это записи
// с противоположным знаком. Баланс всегда выводится суммированием дельт,
// поэтому политику возврата запаса можно поменять, не переписывая историю
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория журнала запаса
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Append добавляет запись в журнал - единственная операция записи
func (r *Repository) Append(ctx context.Context, entry *domain.StockEntry) (*domain.StockEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("stock_ledger").
		Columns("resource_id", "event_id", "delta", "kind", "note").
		Values(entry.ResourceID, entry.EventID, entry.Delta, entry.Kind, entry.Note).
		Suffix("RETURNING id, recorded_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Append - build insert query: %v", ErrBuildQuery, err)
	}

	var recordedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&entry.ID,
		&recordedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: Append - execute insert: %v", ErrExecQuery, err)
	}

	entry.RecordedAt = recordedAt.Time

	return entry, nil
}

// BalanceAt возвращает сумму дельт по ресурсу на момент времени at
func (r *Repository) BalanceAt(ctx context.Context, resourceID int64, at time.Time) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COALESCE(SUM(delta), 0)").
		From("stock_ledger").
		Where(squirrel.Eq{"resource_id": resourceID}).
		Where(squirrel.LtOrEq{"recorded_at": at}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: BalanceAt - build select query: %v", ErrBuildQuery, err)
	}

	var balance int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&balance); err != nil {
		return 0, fmt.Errorf("%w: BalanceAt - scan balance: %v", ErrScanRow, err)
	}

	return balance, nil
}

// ListByResource возвращает записи журнала по ресурсу в хронологическом порядке
func (r *Repository) ListByResource(ctx context.Context, resourceID int64) ([]domain.StockEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"resource_id",
		"event_id",
		"delta",
		"kind",
		"note",
		"recorded_at",
	).
		From("stock_ledger").
		Where(squirrel.Eq{"resource_id": resourceID}).
		OrderBy("recorded_at ASC", "id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListByResource - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByResource - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	entries := make([]domain.StockEntry, 0)
	for rows.Next() {
		var entry domain.StockEntry
		var recordedAt sql.NullTime

		err := rows.Scan(
			&entry.ID,
			&entry.ResourceID,
			&entry.EventID,
			&entry.Delta,
			&entry.Kind,
			&entry.Note,
			&recordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: ListByResource - scan row: %v", ErrScanRow, err)
		}

		entry.RecordedAt = recordedAt.Time
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByResource - rows error: %v", ErrScanRow, err)
	}

	return entries, nil
}
