package attendance

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ResourceService/internal/domain"
	"github.com/m04kA/SMC-ResourceService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ResourceService/pkg/psqlbuilder"
)

// Repository read-only репозиторий регистраций на события
// Таблица принадлежит внешнему сервису; движок читает её только для отчетов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория регистраций
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetRegisteredWithWindows возвращает регистрации пользователей платформы
// (user_id не NULL) с окнами их событий, отсортированные по пользователю
// Используется отчетом о двойных бронированиях
func (r *Repository) GetRegisteredWithWindows(ctx context.Context) ([]domain.AttendanceWithWindow, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"a.id",
		"a.event_id",
		"a.user_id",
		"a.checked_in_at",
		"e.title",
		"e.start_time",
		"e.end_time",
	).
		From("attendances a").
		Join("events e ON e.id = a.event_id").
		Where(squirrel.NotEq{"a.user_id": nil}).
		Where(squirrel.NotEq{"e.status": string(domain.EventStatusCancelled)}).
		OrderBy("a.user_id ASC", "e.start_time ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetRegisteredWithWindows - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetRegisteredWithWindows - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	attendances := make([]domain.AttendanceWithWindow, 0)
	for rows.Next() {
		var att domain.AttendanceWithWindow

		err := rows.Scan(
			&att.ID,
			&att.EventID,
			&att.UserID,
			&att.CheckedInAt,
			&att.EventTitle,
			&att.Window.Start,
			&att.Window.End,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: GetRegisteredWithWindows - scan row: %v", ErrScanRow, err)
		}

		attendances = append(attendances, att)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetRegisteredWithWindows - rows error: %v", ErrScanRow, err)
	}

	return attendances, nil
}

// GetExternalAttendeeEvents возвращает события, у которых число внешних
// участников (регистраций без user_id) не меньше порога
func (r *Repository) GetExternalAttendeeEvents(ctx context.Context, threshold int) ([]domain.ExternalAttendeeEvent, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"e.id",
		"e.title",
		"e.start_time",
		"COUNT(*) AS external_count",
	).
		From("attendances a").
		Join("events e ON e.id = a.event_id").
		Where(squirrel.Eq{"a.user_id": nil}).
		Where(squirrel.NotEq{"e.status": string(domain.EventStatusCancelled)}).
		GroupBy("e.id", "e.title", "e.start_time").
		Having(squirrel.GtOrEq{"COUNT(*)": threshold}).
		OrderBy("external_count DESC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetExternalAttendeeEvents - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetExternalAttendeeEvents - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	events := make([]domain.ExternalAttendeeEvent, 0)
	for rows.Next() {
		var evt domain.ExternalAttendeeEvent

		err := rows.Scan(
			&evt.EventID,
			&evt.EventTitle,
			&evt.EventStart,
			&evt.ExternalCount,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: GetExternalAttendeeEvents - scan row: %v", ErrScanRow, err)
		}

		events = append(events, evt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetExternalAttendeeEvents - rows error: %v", ErrScanRow, err)
	}

	return events, nil
}
