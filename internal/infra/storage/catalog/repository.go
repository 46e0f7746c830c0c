// Package catalog reads specialists, services and their links. The tables are
// owned by the administration side; this repository never writes them.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	"github.com/m04kA/SMC-ClinicBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-ClinicBooking/pkg/psqlbuilder"
	"github.com/m04kA/SMC-ClinicBooking/pkg/types"
)

// Repository репозиторий справочника специалистов и услуг (только чтение)
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория справочника
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetSpecialist получает специалиста вместе с рабочими часами
func (r *Repository) GetSpecialist(ctx context.Context, id int64) (*domain.Specialist, error) {
	specialists, err := r.getSpecialists(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(specialists) == 0 {
		return nil, ErrSpecialistNotFound
	}
	return specialists[0], nil
}

// GetServices получает услуги в порядке ids
// Если хотя бы одной услуги нет, возвращает ErrServiceNotFound
func (r *Repository) GetServices(ctx context.Context, ids []int64) ([]*domain.Service, error) {
	if len(ids) == 0 {
		return []*domain.Service{}, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"category_id",
		"name",
		"duration_minutes",
		"buffer_minutes_override",
		"price_cents",
		"currency",
	).
		From("services").
		Where(squirrel.Eq{"id": ids}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetServices - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetServices - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	byID := make(map[int64]*domain.Service, len(ids))
	for rows.Next() {
		var s domain.Service
		var buffer sql.NullInt32

		if err := rows.Scan(&s.ID, &s.CategoryID, &s.Name, &s.DurationMinutes, &buffer, &s.PriceCents, &s.Currency); err != nil {
			return nil, fmt.Errorf("%w: GetServices - scan row: %v", ErrScanRow, err)
		}
		if buffer.Valid {
			v := int(buffer.Int32)
			s.BufferMinutesOverride = &v
		}
		byID[s.ID] = &s
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetServices - rows error: %v", ErrScanRow, err)
	}

	services := make([]*domain.Service, len(ids))
	for i, id := range ids {
		s, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: id=%d", ErrServiceNotFound, id)
		}
		services[i] = s
	}

	return services, nil
}

// LinkedServiceIDs возвращает услуги, которые выполняет специалист
func (r *Repository) LinkedServiceIDs(ctx context.Context, specialistID int64) ([]int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("service_id").
		From("specialist_services").
		Where(squirrel.Eq{"specialist_id": specialistID}).
		OrderBy("service_id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: LinkedServiceIDs - build select query: %v", ErrBuildQuery, err)
	}

	return r.queryIDs(ctx, executor, "LinkedServiceIDs", query, args)
}

// SpecialistsLinkedToAll возвращает специалистов, связанных с каждой из услуг
// (пересечение, а не объединение)
func (r *Repository) SpecialistsLinkedToAll(ctx context.Context, serviceIDs []int64) ([]*domain.Specialist, error) {
	if len(serviceIDs) == 0 {
		return []*domain.Specialist{}, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("specialist_id").
		From("specialist_services").
		Where(squirrel.Eq{"service_id": serviceIDs}).
		GroupBy("specialist_id").
		Having("COUNT(DISTINCT service_id) = ?", len(uniqueIDs(serviceIDs))).
		OrderBy("specialist_id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: SpecialistsLinkedToAll - build select query: %v", ErrBuildQuery, err)
	}

	ids, err := r.queryIDs(ctx, executor, "SpecialistsLinkedToAll", query, args)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*domain.Specialist{}, nil
	}

	return r.getSpecialists(ctx, ids)
}

func (r *Repository) getSpecialists(ctx context.Context, ids []int64) ([]*domain.Specialist, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"name",
		"slot_duration_minutes",
		"buffer_minutes_default",
		"min_lead_minutes",
		"tzid",
	).
		From("specialists").
		Where(squirrel.Eq{"id": ids}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: getSpecialists - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getSpecialists - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	specialists := make([]*domain.Specialist, 0, len(ids))
	byID := make(map[int64]*domain.Specialist, len(ids))
	for rows.Next() {
		sp := &domain.Specialist{WorkingHours: domain.WorkingHours{}}
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.SlotDurationMinutes, &sp.BufferMinutesDefault, &sp.MinLeadMinutes, &sp.TZID); err != nil {
			return nil, fmt.Errorf("%w: getSpecialists - scan row: %v", ErrScanRow, err)
		}
		specialists = append(specialists, sp)
		byID[sp.ID] = sp
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: getSpecialists - rows error: %v", ErrScanRow, err)
	}

	if len(specialists) == 0 {
		return specialists, nil
	}

	if err := r.loadWorkingHours(ctx, executor, byID); err != nil {
		return nil, err
	}

	return specialists, nil
}

func (r *Repository) loadWorkingHours(ctx context.Context, executor dbmetrics.DBExecutor, byID map[int64]*domain.Specialist) error {
	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	query, args, err := psqlbuilder.Select("specialist_id", "weekday", "open_time", "close_time").
		From("specialist_working_hours").
		Where(squirrel.Eq{"specialist_id": ids}).
		OrderBy("specialist_id ASC", "weekday ASC", "open_time ASC").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: loadWorkingHours - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: loadWorkingHours - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var specialistID int64
		var weekday int
		var tr domain.TimeRange

		if err := rows.Scan(&specialistID, &weekday, &tr.Open, &tr.Close); err != nil {
			return fmt.Errorf("%w: loadWorkingHours - scan row: %v", ErrScanRow, err)
		}
		// Закрытие в 00:00 означает конец суток
		if tr.Close == "00:00" {
			tr.Close = types.EndOfDay
		}

		if sp, ok := byID[specialistID]; ok {
			day := time.Weekday(weekday)
			sp.WorkingHours[day] = append(sp.WorkingHours[day], tr)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: loadWorkingHours - rows error: %v", ErrScanRow, err)
	}

	return nil
}

func (r *Repository) queryIDs(ctx context.Context, executor dbmetrics.DBExecutor, op, query string, args []interface{}) ([]int64, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, op, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %s - scan id: %v", ErrScanRow, op, err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, op, err)
	}

	return ids, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// IsNotFound reports whether err means a missing specialist or service
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSpecialistNotFound) || errors.Is(err, ErrServiceNotFound)
}
