package policy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	"github.com/m04kA/SMC-ClinicBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-ClinicBooking/pkg/psqlbuilder"
)

const pgUniqueViolation = "23505"

var policyColumns = []string{
	"id",
	"specialist_id",
	"service_id",
	"require_confirmation",
	"advance_booking_days",
	"created_at",
	"updated_at",
}

// Repository репозиторий политик бронирования
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория политик
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новую политику
// Если в контексте передана активная транзакция, использует её
func (r *Repository) Create(ctx context.Context, p *domain.BookingPolicy) (*domain.BookingPolicy, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("booking_policies").
		Columns(
			"specialist_id",
			"service_id",
			"require_confirmation",
			"advance_booking_days",
		).
		Values(
			p.SpecialistID,
			p.ServiceID,
			p.RequireConfirmation,
			p.AdvanceBookingDays,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&p.ID, &createdAt, &updatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return nil, ErrDuplicatePolicy
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	return p, nil
}

// GetByID получает политику по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.BookingPolicy, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(policyColumns...).
		From("booking_policies").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	p, err := scanPolicy(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan policy: %v", ErrScanRow, err)
	}

	return p, nil
}

// GetBySpecialistAndService получает политику ровно для указанного ключа
// nil в specialistID или serviceID означает NULL в соответствующей колонке
func (r *Repository) GetBySpecialistAndService(ctx context.Context, specialistID, serviceID *int64) (*domain.BookingPolicy, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := policyByKeyQuery(specialistID, serviceID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetBySpecialistAndService - build select query: %v", ErrBuildQuery, err)
	}

	p, err := scanPolicy(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetBySpecialistAndService - scan policy: %v", ErrScanRow, err)
	}

	return p, nil
}

// GetPolicyWithHierarchy получает политику с учетом иерархии приоритетов:
// 1. Услуга у конкретного специалиста (specialistID, serviceID)
// 2. Все услуги специалиста (specialistID, NULL)
// 3. Услуга у всех специалистов (NULL, serviceID)
// 4. Политика клиники (NULL, NULL)
//
// Если политика не найдена ни на одном уровне, возвращает ErrPolicyNotFound
func (r *Repository) GetPolicyWithHierarchy(ctx context.Context, specialistID, serviceID *int64) (*domain.BookingPolicy, error) {
	levels := hierarchyLevels(specialistID, serviceID)

	for _, level := range levels {
		p, err := r.GetBySpecialistAndService(ctx, level.specialistID, level.serviceID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrPolicyNotFound) {
			return nil, fmt.Errorf("%w: GetPolicyWithHierarchy - level %s: %v", ErrExecQuery, level.name, err)
		}
	}

	return nil, ErrPolicyNotFound
}

// policyByKeyQuery строит выборку политики по ключу (specialist, service).
// squirrel.Eq с nil строит IS NULL.
func policyByKeyQuery(specialistID, serviceID *int64) squirrel.SelectBuilder {
	selectBuilder := psqlbuilder.Select(policyColumns...).
		From("booking_policies")

	if specialistID == nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"specialist_id": nil})
	} else {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"specialist_id": *specialistID})
	}

	if serviceID == nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"service_id": nil})
	} else {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"service_id": *serviceID})
	}

	return selectBuilder
}

type hierarchyLevel struct {
	name         string
	specialistID *int64
	serviceID    *int64
}

// hierarchyLevels возвращает ключи для поиска от самого конкретного к глобальному
func hierarchyLevels(specialistID, serviceID *int64) []hierarchyLevel {
	levels := make([]hierarchyLevel, 0, 4)
	if specialistID != nil && serviceID != nil {
		levels = append(levels, hierarchyLevel{"specialist+service", specialistID, serviceID})
	}
	if specialistID != nil {
		levels = append(levels, hierarchyLevel{"specialist", specialistID, nil})
	}
	if serviceID != nil {
		levels = append(levels, hierarchyLevel{"service", nil, serviceID})
	}
	return append(levels, hierarchyLevel{"global", nil, nil})
}

// GetAll получает все политики, глобальная идет первой
func (r *Repository) GetAll(ctx context.Context) ([]*domain.BookingPolicy, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(policyColumns...).
		From("booking_policies").
		OrderBy("specialist_id ASC NULLS FIRST, service_id ASC NULLS FIRST").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetAll - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetAll - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	policies := make([]*domain.BookingPolicy, 0)
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: GetAll - scan row: %v", ErrScanRow, err)
		}
		policies = append(policies, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetAll - rows error: %v", ErrScanRow, err)
	}

	return policies, nil
}

// Update обновляет правила политики; ключ (specialist, service) не меняется
func (r *Repository) Update(ctx context.Context, id int64, p *domain.BookingPolicy) (*domain.BookingPolicy, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("booking_policies").
		Set("require_confirmation", p.RequireConfirmation).
		Set("advance_booking_days", p.AdvanceBookingDays).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	p.ID = id
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	return p, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPolicy(row rowScanner) (*domain.BookingPolicy, error) {
	var p domain.BookingPolicy
	var specialistID, serviceID sql.NullInt64
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&p.ID,
		&specialistID,
		&serviceID,
		&p.RequireConfirmation,
		&p.AdvanceBookingDays,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if specialistID.Valid {
		p.SpecialistID = &specialistID.Int64
	}
	if serviceID.Valid {
		p.ServiceID = &serviceID.Int64
	}
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	return &p, nil
}
