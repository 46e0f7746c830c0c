package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	"github.com/m04kA/SMC-ClinicBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-ClinicBooking/pkg/psqlbuilder"
)

// Коды ошибок PostgreSQL, означающие проигранную гонку за интервал
const (
	pgExclusionViolation   = "23P01"
	pgSerializationFailure = "40001"
)

var bookingColumns = []string{
	"id",
	"specialist_id",
	"service_id",
	"start_utc",
	"end_utc",
	"buffer_minutes",
	"status",
	"payment_status",
	"client_user_id",
	"client_name",
	"client_email",
	"client_phone",
	"price_cents",
	"currency",
	"note",
	"cancellation_reason",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает бронирование вместе с его позициями (услугами)
// Должен вызываться внутри транзакции: бронирование и позиции пишутся атомарно.
// Пересечение с другим активным бронированием специалиста отсекается
// exclusion constraint и возвращается как ErrSlotNotAvailable.
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	if len(booking.Items) == 0 {
		return nil, ErrNoItems
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"specialist_id",
			"service_id",
			"start_utc",
			"end_utc",
			"buffer_minutes",
			"blocked_until",
			"status",
			"payment_status",
			"client_user_id",
			"client_name",
			"client_email",
			"client_phone",
			"price_cents",
			"currency",
			"note",
		).
		Values(
			booking.SpecialistID,
			booking.ServiceID,
			booking.StartUTC.UTC(),
			booking.EndUTC.UTC(),
			booking.BufferMinutes,
			booking.OccupiedUntil().UTC(),
			booking.Status,
			booking.PaymentStatus,
			booking.Client.UserID,
			booking.Client.Name,
			booking.Client.Email,
			booking.Client.Phone,
			booking.PriceCents,
			booking.Currency,
			booking.Note,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if IsConflict(err) {
			return nil, fmt.Errorf("%w: Create - specialist_id=%d: %v", ErrSlotNotAvailable, booking.SpecialistID, err)
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	if err := r.insertItems(ctx, executor, booking.ID, booking.Items); err != nil {
		return nil, err
	}

	return booking, nil
}

func (r *Repository) insertItems(ctx context.Context, executor DBExecutor, bookingID int64, items []domain.BookingItem) error {
	insert := psqlbuilder.Insert("booking_items").
		Columns("booking_id", "position", "service_id", "service_name", "duration_minutes", "price_cents")

	for i, item := range items {
		insert = insert.Values(bookingID, i, item.ServiceID, item.ServiceName, item.DurationMinutes, item.PriceCents)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("%w: insertItems - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: insertItems - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// GetByID получает бронирование по ID
// Внутри транзакции строка блокируется (FOR UPDATE) до её завершения
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	if err := r.loadItems(ctx, executor, []*domain.Booking{booking}); err != nil {
		return nil, err
	}

	return booking, nil
}

// GetBySpecialistWithFilter получает бронирования специалиста с фильтрацией
// Поддерживает фильтрацию по:
// - Окну времени (From, To) - бронирование попадает, если [start, end+buffer) пересекает окно
// - Статусу (Status) - опционально
// - Включению неактивных бронирований (IncludeInactive)
//
// Внутри транзакции при заданном окне строки блокируются (FOR UPDATE):
// так usecase бронирования перепроверяет пересечения перед вставкой.
func (r *Repository) GetBySpecialistWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := specialistBookingsQuery(filter, dbmetrics.IsInTransaction(ctx)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetBySpecialistWithFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		if IsConflict(err) {
			return nil, fmt.Errorf("%w: GetBySpecialistWithFilter: %v", ErrSlotNotAvailable, err)
		}
		return nil, fmt.Errorf("%w: GetBySpecialistWithFilter - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	bookings, err := scanBookings(rows)
	if err != nil {
		return nil, err
	}

	if err := r.loadItems(ctx, executor, bookings); err != nil {
		return nil, err
	}

	return bookings, nil
}

// specialistBookingsQuery строит выборку бронирований специалиста по фильтру.
// FOR UPDATE добавляется только в транзакции и только при заданном окне.
func specialistBookingsQuery(filter domain.BookingsFilter, inTx bool) squirrel.SelectBuilder {
	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"specialist_id": filter.SpecialistID})

	// Фильтрация по окну времени
	if filter.From != nil {
		selectBuilder = selectBuilder.Where(squirrel.Gt{"blocked_until": filter.From.UTC()})
	}
	if filter.To != nil {
		selectBuilder = selectBuilder.Where(squirrel.Lt{"start_utc": filter.To.UTC()})
	}

	// Фильтрация по статусу
	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	} else if !filter.IncludeInactive {
		occupying := make([]string, len(domain.OccupyingStatuses))
		for i, s := range domain.OccupyingStatuses {
			occupying[i] = string(s)
		}
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": occupying})
	}

	selectBuilder = selectBuilder.OrderBy("start_utc ASC")

	if inTx && filter.From != nil && filter.To != nil {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	return selectBuilder
}

// LockSpecialist берёт транзакционную advisory-блокировку специалиста
// Резервирования одного специалиста выполняются строго по очереди,
// резервирования разных специалистов друг друга не ждут.
func (r *Repository) LockSpecialist(ctx context.Context, specialistID int64) error {
	tx, ok := dbmetrics.TxFromContext(ctx)
	if !ok {
		return ErrNotInTransaction
	}

	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", specialistID); err != nil {
		if IsConflict(err) {
			return fmt.Errorf("%w: LockSpecialist - specialist_id=%d: %v", ErrSlotNotAvailable, specialistID, err)
		}
		return fmt.Errorf("%w: LockSpecialist - specialist_id=%d: %v", ErrExecQuery, specialistID, err)
	}

	return nil
}

// UpdateStatus обновляет статус бронирования
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	return r.update(ctx, "UpdateStatus", id, map[string]interface{}{
		"status": status,
	})
}

// UpdatePaymentStatus обновляет статус оплаты бронирования
func (r *Repository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	return r.update(ctx, "UpdatePaymentStatus", id, map[string]interface{}{
		"payment_status": status,
	})
}

// Cancel переводит бронирование в CANCELED с указанием причины
// Физического удаления бронирований нет: история сохраняется
func (r *Repository) Cancel(ctx context.Context, id int64, reason *string, cancelledAt time.Time) error {
	return r.update(ctx, "Cancel", id, map[string]interface{}{
		"status":              domain.StatusCanceled,
		"cancellation_reason": reason,
		"cancelled_at":        cancelledAt.UTC(),
	})
}

func (r *Repository) update(ctx context.Context, op string, id int64, values map[string]interface{}) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		SetMap(values).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, op, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		if IsConflict(err) {
			return fmt.Errorf("%w: %s - booking_id=%d: %v", ErrSlotNotAvailable, op, id, err)
		}
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// loadItems подгружает позиции для списка бронирований одним запросом
func (r *Repository) loadItems(ctx context.Context, executor DBExecutor, bookings []*domain.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.Booking, len(bookings))
	ids := make([]int64, len(bookings))
	for i, b := range bookings {
		byID[b.ID] = b
		ids[i] = b.ID
	}

	query, args, err := psqlbuilder.Select(
		"booking_id",
		"service_id",
		"service_name",
		"duration_minutes",
		"price_cents",
	).
		From("booking_items").
		Where(squirrel.Eq{"booking_id": ids}).
		OrderBy("booking_id ASC", "position ASC").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: loadItems - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: loadItems - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookingID int64
		var item domain.BookingItem
		if err := rows.Scan(&bookingID, &item.ServiceID, &item.ServiceName, &item.DurationMinutes, &item.PriceCents); err != nil {
			return fmt.Errorf("%w: loadItems - scan row: %v", ErrScanRow, err)
		}
		if b, ok := byID[bookingID]; ok {
			b.Items = append(b.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: loadItems - rows error: %v", ErrScanRow, err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&booking.ID,
		&booking.SpecialistID,
		&booking.ServiceID,
		&booking.StartUTC,
		&booking.EndUTC,
		&booking.BufferMinutes,
		&booking.Status,
		&booking.PaymentStatus,
		&booking.Client.UserID,
		&booking.Client.Name,
		&booking.Client.Email,
		&booking.Client.Phone,
		&booking.PriceCents,
		&booking.Currency,
		&booking.Note,
		&booking.CancellationReason,
		&booking.CancelledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.StartUTC = booking.StartUTC.UTC()
	booking.EndUTC = booking.EndUTC.UTC()
	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}

// IsConflict распознаёт ошибки PostgreSQL, означающие проигранную гонку
func IsConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == pgExclusionViolation || pqErr.Code == pgSerializationFailure
}
