// Package memory keeps the booking ledger, the catalog and the policies in
// process memory. It mirrors the PostgreSQL repositories, including their
// sentinel errors, per-specialist locking and transaction rollback, so the
// service can run without a database and the concurrency properties of the
// reservation path can be tested.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
)

// Store общее состояние in-memory хранилища
type Store struct {
	mu sync.Mutex

	bookings      map[int64]*domain.Booking
	nextBookingID int64

	specialists map[int64]*domain.Specialist
	services    map[int64]*domain.Service
	links       map[int64]map[int64]struct{}

	policies     map[int64]*domain.BookingPolicy
	nextPolicyID int64

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	now func() time.Time
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		bookings:    make(map[int64]*domain.Booking),
		specialists: make(map[int64]*domain.Specialist),
		services:    make(map[int64]*domain.Service),
		links:       make(map[int64]map[int64]struct{}),
		policies:    make(map[int64]*domain.BookingPolicy),
		locks:       make(map[string]*sync.Mutex),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Bookings возвращает репозиторий бронирований поверх хранилища
func (s *Store) Bookings() *BookingRepository {
	return &BookingRepository{store: s}
}

// Catalog возвращает репозиторий справочника поверх хранилища
func (s *Store) Catalog() *CatalogRepository {
	return &CatalogRepository{store: s}
}

// Policies возвращает репозиторий политик поверх хранилища
func (s *Store) Policies() *PolicyRepository {
	return &PolicyRepository{store: s}
}

// TxManager возвращает менеджер транзакций поверх хранилища
func (s *Store) TxManager() *TxManager {
	return &TxManager{store: s}
}

// namedLock возвращает мьютекс для ключа, создавая его при первом обращении
func (s *Store) namedLock(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

type txKey struct{}

// tx открытая транзакция: удерживаемые блокировки и откат изменений
type tx struct {
	held []string
	set  map[string]struct{}
	undo []func()
}

func txFrom(ctx context.Context) (*tx, bool) {
	t, ok := ctx.Value(txKey{}).(*tx)
	return t, ok
}

// lock берет именованную блокировку до конца транзакции.
// Повторный захват того же ключа в той же транзакции ничего не делает.
func (s *Store) lock(ctx context.Context, t *tx, key string) error {
	if _, ok := t.set[key]; ok {
		return nil
	}

	l := s.namedLock(key)
	acquired := make(chan struct{})
	go func() {
		l.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-ctx.Done():
		// Блокировку освободим, как только она будет получена
		go func() {
			<-acquired
			l.Unlock()
		}()
		return ctx.Err()
	}

	t.set[key] = struct{}{}
	t.held = append(t.held, key)
	return nil
}

// onRollback регистрирует откат изменения, если вызов идет внутри транзакции
func onRollback(ctx context.Context, fn func()) {
	if t, ok := txFrom(ctx); ok {
		t.undo = append(t.undo, fn)
	}
}

func specialistKey(id int64) string {
	return fmt.Sprintf("specialist:%d", id)
}

func bookingKey(id int64) string {
	return fmt.Sprintf("booking:%d", id)
}

// TxManager менеджер транзакций in-memory хранилища.
// Изоляция обеспечивается именованными блокировками, а не уровнем изоляции,
// поэтому все три метода ведут себя одинаково.
type TxManager struct {
	store *Store
}

// Do выполняет fn в транзакции
func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

// DoSerializable выполняет fn в транзакции
func (m *TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

// DoReadOnly выполняет fn в транзакции
func (m *TxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	// Вложенный вызов переиспользует внешнюю транзакцию
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}

	t := &tx{set: make(map[string]struct{})}

	defer func() {
		p := recover()
		if err != nil || p != nil {
			m.store.mu.Lock()
			for i := len(t.undo) - 1; i >= 0; i-- {
				t.undo[i]()
			}
			m.store.mu.Unlock()
		}
		for i := len(t.held) - 1; i >= 0; i-- {
			m.store.namedLock(t.held[i]).Unlock()
		}
		if p != nil {
			panic(p)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, t))
}
