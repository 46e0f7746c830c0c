package memory

import (
	"context"
	"errors"
	"sort"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	"github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/policy"
)

// PolicyRepository in-memory репозиторий политик бронирования
type PolicyRepository struct {
	store *Store
}

// Create создает новую политику; ключ (specialist, service) уникален
func (r *PolicyRepository) Create(ctx context.Context, p *domain.BookingPolicy) (*domain.BookingPolicy, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findPolicy(p.SpecialistID, p.ServiceID) != nil {
		return nil, policy.ErrDuplicatePolicy
	}

	s.nextPolicyID++
	now := s.now()

	stored := clonePolicy(p)
	stored.ID = s.nextPolicyID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.policies[stored.ID] = stored

	id := stored.ID
	onRollback(ctx, func() { delete(s.policies, id) })

	return clonePolicy(stored), nil
}

// GetByID получает политику по ID
func (r *PolicyRepository) GetByID(ctx context.Context, id int64) (*domain.BookingPolicy, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.policies[id]
	if !ok {
		return nil, policy.ErrPolicyNotFound
	}
	return clonePolicy(p), nil
}

// GetBySpecialistAndService получает политику ровно для указанного ключа
func (r *PolicyRepository) GetBySpecialistAndService(ctx context.Context, specialistID, serviceID *int64) (*domain.BookingPolicy, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p := r.store.findPolicy(specialistID, serviceID)
	if p == nil {
		return nil, policy.ErrPolicyNotFound
	}
	return clonePolicy(p), nil
}

// GetPolicyWithHierarchy получает политику по иерархии:
// specialist+service > specialist > service > global
func (r *PolicyRepository) GetPolicyWithHierarchy(ctx context.Context, specialistID, serviceID *int64) (*domain.BookingPolicy, error) {
	levels := []struct {
		specialistID *int64
		serviceID    *int64
		enabled      bool
	}{
		{specialistID, serviceID, specialistID != nil && serviceID != nil},
		{specialistID, nil, specialistID != nil},
		{nil, serviceID, serviceID != nil},
		{nil, nil, true},
	}

	for _, level := range levels {
		if !level.enabled {
			continue
		}
		p, err := r.GetBySpecialistAndService(ctx, level.specialistID, level.serviceID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, policy.ErrPolicyNotFound) {
			return nil, err
		}
	}

	return nil, policy.ErrPolicyNotFound
}

// GetAll получает все политики, глобальная идет первой
func (r *PolicyRepository) GetAll(ctx context.Context) ([]*domain.BookingPolicy, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result := make([]*domain.BookingPolicy, 0, len(r.store.policies))
	for _, p := range r.store.policies {
		result = append(result, clonePolicy(p))
	}

	sort.Slice(result, func(i, j int) bool {
		if c := compareNullable(result[i].SpecialistID, result[j].SpecialistID); c != 0 {
			return c < 0
		}
		return compareNullable(result[i].ServiceID, result[j].ServiceID) < 0
	})
	return result, nil
}

// Update обновляет правила политики
func (r *PolicyRepository) Update(ctx context.Context, id int64, p *domain.BookingPolicy) (*domain.BookingPolicy, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.policies[id]
	if !ok {
		return nil, policy.ErrPolicyNotFound
	}

	before := clonePolicy(current)
	current.RequireConfirmation = p.RequireConfirmation
	current.AdvanceBookingDays = p.AdvanceBookingDays
	current.UpdatedAt = s.now()

	onRollback(ctx, func() { s.policies[id] = before })

	return clonePolicy(current), nil
}

// findPolicy ищет политику по ключу; вызывается под s.mu
func (s *Store) findPolicy(specialistID, serviceID *int64) *domain.BookingPolicy {
	for _, p := range s.policies {
		if equalNullable(p.SpecialistID, specialistID) && equalNullable(p.ServiceID, serviceID) {
			return p
		}
	}
	return nil
}

func equalNullable(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// compareNullable упорядочивает как NULLS FIRST
func compareNullable(a, b *int64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

func clonePolicy(p *domain.BookingPolicy) *domain.BookingPolicy {
	c := *p
	if p.SpecialistID != nil {
		v := *p.SpecialistID
		c.SpecialistID = &v
	}
	if p.ServiceID != nil {
		v := *p.ServiceID
		c.ServiceID = &v
	}
	return &c
}
