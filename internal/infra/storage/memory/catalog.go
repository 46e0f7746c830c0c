package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
	"github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/catalog"
)

// CatalogRepository in-memory справочник специалистов и услуг
type CatalogRepository struct {
	store *Store
}

// AddSpecialist добавляет или заменяет специалиста
func (r *CatalogRepository) AddSpecialist(sp *domain.Specialist) error {
	if err := sp.Validate(); err != nil {
		return err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.specialists[sp.ID] = cloneSpecialist(sp)
	return nil
}

// AddService добавляет или заменяет услугу
func (r *CatalogRepository) AddService(svc *domain.Service) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c := *svc
	if svc.BufferMinutesOverride != nil {
		v := *svc.BufferMinutesOverride
		c.BufferMinutesOverride = &v
	}
	r.store.services[svc.ID] = &c
}

// Link связывает специалиста с услугами
func (r *CatalogRepository) Link(specialistID int64, serviceIDs ...int64) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	linked, ok := r.store.links[specialistID]
	if !ok {
		linked = make(map[int64]struct{})
		r.store.links[specialistID] = linked
	}
	for _, id := range serviceIDs {
		linked[id] = struct{}{}
	}
}

// GetSpecialist получает специалиста вместе с рабочими часами
func (r *CatalogRepository) GetSpecialist(ctx context.Context, id int64) (*domain.Specialist, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sp, ok := r.store.specialists[id]
	if !ok {
		return nil, catalog.ErrSpecialistNotFound
	}
	return cloneSpecialist(sp), nil
}

// GetServices получает услуги в порядке ids
func (r *CatalogRepository) GetServices(ctx context.Context, ids []int64) ([]*domain.Service, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	services := make([]*domain.Service, len(ids))
	for i, id := range ids {
		svc, ok := r.store.services[id]
		if !ok {
			return nil, fmt.Errorf("%w: id=%d", catalog.ErrServiceNotFound, id)
		}
		c := *svc
		services[i] = &c
	}
	return services, nil
}

// LinkedServiceIDs возвращает услуги, которые выполняет специалист
func (r *CatalogRepository) LinkedServiceIDs(ctx context.Context, specialistID int64) ([]int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ids := make([]int64, 0, len(r.store.links[specialistID]))
	for id := range r.store.links[specialistID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// SpecialistsLinkedToAll возвращает специалистов, связанных с каждой из услуг
func (r *CatalogRepository) SpecialistsLinkedToAll(ctx context.Context, serviceIDs []int64) ([]*domain.Specialist, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result := make([]*domain.Specialist, 0)
	if len(serviceIDs) == 0 {
		return result, nil
	}

	for specialistID, linked := range r.store.links {
		sp, ok := r.store.specialists[specialistID]
		if !ok {
			continue
		}
		all := true
		for _, id := range serviceIDs {
			if _, ok := linked[id]; !ok {
				all = false
				break
			}
		}
		if all {
			result = append(result, cloneSpecialist(sp))
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func cloneSpecialist(sp *domain.Specialist) *domain.Specialist {
	c := *sp
	c.WorkingHours = make(domain.WorkingHours, len(sp.WorkingHours))
	for day, ranges := range sp.WorkingHours {
		c.WorkingHours[day] = append([]domain.TimeRange(nil), ranges...)
	}
	return &c
}
