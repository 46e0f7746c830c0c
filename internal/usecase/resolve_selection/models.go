package resolve_selection

import "github.com/m04kA/SMC-ClinicBooking/internal/domain"

// Request модель запроса на разрешение выбора гостя
type Request struct {
	ServiceIDs []int64 // Услуги в порядке выбора
}

// Response модель ответа: услуги, специалисты, выполняющие все из них, и итоги
type Response struct {
	Services             []*domain.Service    // в порядке выбора
	Specialists          []*domain.Specialist // пересечение, по возрастанию ID
	TotalPriceCents      int64
	Currency             string
	TotalDurationMinutes int
}

// HasSpecialist проверяет, что специалист входит в пересечение
func (r *Response) HasSpecialist(id int64) bool {
	for _, sp := range r.Specialists {
		if sp.ID == id {
			return true
		}
	}
	return false
}

// ServiceIDs возвращает ID услуг в порядке выбора
func (r *Response) ServiceIDs() []int64 {
	ids := make([]int64, len(r.Services))
	for i, s := range r.Services {
		ids[i] = s.ID
	}
	return ids
}
