package resolve_selection

import (
	resolveSelection "github.com/m04kA/SMC-ClinicBooking/internal/usecase/resolve_selection"
)

// ResolveSelectionRequest HTTP request model
type ResolveSelectionRequest struct {
	ServiceIDs []int64 `json:"serviceIds"`
}

// SelectionResponse HTTP response model
type SelectionResponse struct {
	Services             []ServiceResponse    `json:"services"`
	Specialists          []SpecialistResponse `json:"specialists"`
	TotalPriceCents      int64                `json:"totalPriceCents"`
	Currency             string               `json:"currency"`
	TotalDurationMinutes int                  `json:"totalDurationMinutes"`
}

// ServiceResponse выбранная услуга
type ServiceResponse struct {
	ID              int64  `json:"id"`
	CategoryID      int64  `json:"categoryId"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"durationMinutes"`
	PriceCents      int64  `json:"priceCents"`
	Currency        string `json:"currency"`
}

// SpecialistResponse специалист, выполняющий все выбранные услуги
type SpecialistResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *ResolveSelectionRequest) ToUseCaseRequest() *resolveSelection.Request {
	return &resolveSelection.Request{ServiceIDs: r.ServiceIDs}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *resolveSelection.Response) *SelectionResponse {
	services := make([]ServiceResponse, len(resp.Services))
	for i, s := range resp.Services {
		services[i] = ServiceResponse{
			ID:              s.ID,
			CategoryID:      s.CategoryID,
			Name:            s.Name,
			DurationMinutes: s.DurationMinutes,
			PriceCents:      s.PriceCents,
			Currency:        s.Currency,
		}
	}

	specialists := make([]SpecialistResponse, len(resp.Specialists))
	for i, sp := range resp.Specialists {
		specialists[i] = SpecialistResponse{
			ID:       sp.ID,
			Name:     sp.Name,
			Timezone: sp.TZID,
		}
	}

	return &SelectionResponse{
		Services:             services,
		Specialists:          specialists,
		TotalPriceCents:      resp.TotalPriceCents,
		Currency:             resp.Currency,
		TotalDurationMinutes: resp.TotalDurationMinutes,
	}
}
