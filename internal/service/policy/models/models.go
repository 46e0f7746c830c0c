package models

import (
	"sort"
	"time"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
)

// Уровни политики в иерархии
const (
	LevelServiceOfSpecialist = "service_of_specialist"
	LevelSpecialist          = "specialist"
	LevelService             = "service"
	LevelGlobal              = "global"
	LevelDefault             = "default" // ничего не настроено
)

// Request модели

// UpsertPolicyRequest запрос на создание или замену политики.
// Ключ (specialistId, serviceId); nil означает "для всех".
type UpsertPolicyRequest struct {
	SpecialistID        *int64 `json:"specialistId,omitempty"`
	ServiceID           *int64 `json:"serviceId,omitempty"`
	RequireConfirmation bool   `json:"requireConfirmation"`
	AdvanceBookingDays  int    `json:"advanceBookingDays"` // 0 = без ограничений
}

// ToDomainPolicy конвертирует запрос в domain модель
func (r *UpsertPolicyRequest) ToDomainPolicy() *domain.BookingPolicy {
	return &domain.BookingPolicy{
		SpecialistID:        r.SpecialistID,
		ServiceID:           r.ServiceID,
		RequireConfirmation: r.RequireConfirmation,
		AdvanceBookingDays:  r.AdvanceBookingDays,
	}
}

// GetPolicyRequest запрос действующей политики
type GetPolicyRequest struct {
	SpecialistID *int64 `json:"specialistId,omitempty"`
	ServiceID    *int64 `json:"serviceId,omitempty"`
}

// Response модели

// PolicyResponse ответ с данными политики
type PolicyResponse struct {
	ID                  int64      `json:"id,omitempty"`
	SpecialistID        *int64     `json:"specialistId,omitempty"`
	ServiceID           *int64     `json:"serviceId,omitempty"`
	Level               string     `json:"level"`
	RequireConfirmation bool       `json:"requireConfirmation"`
	AdvanceBookingDays  int        `json:"advanceBookingDays"`
	CreatedAt           *time.Time `json:"createdAt,omitempty"`
	UpdatedAt           *time.Time `json:"updatedAt,omitempty"`
}

// PolicyListResponse ответ со списком политик
type PolicyListResponse struct {
	Policies []PolicyResponse `json:"policies"`
}

// TimeRangeResponse рабочий интервал
type TimeRangeResponse struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// WorkingDayResponse рабочие интервалы дня недели
type WorkingDayResponse struct {
	Weekday string              `json:"weekday"`
	Ranges  []TimeRangeResponse `json:"ranges"`
}

// SpecialistConfigResponse конфигурация специалиста
type SpecialistConfigResponse struct {
	SpecialistID         int64                `json:"specialistId"`
	Name                 string               `json:"name"`
	TZID                 string               `json:"timezone"`
	SlotDurationMinutes  int                  `json:"slotDurationMinutes"`
	BufferMinutesDefault int                  `json:"bufferMinutesDefault"`
	MinLeadMinutes       int                  `json:"minLeadMinutes"`
	WorkingHours         []WorkingDayResponse `json:"workingHours"`
	ServiceIDs           []int64              `json:"serviceIds"`
	Policy               PolicyResponse       `json:"policy"`
}

// Методы конвертации

// LevelOf возвращает уровень политики в иерархии
func LevelOf(p *domain.BookingPolicy) string {
	switch {
	case p.IsServiceOfSpecialist():
		return LevelServiceOfSpecialist
	case p.IsSpecialistWide():
		return LevelSpecialist
	case p.IsServiceWide():
		return LevelService
	default:
		return LevelGlobal
	}
}

// FromDomainPolicy конвертирует domain модель в DTO
func FromDomainPolicy(p *domain.BookingPolicy) *PolicyResponse {
	if p == nil {
		return nil
	}

	resp := &PolicyResponse{
		ID:                  p.ID,
		SpecialistID:        p.SpecialistID,
		ServiceID:           p.ServiceID,
		Level:               LevelOf(p),
		RequireConfirmation: p.RequireConfirmation,
		AdvanceBookingDays:  p.AdvanceBookingDays,
	}

	// Политика по умолчанию не хранится и не имеет ID
	if p.ID == 0 {
		resp.Level = LevelDefault
		return resp
	}

	createdAt, updatedAt := p.CreatedAt, p.UpdatedAt
	resp.CreatedAt = &createdAt
	resp.UpdatedAt = &updatedAt
	return resp
}

// FromDomainPolicyList конвертирует список domain моделей в DTO
func FromDomainPolicyList(policies []*domain.BookingPolicy) *PolicyListResponse {
	resp := &PolicyListResponse{
		Policies: make([]PolicyResponse, 0, len(policies)),
	}

	for _, p := range policies {
		if policyResp := FromDomainPolicy(p); policyResp != nil {
			resp.Policies = append(resp.Policies, *policyResp)
		}
	}

	return resp
}

// FromDomainSpecialist конвертирует специалиста, его услуги и действующую политику
func FromDomainSpecialist(sp *domain.Specialist, serviceIDs []int64, p *domain.BookingPolicy) *SpecialistConfigResponse {
	resp := &SpecialistConfigResponse{
		SpecialistID:         sp.ID,
		Name:                 sp.Name,
		TZID:                 sp.TZID,
		SlotDurationMinutes:  sp.SlotDurationMinutes,
		BufferMinutesDefault: sp.BufferMinutesDefault,
		MinLeadMinutes:       sp.MinLeadMinutes,
		WorkingHours:         make([]WorkingDayResponse, 0, len(sp.WorkingHours)),
		ServiceIDs:           serviceIDs,
		Policy:               *FromDomainPolicy(p),
	}

	if resp.ServiceIDs == nil {
		resp.ServiceIDs = []int64{}
	}

	weekdays := make([]time.Weekday, 0, len(sp.WorkingHours))
	for day := range sp.WorkingHours {
		weekdays = append(weekdays, day)
	}
	// Неделя начинается с понедельника
	sort.Slice(weekdays, func(i, j int) bool {
		return (weekdays[i]+6)%7 < (weekdays[j]+6)%7
	})

	for _, day := range weekdays {
		ranges := sp.WorkingHours[day]
		if len(ranges) == 0 {
			continue
		}
		wd := WorkingDayResponse{Weekday: day.String(), Ranges: make([]TimeRangeResponse, len(ranges))}
		for i, r := range ranges {
			wd.Ranges[i] = TimeRangeResponse{Open: r.Open.String(), Close: r.Close.String()}
		}
		resp.WorkingHours = append(resp.WorkingHours, wd)
	}

	return resp
}
