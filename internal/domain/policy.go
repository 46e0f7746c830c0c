package domain

import "time"

// BookingPolicy represents booking rules for a specialist and/or service.
// Supports hierarchical configuration:
// 1. Service with a specific specialist (specialist_id, service_id)
// 2. Specialist-wide (specialist_id, NULL)
// 3. Service-wide (NULL, service_id)
// 4. Clinic-wide (NULL, NULL)
type BookingPolicy struct {
	ID                  int64
	SpecialistID        *int64 // NULL = policy for all specialists
	ServiceID           *int64 // NULL = policy for all services
	RequireConfirmation bool   // new bookings start in PENDING and wait for staff
	AdvanceBookingDays  int    // 0 = unlimited
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// DefaultBookingPolicy returns the policy used when nothing is configured
func DefaultBookingPolicy() *BookingPolicy {
	return &BookingPolicy{
		RequireConfirmation: DefaultRequireConfirmation,
		AdvanceBookingDays:  DefaultAdvanceBookingDays,
	}
}

// IsGlobal returns true if this is a clinic-wide policy
func (p *BookingPolicy) IsGlobal() bool {
	return p.SpecialistID == nil && p.ServiceID == nil
}

// IsSpecialistWide returns true if this policy covers every service of one specialist
func (p *BookingPolicy) IsSpecialistWide() bool {
	return p.SpecialistID != nil && p.ServiceID == nil
}

// IsServiceWide returns true if this policy covers one service for every specialist
func (p *BookingPolicy) IsServiceWide() bool {
	return p.SpecialistID == nil && p.ServiceID != nil
}

// IsServiceOfSpecialist returns true if this policy targets one service of one specialist
func (p *BookingPolicy) IsServiceOfSpecialist() bool {
	return p.SpecialistID != nil && p.ServiceID != nil
}

// HasAdvanceBookingLimit returns true if there's a limit on how far in advance bookings can be made
func (p *BookingPolicy) HasAdvanceBookingLimit() bool {
	return p.AdvanceBookingDays > 0
}

// MergePolicies combines the policies resolved for each service of a
// multi-service booking: confirmation is required if any of them requires it,
// and the tightest positive advance limit wins.
func MergePolicies(policies []*BookingPolicy) *BookingPolicy {
	merged := DefaultBookingPolicy()
	for _, p := range policies {
		if p == nil {
			continue
		}
		if p.RequireConfirmation {
			merged.RequireConfirmation = true
		}
		if p.HasAdvanceBookingLimit() &&
			(!merged.HasAdvanceBookingLimit() || p.AdvanceBookingDays < merged.AdvanceBookingDays) {
			merged.AdvanceBookingDays = p.AdvanceBookingDays
		}
	}
	return merged
}
