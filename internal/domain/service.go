package domain

// Service is a bookable clinic service
type Service struct {
	ID                    int64
	CategoryID            int64
	Name                  string
	DurationMinutes       int
	BufferMinutesOverride *int // supersedes the specialist's default buffer
	PriceCents            int64
	Currency              string
}

// ToItem converts the service into a booking line item snapshot
func (s *Service) ToItem() BookingItem {
	return BookingItem{
		ServiceID:       s.ID,
		ServiceName:     s.Name,
		DurationMinutes: s.DurationMinutes,
		PriceCents:      s.PriceCents,
	}
}
