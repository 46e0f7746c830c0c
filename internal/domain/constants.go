package domain

// Default policy values
const (
	DefaultRequireConfirmation = false
	DefaultAdvanceBookingDays  = 0 // 0 = unlimited
)

// Business validation constants
const (
	MinSlotDurationMinutes      = 5
	MaxSlotDurationMinutes      = 480 // 8 hours
	MaxAdvanceBookingDays       = 365 // 1 year
	MaxNoteLength               = 500
	MaxCancellationReasonLength = 500
	MaxClientNameLength         = 200
	MaxServicesPerBooking       = 10
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// InactiveStatuses список статусов, не занимающих время специалиста
var InactiveStatuses = []BookingStatus{
	StatusCanceled,
	StatusNoShow,
}

// OccupyingStatuses список статусов, участвующих в проверке пересечений
var OccupyingStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusCompleted,
}
