// Package statemachine holds the legal transitions of the booking status and
// of the payment status. Both are lookup tables; every function is pure.
package statemachine

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
)

var (
	// ErrInvalidTransition возвращается, когда переход из текущего состояния запрещён
	ErrInvalidTransition = errors.New("statemachine: invalid transition")

	// ErrUnknownStatus возвращается для значения вне словаря статусов
	ErrUnknownStatus = errors.New("statemachine: unknown status")
)

var bookingTransitions = map[domain.BookingStatus]map[domain.BookingStatus]struct{}{
	domain.StatusPending: {
		domain.StatusConfirmed: {},
		domain.StatusCanceled:  {},
	},
	domain.StatusConfirmed: {
		domain.StatusCompleted: {},
		domain.StatusCanceled:  {},
		domain.StatusNoShow:    {},
	},
	domain.StatusCompleted: {},
	domain.StatusCanceled:  {},
	domain.StatusNoShow:    {},
}

var paymentTransitions = map[domain.PaymentStatus]map[domain.PaymentStatus]struct{}{
	domain.PaymentRequiresPayment: {
		domain.PaymentPaid:     {},
		domain.PaymentCanceled: {},
	},
	domain.PaymentPaid: {
		domain.PaymentRefunded: {},
		domain.PaymentCanceled: {},
	},
	domain.PaymentRefunded: {},
	domain.PaymentCanceled: {},
}

// InitialStatus returns the status of a newly reserved booking
func InitialStatus(requireConfirmation bool) domain.BookingStatus {
	if requireConfirmation {
		return domain.StatusPending
	}
	return domain.StatusConfirmed
}

// InitialPaymentStatus returns the payment status of a newly reserved booking
func InitialPaymentStatus() domain.PaymentStatus {
	return domain.PaymentRequiresPayment
}

// CanTransition reports whether cur -> req is an edge of the booking graph.
// A request for the current state is not an edge.
func CanTransition(cur, req domain.BookingStatus) bool {
	_, ok := bookingTransitions[cur][req]
	return ok
}

// Apply returns the new booking status. Requesting the current state is an
// idempotent no-op; any other request that is not an edge fails.
func Apply(cur, req domain.BookingStatus) (domain.BookingStatus, error) {
	if !cur.IsValid() {
		return cur, fmt.Errorf("%w: %q", ErrUnknownStatus, cur)
	}
	if !req.IsValid() {
		return cur, fmt.Errorf("%w: %q", ErrUnknownStatus, req)
	}
	if cur == req {
		return cur, nil
	}
	if !CanTransition(cur, req) {
		return cur, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur, req)
	}
	return req, nil
}

// IsTerminal reports whether no transition leaves s
func IsTerminal(s domain.BookingStatus) bool {
	return len(bookingTransitions[s]) == 0
}

// AllowedTransitions lists the statuses reachable from s, for enabling UI actions
func AllowedTransitions(s domain.BookingStatus) []domain.BookingStatus {
	allowed := make([]domain.BookingStatus, 0, len(bookingTransitions[s]))
	// fixed order keeps responses stable
	for _, candidate := range []domain.BookingStatus{
		domain.StatusConfirmed, domain.StatusCompleted, domain.StatusCanceled, domain.StatusNoShow,
	} {
		if CanTransition(s, candidate) {
			allowed = append(allowed, candidate)
		}
	}
	return allowed
}

// CanTransitionPayment reports whether cur -> req is an edge of the payment graph
func CanTransitionPayment(cur, req domain.PaymentStatus) bool {
	_, ok := paymentTransitions[cur][req]
	return ok
}

// ApplyPayment returns the new payment status with the same rules as Apply
func ApplyPayment(cur, req domain.PaymentStatus) (domain.PaymentStatus, error) {
	if !cur.IsValid() {
		return cur, fmt.Errorf("%w: %q", ErrUnknownStatus, cur)
	}
	if !req.IsValid() {
		return cur, fmt.Errorf("%w: %q", ErrUnknownStatus, req)
	}
	if cur == req {
		return cur, nil
	}
	if !CanTransitionPayment(cur, req) {
		return cur, fmt.Errorf("%w: payment %s -> %s", ErrInvalidTransition, cur, req)
	}
	return req, nil
}

// IsTerminalPayment reports whether no transition leaves s
func IsTerminalPayment(s domain.PaymentStatus) bool {
	return len(paymentTransitions[s]) == 0
}
