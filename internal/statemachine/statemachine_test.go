package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ClinicBooking/internal/domain"
)

var allStatuses = []domain.BookingStatus{
	domain.StatusPending,
	domain.StatusConfirmed,
	domain.StatusCompleted,
	domain.StatusCanceled,
	domain.StatusNoShow,
}

var allPayments = []domain.PaymentStatus{
	domain.PaymentRequiresPayment,
	domain.PaymentPaid,
	domain.PaymentRefunded,
	domain.PaymentCanceled,
}

func TestApply_Table(t *testing.T) {
	legal := map[[2]domain.BookingStatus]bool{
		{domain.StatusPending, domain.StatusConfirmed}:   true,
		{domain.StatusPending, domain.StatusCanceled}:    true,
		{domain.StatusConfirmed, domain.StatusCompleted}: true,
		{domain.StatusConfirmed, domain.StatusCanceled}:  true,
		{domain.StatusConfirmed, domain.StatusNoShow}:    true,
	}

	for _, cur := range allStatuses {
		for _, req := range allStatuses {
			t.Run(string(cur)+"->"+string(req), func(t *testing.T) {
				got, err := Apply(cur, req)

				switch {
				case cur == req:
					require.NoError(t, err)
					assert.Equal(t, cur, got)
					assert.False(t, CanTransition(cur, req))
				case legal[[2]domain.BookingStatus{cur, req}]:
					require.NoError(t, err)
					assert.Equal(t, req, got)
					assert.True(t, CanTransition(cur, req))
				default:
					assert.ErrorIs(t, err, ErrInvalidTransition)
					assert.Equal(t, cur, got)
					assert.False(t, CanTransition(cur, req))
				}
			})
		}
	}
}

func TestApply_Properties(t *testing.T) {
	_, err := Apply(domain.StatusCanceled, domain.StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := Apply(domain.StatusPending, domain.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, got)

	for _, s := range allStatuses {
		if s != domain.StatusPending {
			assert.False(t, CanTransition(s, domain.StatusPending), "no edge into PENDING from %s", s)
		}
	}
}

func TestApply_UnknownStatus(t *testing.T) {
	_, err := Apply(domain.StatusPending, "ARCHIVED")
	assert.ErrorIs(t, err, ErrUnknownStatus)

	_, err = Apply("ARCHIVED", domain.StatusPending)
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(domain.StatusPending))
	assert.False(t, IsTerminal(domain.StatusConfirmed))
	assert.True(t, IsTerminal(domain.StatusCompleted))
	assert.True(t, IsTerminal(domain.StatusCanceled))
	assert.True(t, IsTerminal(domain.StatusNoShow))
}

func TestAllowedTransitions(t *testing.T) {
	assert.Equal(t, []domain.BookingStatus{domain.StatusConfirmed, domain.StatusCanceled},
		AllowedTransitions(domain.StatusPending))
	assert.Equal(t, []domain.BookingStatus{domain.StatusCompleted, domain.StatusCanceled, domain.StatusNoShow},
		AllowedTransitions(domain.StatusConfirmed))
	assert.Empty(t, AllowedTransitions(domain.StatusCanceled))
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, domain.StatusPending, InitialStatus(true))
	assert.Equal(t, domain.StatusConfirmed, InitialStatus(false))
	assert.Equal(t, domain.PaymentRequiresPayment, InitialPaymentStatus())
}

func TestApplyPayment_Table(t *testing.T) {
	legal := map[[2]domain.PaymentStatus]bool{
		{domain.PaymentRequiresPayment, domain.PaymentPaid}:     true,
		{domain.PaymentRequiresPayment, domain.PaymentCanceled}: true,
		{domain.PaymentPaid, domain.PaymentRefunded}:            true,
		{domain.PaymentPaid, domain.PaymentCanceled}:            true,
	}

	for _, cur := range allPayments {
		for _, req := range allPayments {
			got, err := ApplyPayment(cur, req)

			switch {
			case cur == req:
				assert.NoError(t, err)
				assert.Equal(t, cur, got)
			case legal[[2]domain.PaymentStatus{cur, req}]:
				assert.NoError(t, err, "%s -> %s", cur, req)
				assert.Equal(t, req, got)
			default:
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", cur, req)
			}
		}
	}

	assert.True(t, IsTerminalPayment(domain.PaymentRefunded))
	assert.True(t, IsTerminalPayment(domain.PaymentCanceled))
	assert.False(t, IsTerminalPayment(domain.PaymentPaid))
}
