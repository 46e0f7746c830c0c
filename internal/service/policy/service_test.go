package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ClinicBooking/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ClinicBooking/internal/service/policy/models"
	"github.com/m04kA/SMC-ClinicBooking/pkg/logger"
	"github.com/m04kA/SMC-ClinicBooking/pkg/ptr"
)

func newService(t *testing.T) *Service {
	t.Helper()

	store := memory.NewStore()
	require.NoError(t, memory.SeedDemo(store))

	return NewService(store.Policies(), store.Catalog(), store.TxManager(), logger.NewNop())
}

func TestGetEffective_DefaultsWhenNothingConfigured(t *testing.T) {
	svc := newService(t)

	resp, err := svc.GetEffective(context.Background(), &models.GetPolicyRequest{SpecialistID: ptr.Ptr(int64(1))})
	require.NoError(t, err)
	assert.Equal(t, models.LevelDefault, resp.Level)
	assert.False(t, resp.RequireConfirmation)
	assert.Equal(t, 0, resp.AdvanceBookingDays)
	assert.Nil(t, resp.CreatedAt)
}

func TestUpsert_CreateThenUpdate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, isNew, err := svc.Upsert(ctx, &models.UpsertPolicyRequest{
		SpecialistID:        ptr.Ptr(int64(1)),
		RequireConfirmation: true,
		AdvanceBookingDays:  14,
	})
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, models.LevelSpecialist, created.Level)

	updated, isNew, err := svc.Upsert(ctx, &models.UpsertPolicyRequest{
		SpecialistID:       ptr.Ptr(int64(1)),
		AdvanceBookingDays: 30,
	})
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, created.ID, updated.ID)
	assert.False(t, updated.RequireConfirmation)
	assert.Equal(t, 30, updated.AdvanceBookingDays)

	list, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, list.Policies, 1)
}

func TestGetEffective_Hierarchy(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, _, err := svc.Upsert(ctx, &models.UpsertPolicyRequest{AdvanceBookingDays: 60})
	require.NoError(t, err)
	_, _, err = svc.Upsert(ctx, &models.UpsertPolicyRequest{ServiceID: ptr.Ptr(int64(3)), RequireConfirmation: true})
	require.NoError(t, err)
	_, _, err = svc.Upsert(ctx, &models.UpsertPolicyRequest{SpecialistID: ptr.Ptr(int64(2)), ServiceID: ptr.Ptr(int64(3)), AdvanceBookingDays: 7})
	require.NoError(t, err)

	tests := []struct {
		name         string
		specialistID *int64
		serviceID    *int64
		wantLevel    string
	}{
		{name: "exact pair", specialistID: ptr.Ptr(int64(2)), serviceID: ptr.Ptr(int64(3)), wantLevel: models.LevelServiceOfSpecialist},
		{name: "service wide", specialistID: ptr.Ptr(int64(1)), serviceID: ptr.Ptr(int64(3)), wantLevel: models.LevelService},
		{name: "global", specialistID: ptr.Ptr(int64(1)), serviceID: ptr.Ptr(int64(1)), wantLevel: models.LevelGlobal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.GetEffective(ctx, &models.GetPolicyRequest{SpecialistID: tt.specialistID, ServiceID: tt.serviceID})
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, resp.Level)
		})
	}
}

func TestUpsert_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     *models.UpsertPolicyRequest
		wantErr error
	}{
		{name: "negative advance days", req: &models.UpsertPolicyRequest{AdvanceBookingDays: -1}, wantErr: ErrInvalidInput},
		{name: "advance days over a year", req: &models.UpsertPolicyRequest{AdvanceBookingDays: 366}, wantErr: ErrInvalidInput},
		{name: "zero specialist id", req: &models.UpsertPolicyRequest{SpecialistID: ptr.Ptr(int64(0))}, wantErr: ErrInvalidInput},
		{name: "unknown specialist", req: &models.UpsertPolicyRequest{SpecialistID: ptr.Ptr(int64(99))}, wantErr: ErrSpecialistNotFound},
		{name: "unknown service", req: &models.UpsertPolicyRequest{ServiceID: ptr.Ptr(int64(99))}, wantErr: ErrServiceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t)
			_, _, err := svc.Upsert(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetSpecialistConfig(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, _, err := svc.Upsert(ctx, &models.UpsertPolicyRequest{SpecialistID: ptr.Ptr(int64(2)), RequireConfirmation: true})
	require.NoError(t, err)

	resp, err := svc.GetSpecialistConfig(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Petrov", resp.Name)
	assert.Equal(t, "Europe/Moscow", resp.TZID)
	assert.Equal(t, 15, resp.SlotDurationMinutes)
	assert.Equal(t, []int64{1, 3}, resp.ServiceIDs)
	assert.True(t, resp.Policy.RequireConfirmation)

	require.Len(t, resp.WorkingHours, 3)
	assert.Equal(t, "Monday", resp.WorkingHours[0].Weekday)
	assert.Equal(t, "Saturday", resp.WorkingHours[2].Weekday)
	assert.Equal(t, models.TimeRangeResponse{Open: "13:00", Close: "20:00"}, resp.WorkingHours[0].Ranges[1])

	_, err = svc.GetSpecialistConfig(ctx, 99)
	assert.ErrorIs(t, err, ErrSpecialistNotFound)
}
