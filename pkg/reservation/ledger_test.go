package reservation

import (
	"testing"

	"cleaning-reservation-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyOutcome(r *entity.Reservation, out *Outcome) {
	now := at(2025, 3, 5, 12, 0)
	if out.NewRequest != nil {
		r.AdditionalServiceRequests = append(r.AdditionalServiceRequests, *out.NewRequest)
	}
	if out.Resolved != nil {
		r.AdditionalServiceRequests[out.Resolved.Index] = *out.Resolved
	}
	out.Patch.Apply(r, now)
}

func TestRequestServices(t *testing.T) {
	f := newFixture()
	r := f.reservation(entity.ReservationStatusConfirmed)
	now := at(2025, 3, 5, 12, 0)

	out, err := f.rules.RequestServices(r, f.customer, []string{"laundry", " ironing ", "laundry"}, now)
	require.NoError(t, err)
	require.NotNil(t, out.NewRequest)
	assert.Equal(t, 0, out.NewRequest.Index)
	assert.Equal(t, []string{"laundry", "ironing"}, out.NewRequest.Services)
	assert.Equal(t, entity.ServiceRequestStatusPending, out.NewRequest.Status)
	assert.True(t, out.Patch.IsEmpty())
	require.Len(t, out.Events, 1)
	assert.Equal(t, f.cleaner.UserId, out.Events[0].UserId)
	applyOutcome(r, out)

	_, err = f.rules.RequestServices(r, f.cleaner, []string{"ironing"}, now)
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	out, err = f.rules.RequestServices(r, f.cleaner, []string{"fridge"}, now)
	require.NoError(t, err)
	assert.Equal(t, 1, out.NewRequest.Index)
	assert.Equal(t, f.customer.UserId, out.Events[0].UserId)

	_, err = f.rules.RequestServices(r, entity.Actor{UserId: uuid.New(), Role: entity.UserRoleCustomer}, []string{"windows"}, now)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.rules.RequestServices(r, f.customer, []string{}, now)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.rules.RequestServices(f.reservation(entity.ReservationStatusCompleted), f.customer, []string{"windows"}, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestResolveRequest_ApproveScenario(t *testing.T) {
	f := newFixture()
	r := f.reservation(entity.ReservationStatusConfirmed)
	now := at(2025, 3, 5, 12, 0)

	out, err := f.rules.RequestServices(r, f.customer, []string{"laundry", "ironing"}, now)
	require.NoError(t, err)
	applyOutcome(r, out)

	out, err = f.rules.ResolveRequest(r, f.cleaner, 0, entity.ServiceRequestStatusApproved, now)
	require.NoError(t, err)
	require.NotNil(t, out.Resolved)
	assert.Equal(t, 0, out.Resolved.Index)
	assert.Equal(t, entity.ServiceRequestStatusApproved, out.Resolved.Status)
	assert.ElementsMatch(t, []string{"laundry", "ironing"}, out.Patch.AdditionalServices)
	require.Len(t, out.Events, 1)
	assert.Equal(t, f.customer.UserId, out.Events[0].UserId)
	assert.Equal(t, entity.NotificationKindServiceResolved, out.Events[0].Kind)

	applyOutcome(r, out)
	assert.Len(t, r.AdditionalServiceRequests, 1)
	assert.ElementsMatch(t, []string{"laundry", "ironing"}, r.AdditionalServices)

	_, err = f.rules.RequestServices(r, f.customer, []string{"laundry"}, now)
	assert.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestResolveRequest_OneWay(t *testing.T) {
	f := newFixture()
	r := f.reservation(entity.ReservationStatusConfirmed)
	now := at(2025, 3, 5, 12, 0)

	out, err := f.rules.RequestServices(r, f.cleaner, []string{"balcony"}, now)
	require.NoError(t, err)
	applyOutcome(r, out)

	out, err = f.rules.ResolveRequest(r, f.customer, 0, entity.ServiceRequestStatusDeclined, now)
	require.NoError(t, err)
	assert.Nil(t, out.Patch.AdditionalServices)
	applyOutcome(r, out)

	before := append([]string(nil), r.AdditionalServices...)
	_, err = f.rules.ResolveRequest(r, f.customer, 0, entity.ServiceRequestStatusApproved, now)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
	assert.Equal(t, before, r.AdditionalServices)
	assert.Equal(t, entity.ServiceRequestStatusDeclined, r.AdditionalServiceRequests[0].Status)
}

func TestResolveRequest_Guards(t *testing.T) {
	f := newFixture()
	r := f.reservation(entity.ReservationStatusConfirmed)
	now := at(2025, 3, 5, 12, 0)

	out, err := f.rules.RequestServices(r, f.customer, []string{"laundry"}, now)
	require.NoError(t, err)
	applyOutcome(r, out)

	_, err = f.rules.ResolveRequest(r, f.customer, 0, entity.ServiceRequestStatusApproved, now)
	assert.ErrorIs(t, err, ErrForbidden, "requester cannot approve their own request")

	_, err = f.rules.ResolveRequest(r, f.cleaner, 3, entity.ServiceRequestStatusApproved, now)
	assert.ErrorIs(t, err, ErrRequestNotFound)

	_, err = f.rules.ResolveRequest(r, f.cleaner, 0, entity.ServiceRequestStatusPending, now)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.rules.ResolveRequest(r, f.admin, 0, entity.ServiceRequestStatusApproved, now)
	assert.NoError(t, err)
}
