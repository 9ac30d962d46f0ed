package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"cleaning-reservation-be/internal/dto"
	"cleaning-reservation-be/internal/entity"
	"cleaning-reservation-be/internal/pkg/logger"
	"cleaning-reservation-be/internal/repository/memory"
	"cleaning-reservation-be/internal/repository/specification"
	"cleaning-reservation-be/internal/repository/unitofwork"
	"cleaning-reservation-be/pkg/clock"
	"cleaning-reservation-be/pkg/reservation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kst = time.FixedZone("KST", 9*60*60)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, kst)
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []*entity.OutboxEvent
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, events []*entity.OutboxEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, events...)
}

func (d *recordingDispatcher) Consume(ctx context.Context) error                      { return nil }
func (d *recordingDispatcher) RelayPending(ctx context.Context) (int, error)          { return 0, nil }
func (d *recordingDispatcher) RelayEvery(ctx context.Context, interval time.Duration) {}
func (d *recordingDispatcher) Wait()                                                  {}

func (d *recordingDispatcher) dispatched() []*entity.OutboxEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*entity.OutboxEvent(nil), d.events...)
}

// barrierFactory holds every commit until n units of work have reached it, so
// that all of them read the same version first.
type barrierFactory struct {
	inner   unitofwork.RepositoryFactory
	barrier *sync.WaitGroup
}

func (f *barrierFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &barrierUnitOfWork{UnitOfWork: f.inner.NewUnitOfWork(ctx), barrier: f.barrier}
}

type barrierUnitOfWork struct {
	unitofwork.UnitOfWork
	barrier *sync.WaitGroup
}

func (u *barrierUnitOfWork) Commit() error {
	u.barrier.Done()
	u.barrier.Wait()
	return u.UnitOfWork.Commit()
}

type harness struct {
	ctx        context.Context
	store      *memory.Store
	factory    unitofwork.RepositoryFactory
	clock      *clock.Fixed
	rules      *reservation.Rules
	dispatcher *recordingDispatcher
	svc        IReservationService

	customer entity.Actor
	cleaner  entity.Actor
	admin    entity.Actor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		ctx:        context.Background(),
		store:      memory.NewStore(),
		clock:      clock.NewFixed(at(2025, 3, 5, 12, 0)),
		rules:      reservation.NewRules(reservation.NewCalculator(kst)),
		dispatcher: &recordingDispatcher{},
		customer:   entity.Actor{UserId: uuid.New(), Role: entity.UserRoleCustomer},
		cleaner:    entity.Actor{UserId: uuid.New(), Role: entity.UserRoleCleaner},
		admin:      entity.Actor{UserId: uuid.New(), Role: entity.UserRoleAdmin},
	}
	h.factory = memory.NewRepositoryFactory(h.store)
	h.svc = h.serviceOn(h.factory)

	for _, a := range []entity.Actor{h.customer, h.cleaner, h.admin} {
		h.seedUser(t, a, 0)
	}
	return h
}

func (h *harness) serviceOn(factory unitofwork.RepositoryFactory) IReservationService {
	return NewReservationService(factory, h.rules, h.clock, memory.NewQuotaCache(time.Minute, 0), h.dispatcher, logger.NewNopLogger())
}

func (h *harness) seedUser(t *testing.T, a entity.Actor, used int) {
	t.Helper()
	err := h.factory.NewUnitOfWork(h.ctx).UserRepository().Create(h.ctx, &entity.User{
		Id:                       a.UserId,
		Role:                     a.Role,
		MonthlyCancellationLimit: 3,
		MonthlyCancellations:     used,
	})
	require.NoError(t, err)
}

func (h *harness) user(t *testing.T, id uuid.UUID) *entity.User {
	t.Helper()
	u, err := h.factory.NewUnitOfWork(h.ctx).UserRepository().FindOne(h.ctx, specification.ByID{ID: id})
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func (h *harness) book(t *testing.T, dates ...string) uuid.UUID {
	t.Helper()
	if len(dates) == 0 {
		dates = []string{"2025-03-10"}
	}
	res, err := h.svc.Create(h.ctx, h.customer, &dto.CreateReservationRequest{
		ServiceDates:  dates,
		ServiceTime:   "10:00",
		DurationHours: 4,
		Amount:        80000,
		Address:       dto.AddressRequest{Line1: "12 Teheran-ro", City: "Seoul"},
	})
	require.NoError(t, err)
	return res.Id
}

func (h *harness) advance(t *testing.T, actor entity.Actor, id uuid.UUID, status entity.ReservationStatus) *dto.ReservationResponse {
	t.Helper()
	req := &dto.AdvanceStatusRequest{Status: string(status)}
	if status == entity.ReservationStatusMatched {
		cleanerId := h.cleaner.UserId
		req.CleanerId = &cleanerId
	}
	res, err := h.svc.AdvanceStatus(h.ctx, actor, id, req)
	require.NoError(t, err)
	return res
}

func (h *harness) bookConfirmed(t *testing.T) uuid.UUID {
	t.Helper()
	id := h.book(t)
	h.advance(t, h.admin, id, entity.ReservationStatusMatching)
	h.advance(t, h.admin, id, entity.ReservationStatusMatched)
	h.advance(t, h.admin, id, entity.ReservationStatusPaymentComplete)
	h.advance(t, h.admin, id, entity.ReservationStatusConfirmed)
	return id
}

func TestReservationService_Lifecycle(t *testing.T) {
	h := newHarness(t)
	id := h.bookConfirmed(t)

	h.advance(t, h.cleaner, id, entity.ReservationStatusOnTheWay)
	h.advance(t, h.cleaner, id, entity.ReservationStatusCleaning)
	res := h.advance(t, h.cleaner, id, entity.ReservationStatusCompleted)

	assert.Equal(t, string(entity.ReservationStatusCompleted), res.Status)
	assert.Equal(t, int64(8), res.Version)

	sent := h.dispatcher.dispatched()
	require.Len(t, sent, 3)
	for _, e := range sent {
		assert.Equal(t, h.customer.UserId, e.Intent.UserId)
		assert.Equal(t, entity.NotificationKindStatusChanged, e.Intent.Kind)
	}
	assert.Len(t, h.store.OutboxSnapshot(), 3)

	_, err := h.svc.AdvanceStatus(h.ctx, h.cleaner, id, &dto.AdvanceStatusRequest{Status: string(entity.ReservationStatusCompleted)})
	assert.ErrorIs(t, err, reservation.ErrAlreadyCompleted)

	stored, err := h.svc.Show(h.ctx, h.customer, id)
	require.NoError(t, err)
	assert.Equal(t, res.Version, stored.Version)
	assert.Equal(t, h.cleaner.UserId, *stored.CleanerId)
}

func TestReservationService_ShowHidesOtherUsersBookings(t *testing.T) {
	h := newHarness(t)
	id := h.book(t)

	stranger := entity.Actor{UserId: uuid.New(), Role: entity.UserRoleCustomer}
	_, err := h.svc.Show(h.ctx, stranger, id)
	assert.ErrorIs(t, err, reservation.ErrNotFound)

	_, err = h.svc.Show(h.ctx, h.customer, uuid.New())
	assert.ErrorIs(t, err, reservation.ErrNotFound)

	_, err = h.svc.Show(h.ctx, h.admin, id)
	assert.NoError(t, err)

	list, err := h.svc.List(h.ctx, stranger, &dto.ListReservationsRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Data)
	assert.Zero(t, list.Total)

	list, err = h.svc.List(h.ctx, h.customer, &dto.ListReservationsRequest{Status: "pending"})
	require.NoError(t, err)
	assert.Len(t, list.Data, 1)

	_, err = h.svc.List(h.ctx, h.customer, &dto.ListReservationsRequest{Status: "archived"})
	assert.ErrorIs(t, err, reservation.ErrValidation)
}

func TestReservationService_ListFiltersByFirstServiceDate(t *testing.T) {
	h := newHarness(t)
	early := h.book(t, "2025-03-08")
	onDay := h.book(t, "2025-03-12", "2025-03-20")
	later := h.book(t, "2025-04-02")
	h.book(t, "2025-03-09")

	list, err := h.svc.List(h.ctx, h.customer, &dto.ListReservationsRequest{From: "2025-03-12"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
	ids := make([]uuid.UUID, 0, len(list.Data))
	for _, r := range list.Data {
		ids = append(ids, r.Id)
	}
	assert.ElementsMatch(t, []uuid.UUID{onDay, later}, ids)
	assert.NotContains(t, ids, early)

	page, err := h.svc.List(h.ctx, h.customer, &dto.ListReservationsRequest{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total, "total ignores paging")
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 1, page.Limit)

	_, err = h.svc.List(h.ctx, h.customer, &dto.ListReservationsRequest{From: "12/03/2025"})
	assert.ErrorIs(t, err, reservation.ErrValidation)
}

func TestReservationService_CancelWindow(t *testing.T) {
	h := newHarness(t)
	open := h.bookConfirmed(t)
	closed := h.bookConfirmed(t)

	h.clock.Set(at(2025, 3, 9, 16, 59))
	res, err := h.svc.Cancel(h.ctx, h.customer, open, &dto.CancelReservationRequest{Reason: "plans changed"})
	require.NoError(t, err)
	assert.Equal(t, string(entity.ReservationStatusCancelled), res.Status)
	assert.Equal(t, "plans changed", *res.CancellationReason)

	h.clock.Set(at(2025, 3, 9, 17, 1))
	_, err = h.svc.Cancel(h.ctx, h.customer, closed, &dto.CancelReservationRequest{})
	assert.ErrorIs(t, err, reservation.ErrWindowClosed)

	assert.Equal(t, 1, h.user(t, h.customer.UserId).MonthlyCancellations)
}

func TestReservationService_CancelNotifiesCleanerAndConsumesQuota(t *testing.T) {
	h := newHarness(t)
	id := h.bookConfirmed(t)

	_, err := h.svc.Cancel(h.ctx, h.customer, id, &dto.CancelReservationRequest{})
	require.NoError(t, err)

	sent := h.dispatcher.dispatched()
	require.Len(t, sent, 1)
	assert.Equal(t, h.cleaner.UserId, sent[0].Intent.UserId)
	assert.Equal(t, entity.NotificationKindCancelled, sent[0].Intent.Kind)
	assert.Equal(t, 1, h.user(t, h.customer.UserId).MonthlyCancellations)
}

func TestReservationService_AdminCancelSkipsQuota(t *testing.T) {
	h := newHarness(t)
	id := h.bookConfirmed(t)
	h.clock.Set(at(2025, 3, 10, 9, 0))

	_, err := h.svc.Cancel(h.ctx, h.admin, id, &dto.CancelReservationRequest{Reason: "cleaner unavailable"})
	require.NoError(t, err)

	assert.Equal(t, 0, h.user(t, h.customer.UserId).MonthlyCancellations)
	recipients := []uuid.UUID{}
	for _, e := range h.dispatcher.dispatched() {
		recipients = append(recipients, e.Intent.UserId)
	}
	assert.ElementsMatch(t, []uuid.UUID{h.customer.UserId, h.cleaner.UserId}, recipients)
}

func TestReservationService_QuotaExceededWritesNothing(t *testing.T) {
	h := newHarness(t)
	h.customer = entity.Actor{UserId: uuid.New(), Role: entity.UserRoleCustomer}
	h.seedUser(t, h.customer, 3)
	id := h.bookConfirmed(t)
	before := h.store.OutboxSnapshot()

	_, err := h.svc.Cancel(h.ctx, h.customer, id, &dto.CancelReservationRequest{})
	assert.ErrorIs(t, err, reservation.ErrQuotaExceeded)

	u := h.user(t, h.customer.UserId)
	assert.Equal(t, 3, u.MonthlyCancellations)
	assert.Equal(t, 3, u.MonthlyCancellationLimit)

	res, err := h.svc.Show(h.ctx, h.customer, id)
	require.NoError(t, err)
	assert.Equal(t, string(entity.ReservationStatusConfirmed), res.Status)
	assert.Equal(t, before, h.store.OutboxSnapshot())
	assert.Empty(t, h.dispatcher.dispatched())
}

func TestReservationService_Reschedule(t *testing.T) {
	h := newHarness(t)
	id := h.bookConfirmed(t)

	res, err := h.svc.Reschedule(h.ctx, h.customer, id, &dto.RescheduleReservationRequest{
		ServiceDates: []string{"2025-03-12", "2025-03-13"},
		ServiceTime:  "14:00",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-12", "2025-03-13"}, res.ServiceDates)
	assert.Equal(t, "14:00", res.ServiceTime)

	sent := h.dispatcher.dispatched()
	require.Len(t, sent, 1)
	assert.Equal(t, h.cleaner.UserId, sent[0].Intent.UserId)
	assert.Equal(t, entity.NotificationKindRescheduled, sent[0].Intent.Kind)

	_, err = h.svc.Reschedule(h.ctx, h.cleaner, id, &dto.RescheduleReservationRequest{
		ServiceDates: []string{"2025-03-14"},
		ServiceTime:  "10:00",
	})
	assert.ErrorIs(t, err, reservation.ErrForbidden)
}

func TestReservationService_ReportLate(t *testing.T) {
	h := newHarness(t)
	id := h.bookConfirmed(t)
	h.advance(t, h.cleaner, id, entity.ReservationStatusOnTheWay)
	h.clock.Set(at(2025, 3, 10, 10, 20))

	res, err := h.svc.ReportLate(h.ctx, h.cleaner, id)
	require.NoError(t, err)
	assert.Equal(t, 20, res.DelayMinutes)
	assert.InDelta(t, 3.67, res.DurationHours, 0.001)
	assert.True(t, res.Reservation.IsLate)
	assert.InDelta(t, 3.67, res.Reservation.DurationHours, 0.001)

	sent := h.dispatcher.dispatched()
	last := sent[len(sent)-1]
	assert.Equal(t, h.customer.UserId, last.Intent.UserId)
	assert.Equal(t, entity.NotificationKindLateArrival, last.Intent.Kind)

	_, err = h.svc.ReportLate(h.ctx, h.cleaner, id)
	assert.ErrorIs(t, err, reservation.ErrAlreadyLate)
}

func TestReservationService_ServiceRequestApproval(t *testing.T) {
	h := newHarness(t)
	id := h.bookConfirmed(t)

	res, err := h.svc.RequestServices(h.ctx, h.customer, id, &dto.RequestServicesRequest{Services: []string{"laundry", "ironing"}})
	require.NoError(t, err)
	require.Len(t, res.AdditionalServiceRequests, 1)
	assert.Equal(t, string(entity.ServiceRequestStatusPending), res.AdditionalServiceRequests[0].Status)

	res, err = h.svc.ResolveServiceRequest(h.ctx, h.cleaner, id, 0, &dto.ResolveServiceRequestRequest{Decision: "approved"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"laundry", "ironing"}, res.AdditionalServices)
	assert.Equal(t, string(entity.ServiceRequestStatusApproved), res.AdditionalServiceRequests[0].Status)

	stored, err := h.svc.Show(h.ctx, h.customer, id)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"laundry", "ironing"}, stored.AdditionalServices)
	require.Len(t, stored.AdditionalServiceRequests, 1)
	assert.Equal(t, string(entity.ServiceRequestStatusApproved), stored.AdditionalServiceRequests[0].Status)
	assert.Equal(t, res.Version, stored.Version)

	sent := h.dispatcher.dispatched()
	require.Len(t, sent, 2)
	assert.Equal(t, h.cleaner.UserId, sent[0].Intent.UserId)
	assert.Equal(t, h.customer.UserId, sent[1].Intent.UserId)
	assert.Equal(t, entity.NotificationKindServiceResolved, sent[1].Intent.Kind)

	_, err = h.svc.ResolveServiceRequest(h.ctx, h.cleaner, id, 0, &dto.ResolveServiceRequestRequest{Decision: "declined"})
	assert.ErrorIs(t, err, reservation.ErrAlreadyResolved)
}

func TestReservationService_EligibilityUsesFreshQuota(t *testing.T) {
	h := newHarness(t)
	first := h.bookConfirmed(t)
	second := h.bookConfirmed(t)

	e, err := h.svc.Eligibility(h.ctx, h.customer, first)
	require.NoError(t, err)
	assert.True(t, e.CanModify)
	assert.False(t, e.SameDay)
	assert.Equal(t, at(2025, 3, 9, 17, 0), e.Cutoff)
	assert.Equal(t, int64((4*24+5)*3600), e.SecondsUntilCutoff)
	assert.Equal(t, 3, e.RemainingCancellations)

	_, err = h.svc.Cancel(h.ctx, h.customer, second, &dto.CancelReservationRequest{})
	require.NoError(t, err)

	e, err = h.svc.Eligibility(h.ctx, h.customer, first)
	require.NoError(t, err)
	assert.Equal(t, 2, e.RemainingCancellations)

	h.clock.Set(at(2025, 3, 10, 8, 0))
	e, err = h.svc.Eligibility(h.ctx, h.cleaner, first)
	require.NoError(t, err)
	assert.False(t, e.CanModify)
	assert.True(t, e.SameDay)
	assert.Zero(t, e.SecondsUntilCutoff)
}

func TestReservationService_ConcurrentCancelAndLateReport(t *testing.T) {
	h := newHarness(t)
	id := h.bookConfirmed(t)
	h.advance(t, h.cleaner, id, entity.ReservationStatusOnTheWay)
	h.clock.Set(at(2025, 3, 10, 10, 20))
	sentBefore := len(h.dispatcher.dispatched())
	outboxBefore := len(h.store.OutboxSnapshot())

	barrier := &sync.WaitGroup{}
	barrier.Add(2)
	racing := h.serviceOn(&barrierFactory{inner: h.factory, barrier: barrier})

	var wg sync.WaitGroup
	var cancelErr, lateErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, cancelErr = racing.Cancel(h.ctx, h.admin, id, &dto.CancelReservationRequest{Reason: "no show"})
	}()
	go func() {
		defer wg.Done()
		_, lateErr = racing.ReportLate(h.ctx, h.cleaner, id)
	}()
	wg.Wait()

	if cancelErr == nil {
		assert.ErrorIs(t, lateErr, reservation.ErrConflict)
	} else {
		assert.ErrorIs(t, cancelErr, reservation.ErrConflict)
		assert.NoError(t, lateErr)
	}

	// only the winner's notifications exist
	newRows := h.store.OutboxSnapshot()[outboxBefore:]
	newSent := h.dispatcher.dispatched()[sentBefore:]
	assert.Equal(t, len(newRows), len(newSent))
	if cancelErr == nil {
		assert.Len(t, newRows, 2)
	} else {
		assert.Len(t, newRows, 1)
	}

	stored, err := h.svc.Show(h.ctx, h.admin, id)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stored.Version)
	if cancelErr == nil {
		assert.Equal(t, string(entity.ReservationStatusCancelled), stored.Status)
		assert.False(t, stored.IsLate)
	} else {
		assert.Equal(t, string(entity.ReservationStatusOnTheWay), stored.Status)
		assert.True(t, stored.IsLate)
	}
}

func TestReservationService_ConcurrentCancelsRespectQuota(t *testing.T) {
	h := newHarness(t)
	h.customer = entity.Actor{UserId: uuid.New(), Role: entity.UserRoleCustomer}
	h.seedUser(t, h.customer, 2)
	a := h.bookConfirmed(t)
	b := h.bookConfirmed(t)

	barrier := &sync.WaitGroup{}
	barrier.Add(2)
	racing := h.serviceOn(&barrierFactory{inner: h.factory, barrier: barrier})

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, id := range []uuid.UUID{a, b} {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = racing.Cancel(h.ctx, h.customer, id, &dto.CancelReservationRequest{})
		}(i, id)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, reservation.ErrQuotaExceeded)
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 3, h.user(t, h.customer.UserId).MonthlyCancellations)
}
