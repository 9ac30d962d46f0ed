package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cleaning-reservation-be/internal/entity"
	"cleaning-reservation-be/internal/pkg/logger"
	"cleaning-reservation-be/internal/repository/memory"
	"cleaning-reservation-be/pkg/clock"
	"cleaning-reservation-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeEmitter struct {
	mu      sync.Mutex
	failFor map[uuid.UUID]bool
	emitted []uuid.UUID
}

func (e *fakeEmitter) Emit(ctx context.Context, eventId uuid.UUID, intent entity.NotificationIntent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failFor[eventId] {
		return errors.New("bus unavailable")
	}
	e.emitted = append(e.emitted, eventId)
	return nil
}

func (e *fakeEmitter) setFailing(id uuid.UUID, failing bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failFor[id] = failing
}

func pendingCount(store *memory.Store) int {
	n := 0
	for _, e := range store.OutboxSnapshot() {
		if e.DispatchedAt == nil {
			n++
		}
	}
	return n
}

func TestOutboxDispatcher_DeliversAndRelays(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.NewStore()
	factory := memory.NewRepositoryFactory(store)
	now := time.Date(2025, 3, 10, 10, 20, 0, 0, time.UTC)

	rows := []*entity.OutboxEvent{
		{Id: uuid.New(), ReservationId: uuid.New(), CreatedAt: now, Intent: entity.NotificationIntent{UserId: uuid.New(), Title: "late", Kind: entity.NotificationKindLateArrival}},
		{Id: uuid.New(), ReservationId: uuid.New(), CreatedAt: now, Intent: entity.NotificationIntent{UserId: uuid.New(), Title: "cancelled", Kind: entity.NotificationKindCancelled}},
	}
	require.NoError(t, factory.NewUnitOfWork(ctx).OutboxRepository().Append(ctx, rows))

	emitter := &fakeEmitter{failFor: map[uuid.UUID]bool{rows[1].Id: true}}
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	d := NewOutboxDispatcher(pubSub, "test.notifications", factory, emitter, clock.NewFixed(now), logger.NewNopLogger(), 10)
	require.NoError(t, d.Consume(ctx))

	d.Dispatch(ctx, rows)
	require.Eventually(t, func() bool { return pendingCount(store) == 1 }, time.Second, 10*time.Millisecond)

	for _, e := range store.OutboxSnapshot() {
		if e.Id == rows[0].Id {
			require.NotNil(t, e.DispatchedAt)
			assert.True(t, e.DispatchedAt.Equal(now))
		}
	}

	emitter.setFailing(rows[1].Id, false)
	relayed, err := d.RelayPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, relayed)
	require.Eventually(t, func() bool { return pendingCount(store) == 0 }, time.Second, 10*time.Millisecond)

	relayed, err = d.RelayPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, relayed)

	require.NoError(t, pubSub.Close())
	d.Wait()
	assert.ElementsMatch(t, []uuid.UUID{rows[0].Id, rows[1].Id}, emitter.emitted)
}

func TestOutboxDispatcher_RelayEveryRetriesFailedEmit(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.NewStore()
	factory := memory.NewRepositoryFactory(store)
	now := time.Date(2025, 3, 10, 10, 20, 0, 0, time.UTC)

	row := &entity.OutboxEvent{Id: uuid.New(), ReservationId: uuid.New(), CreatedAt: now, Intent: entity.NotificationIntent{UserId: uuid.New(), Title: "status changed", Kind: entity.NotificationKindStatusChanged}}
	require.NoError(t, factory.NewUnitOfWork(ctx).OutboxRepository().Append(ctx, []*entity.OutboxEvent{row}))

	emitter := &fakeEmitter{failFor: map[uuid.UUID]bool{row.Id: true}}
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	d := NewOutboxDispatcher(pubSub, "test.notifications", factory, emitter, clock.NewFixed(now), logger.NewNopLogger(), 10)
	require.NoError(t, d.Consume(ctx))

	relayCtx, stopRelay := context.WithCancel(ctx)
	d.RelayEvery(relayCtx, 10*time.Millisecond)

	d.Dispatch(ctx, []*entity.OutboxEvent{row})
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, pendingCount(store))

	emitter.setFailing(row.Id, false)
	require.Eventually(t, func() bool { return pendingCount(store) == 0 }, time.Second, 10*time.Millisecond)

	stopRelay()
	require.NoError(t, pubSub.Close())
	d.Wait()
	assert.Contains(t, emitter.emitted, row.Id)
}

type fakePublisher struct {
	published []map[string]interface{}
	types     []string
}

func (p *fakePublisher) Publish(ctx context.Context, event events.Event) error {
	p.types = append(p.types, event.EventType())
	p.published = append(p.published, event.Payload())
	return nil
}

func TestNatsNotificationEmitter_Payload(t *testing.T) {
	pub := &fakePublisher{}
	emitter := NewNatsNotificationEmitter(pub)

	id := uuid.New()
	intent := entity.NotificationIntent{
		UserId:    uuid.New(),
		Title:     "Cleaner running late",
		Message:   "about 20 minutes late",
		Kind:      entity.NotificationKindLateArrival,
		ActionRef: "/reservations/1",
	}
	require.NoError(t, emitter.Emit(context.Background(), id, intent))

	require.Len(t, pub.published, 1)
	assert.Equal(t, "RESERVATION_NOTIFICATION", pub.types[0])
	assert.Equal(t, id.String(), pub.published[0]["id"])
	assert.Equal(t, intent.UserId.String(), pub.published[0]["user_id"])
	assert.Equal(t, "RESERVATION_LATE_ARRIVAL", pub.published[0]["kind"])
	assert.Equal(t, "/reservations/1", pub.published[0]["action_ref"])
}
