// FILE: internal/service/outbox_dispatcher.go
package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"cleaning-reservation-be/internal/entity"
	"cleaning-reservation-be/internal/pkg/logger"
	"cleaning-reservation-be/internal/repository/unitofwork"
	"cleaning-reservation-be/pkg/clock"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const emitTimeout = 5 * time.Second

// IOutboxDispatcher hands committed outbox rows to the notification emitter
// off the request path.
type IOutboxDispatcher interface {
	Dispatch(ctx context.Context, events []*entity.OutboxEvent)
	Consume(ctx context.Context) error
	RelayPending(ctx context.Context) (int, error)
	RelayEvery(ctx context.Context, interval time.Duration)
	Wait()
}

type outboxMessage struct {
	Id            uuid.UUID                 `json:"id"`
	ReservationId uuid.UUID                 `json:"reservation_id"`
	Intent        entity.NotificationIntent `json:"intent"`
}

type outboxDispatcher struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	emitter    NotificationEmitter
	clock      clock.Clock
	logger     logger.ILogger
	relayBatch int
	wg         sync.WaitGroup
}

func NewOutboxDispatcher(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	emitter NotificationEmitter,
	clk clock.Clock,
	log logger.ILogger,
	relayBatch int,
) IOutboxDispatcher {
	if relayBatch <= 0 {
		relayBatch = 100
	}
	return &outboxDispatcher{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		emitter:    emitter,
		clock:      clk,
		logger:     log,
		relayBatch: relayBatch,
	}
}

// Dispatch never fails the caller. A row that cannot be published stays
// pending in the outbox and is picked up by RelayPending.
func (d *outboxDispatcher) Dispatch(ctx context.Context, events []*entity.OutboxEvent) {
	for _, e := range events {
		payload, err := json.Marshal(outboxMessage{Id: e.Id, ReservationId: e.ReservationId, Intent: e.Intent})
		if err != nil {
			d.logger.Error("OUTBOX", "Failed to encode outbox event", map[string]interface{}{
				"event_id": e.Id.String(),
				"error":    err.Error(),
			})
			continue
		}

		if err := d.pubSub.Publish(d.topicName, message.NewMessage(e.Id.String(), payload)); err != nil {
			d.logger.Warn("OUTBOX", "Failed to queue outbox event", map[string]interface{}{
				"event_id": e.Id.String(),
				"error":    err.Error(),
			})
		}
	}
}

func (d *outboxDispatcher) Consume(ctx context.Context) error {
	messages, err := d.pubSub.Subscribe(ctx, d.topicName)
	if err != nil {
		return err
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for msg := range messages {
			d.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (d *outboxDispatcher) processMessage(ctx context.Context, msg *message.Message) {
	// Every message is acked: gochannel redelivers nacks immediately, and a
	// failed emit is retried by the relay instead.
	defer msg.Ack()

	var payload outboxMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		d.logger.Error("OUTBOX", "Failed to unmarshal outbox message", map[string]interface{}{
			"message_uuid": msg.UUID,
			"error":        err.Error(),
		})
		return
	}

	emitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
	defer cancel()

	if err := d.emitter.Emit(emitCtx, payload.Id, payload.Intent); err != nil {
		d.logger.Error("OUTBOX", "Notification emit failed", map[string]interface{}{
			"event_id":       payload.Id.String(),
			"reservation_id": payload.ReservationId.String(),
			"user_id":        payload.Intent.UserId.String(),
			"kind":           string(payload.Intent.Kind),
			"error":          err.Error(),
		})
		return
	}

	uow := d.uowFactory.NewUnitOfWork(emitCtx)
	if err := uow.OutboxRepository().MarkDispatched(emitCtx, payload.Id, d.clock.Now()); err != nil {
		d.logger.Warn("OUTBOX", "Failed to mark outbox event dispatched", map[string]interface{}{
			"event_id": payload.Id.String(),
			"error":    err.Error(),
		})
	}
}

// RelayPending re-queues outbox rows left undispatched by a crash or a failed emit.
func (d *outboxDispatcher) RelayPending(ctx context.Context) (int, error) {
	uow := d.uowFactory.NewUnitOfWork(ctx)
	pending, err := uow.OutboxRepository().FindPending(ctx, d.relayBatch)
	if err != nil {
		return 0, err
	}
	d.Dispatch(ctx, pending)
	if len(pending) > 0 {
		d.logger.Info("OUTBOX", "Relayed pending notifications", map[string]interface{}{
			"count": len(pending),
		})
	}
	return len(pending), nil
}

// RelayEvery keeps re-queueing pending rows until ctx is cancelled, so a
// failed emit is retried without a restart.
func (d *outboxDispatcher) RelayEvery(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := d.RelayPending(ctx); err != nil && ctx.Err() == nil {
					d.logger.Warn("OUTBOX", "Periodic relay failed", map[string]interface{}{
						"error": err.Error(),
					})
				}
			}
		}
	}()
}

// Wait blocks until the consumer and relay goroutines have drained. The
// pub/sub must be closed and the relay context cancelled first.
func (d *outboxDispatcher) Wait() {
	d.wg.Wait()
}
