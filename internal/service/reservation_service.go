// FILE: internal/service/reservation_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cleaning-reservation-be/internal/dto"
	"cleaning-reservation-be/internal/entity"
	"cleaning-reservation-be/internal/pkg/logger"
	"cleaning-reservation-be/internal/repository/contract"
	"cleaning-reservation-be/internal/repository/specification"
	"cleaning-reservation-be/internal/repository/unitofwork"
	"cleaning-reservation-be/pkg/clock"
	"cleaning-reservation-be/pkg/reservation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultListLimit = 20

var tracer = otel.Tracer("cleaning-reservation-be/reservation")

type IReservationService interface {
	Create(ctx context.Context, actor entity.Actor, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error)
	Show(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.ReservationResponse, error)
	List(ctx context.Context, actor entity.Actor, req *dto.ListReservationsRequest) (*dto.ListReservationsResponse, error)
	Eligibility(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.EligibilityResponse, error)
	Reschedule(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.RescheduleReservationRequest) (*dto.ReservationResponse, error)
	Cancel(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.CancelReservationRequest) (*dto.ReservationResponse, error)
	AdvanceStatus(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.AdvanceStatusRequest) (*dto.ReservationResponse, error)
	ReportLate(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.LateReportResponse, error)
	RequestServices(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.RequestServicesRequest) (*dto.ReservationResponse, error)
	ResolveServiceRequest(ctx context.Context, actor entity.Actor, id uuid.UUID, index int, req *dto.ResolveServiceRequestRequest) (*dto.ReservationResponse, error)
}

type reservationService struct {
	uowFactory unitofwork.RepositoryFactory
	rules      *reservation.Rules
	clock      clock.Clock
	quotaCache contract.QuotaCache
	dispatcher IOutboxDispatcher
	logger     logger.ILogger
}

func NewReservationService(
	uowFactory unitofwork.RepositoryFactory,
	rules *reservation.Rules,
	clk clock.Clock,
	quotaCache contract.QuotaCache,
	dispatcher IOutboxDispatcher,
	log logger.ILogger,
) IReservationService {
	return &reservationService{
		uowFactory: uowFactory,
		rules:      rules,
		clock:      clk,
		quotaCache: quotaCache,
		dispatcher: dispatcher,
		logger:     log,
	}
}

func (s *reservationService) Create(ctx context.Context, actor entity.Actor, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error) {
	now := s.clock.Now()
	r, err := s.rules.NewReservation(actor, reservation.Draft{
		ServiceDates:  req.ServiceDates,
		ServiceTime:   req.ServiceTime,
		DurationHours: req.DurationHours,
		Amount:        req.Amount,
		Address: entity.Address{
			Label:      req.Address.Label,
			Line1:      req.Address.Line1,
			Line2:      req.Address.Line2,
			City:       req.Address.City,
			PostalCode: req.Address.PostalCode,
			Latitude:   req.Address.Latitude,
			Longitude:  req.Address.Longitude,
		},
	}, now)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ReservationRepository().Create(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info("RESERVATION", "Reservation created", map[string]interface{}{
		"reservation_id": r.Id.String(),
		"customer_id":    r.CustomerId.String(),
		"first_date":     r.FirstServiceDate(),
	})
	return toReservationResponse(r), nil
}

func (s *reservationService) Show(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.ReservationResponse, error) {
	r, err := s.load(ctx, s.uowFactory.NewUnitOfWork(ctx), actor, id)
	if err != nil {
		return nil, err
	}
	return toReservationResponse(r), nil
}

// List returns one page of the actor's reservations, newest first, with the
// total number of matches.
func (s *reservationService) List(ctx context.Context, actor entity.Actor, req *dto.ListReservationsRequest) (*dto.ListReservationsResponse, error) {
	specs := make([]specification.Specification, 0, 4)
	if !actor.IsAdmin() {
		specs = append(specs, specification.ReservationParticipant{UserID: actor.UserId})
	}
	if req.Status != "" {
		status := entity.ReservationStatus(req.Status)
		if !status.Valid() {
			return nil, reservation.NewValidationError("status", fmt.Sprintf("unknown status %q", req.Status))
		}
		specs = append(specs, specification.ReservationStatusIn{Statuses: []entity.ReservationStatus{status}})
	}
	if req.From != "" {
		if _, err := s.rules.Calculator().ParseDate(req.From); err != nil {
			return nil, reservation.NewValidationError("from", "must be YYYY-MM-DD")
		}
		specs = append(specs, specification.ServiceDateFrom{Date: req.From})
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	repo := s.uowFactory.NewUnitOfWork(ctx).ReservationRepository()
	total, err := repo.Count(ctx, specs...)
	if err != nil {
		return nil, err
	}
	reservations, err := repo.FindAll(ctx, append(specs, specification.Pagination{Limit: limit, Offset: req.Offset})...)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.ReservationResponse, 0, len(reservations))
	for _, r := range reservations {
		result = append(result, toReservationResponse(r))
	}
	return &dto.ListReservationsResponse{
		Data:   result,
		Total:  total,
		Limit:  limit,
		Offset: req.Offset,
	}, nil
}

func (s *reservationService) Eligibility(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.EligibilityResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	r, err := s.load(ctx, uow, actor, id)
	if err != nil {
		return nil, err
	}

	e, err := s.rules.Calculator().Evaluate(r.FirstServiceDate(), s.clock.Now())
	if err != nil {
		return nil, err
	}

	quota, err := s.quotaFor(ctx, uow, r.CustomerId)
	if err != nil {
		return nil, err
	}

	return &dto.EligibilityResponse{
		ReservationId:            r.Id,
		FirstServiceDate:         r.FirstServiceDate(),
		Cutoff:                   e.Cutoff,
		CanModify:                e.CanModify,
		SameDay:                  e.SameDay,
		SecondsUntilCutoff:       int64(e.TimeRemaining / time.Second),
		RemainingCancellations:   quota.Remaining,
		MonthlyCancellationLimit: quota.Limit,
	}, nil
}

func (s *reservationService) Reschedule(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.RescheduleReservationRequest) (*dto.ReservationResponse, error) {
	r, err := s.mutate(ctx, actor, id, "reschedule", func(current *entity.Reservation, _ *entity.User, now time.Time) (*reservation.Outcome, error) {
		return s.rules.Reschedule(current, actor, req.ServiceDates, req.ServiceTime, now)
	})
	if err != nil {
		return nil, err
	}
	return toReservationResponse(r), nil
}

func (s *reservationService) Cancel(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.CancelReservationRequest) (*dto.ReservationResponse, error) {
	r, err := s.mutate(ctx, actor, id, "cancel", func(current *entity.Reservation, user *entity.User, now time.Time) (*reservation.Outcome, error) {
		return s.rules.Cancel(current, actor, user, req.Reason, now)
	})
	if err != nil {
		return nil, err
	}
	return toReservationResponse(r), nil
}

func (s *reservationService) AdvanceStatus(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.AdvanceStatusRequest) (*dto.ReservationResponse, error) {
	r, err := s.mutate(ctx, actor, id, "advance", func(current *entity.Reservation, _ *entity.User, now time.Time) (*reservation.Outcome, error) {
		return s.rules.Advance(current, actor, entity.ReservationStatus(req.Status), req.CleanerId, now)
	})
	if err != nil {
		return nil, err
	}
	return toReservationResponse(r), nil
}

func (s *reservationService) ReportLate(ctx context.Context, actor entity.Actor, id uuid.UUID) (*dto.LateReportResponse, error) {
	var report *reservation.LateReport
	r, err := s.mutate(ctx, actor, id, "report_late", func(current *entity.Reservation, _ *entity.User, now time.Time) (*reservation.Outcome, error) {
		out, rep, err := s.rules.ReportLate(current, actor, now)
		report = rep
		return out, err
	})
	if err != nil {
		return nil, err
	}
	return &dto.LateReportResponse{
		Reservation:    toReservationResponse(r),
		ScheduledStart: report.ScheduledStart,
		DelayMinutes:   report.DelayMinutes,
		DurationHours:  report.NewDuration,
		WindowStart:    report.WindowStart,
		WindowEnd:      report.WindowEnd,
	}, nil
}

func (s *reservationService) RequestServices(ctx context.Context, actor entity.Actor, id uuid.UUID, req *dto.RequestServicesRequest) (*dto.ReservationResponse, error) {
	r, err := s.mutate(ctx, actor, id, "request_services", func(current *entity.Reservation, _ *entity.User, now time.Time) (*reservation.Outcome, error) {
		return s.rules.RequestServices(current, actor, req.Services, now)
	})
	if err != nil {
		return nil, err
	}
	return toReservationResponse(r), nil
}

func (s *reservationService) ResolveServiceRequest(ctx context.Context, actor entity.Actor, id uuid.UUID, index int, req *dto.ResolveServiceRequestRequest) (*dto.ReservationResponse, error) {
	r, err := s.mutate(ctx, actor, id, "resolve_service_request", func(current *entity.Reservation, _ *entity.User, now time.Time) (*reservation.Outcome, error) {
		return s.rules.ResolveRequest(current, actor, index, entity.ServiceRequestStatus(req.Decision), now)
	})
	if err != nil {
		return nil, err
	}
	return toReservationResponse(r), nil
}

// load reads a reservation the actor may see. Non-participants get
// ErrNotFound so ids cannot be probed.
func (s *reservationService) load(ctx context.Context, uow unitofwork.UnitOfWork, actor entity.Actor, id uuid.UUID) (*entity.Reservation, error) {
	r, err := uow.ReservationRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if r == nil || (!actor.IsAdmin() && !r.IsParticipant(actor.UserId)) {
		return nil, reservation.ErrNotFound
	}
	return r, nil
}

func (s *reservationService) quotaFor(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (*entity.QuotaSnapshot, error) {
	if snap, ok := s.quotaCache.Get(ctx, userId); ok {
		return snap, nil
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &entity.User{Id: userId}
	}
	snap := &entity.QuotaSnapshot{
		UserId:    userId,
		Limit:     reservation.EffectiveLimit(user),
		Used:      user.MonthlyCancellations,
		Remaining: reservation.RemainingCancellations(user),
	}
	s.quotaCache.Set(ctx, snap)
	return snap, nil
}

type mutation func(current *entity.Reservation, user *entity.User, now time.Time) (*reservation.Outcome, error)

// mutate runs one intent against the latest stored version. The reservation
// columns, ledger row, quota counter and outbox rows commit together or not
// at all; notifications are dispatched only after the commit.
func (s *reservationService) mutate(ctx context.Context, actor entity.Actor, id uuid.UUID, op string, fn mutation) (_ *entity.Reservation, err error) {
	ctx, span := tracer.Start(ctx, "reservation."+op, trace.WithAttributes(
		attribute.String("reservation.id", id.String()),
		attribute.String("actor.role", string(actor.Role)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	now := s.clock.Now()

	current, err := s.load(ctx, uow, actor, id)
	if err != nil {
		return nil, err
	}

	var user *entity.User
	if actor.Role == entity.UserRoleCustomer {
		user, err = uow.UserRepository().FindOne(ctx, specification.ByID{ID: actor.UserId})
		if err != nil {
			return nil, err
		}
	}

	out, err := fn(current.Clone(), user, now)
	if err != nil {
		s.logRejected(op, id, actor, err)
		return nil, err
	}

	outbox := make([]*entity.OutboxEvent, 0, len(out.Events))
	for _, intent := range out.Events {
		outbox = append(outbox, &entity.OutboxEvent{
			Id:            uuid.New(),
			ReservationId: id,
			Intent:        intent,
			CreatedAt:     now,
		})
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.ReservationRepository().ConditionalUpdate(ctx, id, current.Version, out.Patch, now); err != nil {
		s.logRejected(op, id, actor, err)
		return nil, err
	}
	if out.NewRequest != nil {
		if err := uow.ReservationRepository().AppendServiceRequest(ctx, id, out.NewRequest); err != nil {
			s.logRejected(op, id, actor, err)
			return nil, err
		}
	}
	if out.Resolved != nil {
		if err := uow.ReservationRepository().ResolveServiceRequest(ctx, id, out.Resolved.Index, out.Resolved.Status, now); err != nil {
			s.logRejected(op, id, actor, err)
			return nil, err
		}
	}
	if out.ConsumesQuota {
		if err := uow.UserRepository().IncrementCancellationCounter(ctx, actor.UserId); err != nil {
			s.logRejected(op, id, actor, err)
			return nil, err
		}
	}
	if len(outbox) > 0 {
		if err := uow.OutboxRepository().Append(ctx, outbox); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		s.logRejected(op, id, actor, err)
		return nil, err
	}

	if out.ConsumesQuota {
		s.quotaCache.Invalidate(ctx, actor.UserId)
	}

	updated := current.Clone()
	if out.NewRequest != nil {
		updated.AdditionalServiceRequests = append(updated.AdditionalServiceRequests, *out.NewRequest)
	}
	if out.Resolved != nil && out.Resolved.Index < len(updated.AdditionalServiceRequests) {
		updated.AdditionalServiceRequests[out.Resolved.Index] = *out.Resolved
	}
	out.Patch.Apply(updated, now)

	s.logger.Info("RESERVATION", "Reservation updated", map[string]interface{}{
		"op":             op,
		"reservation_id": id.String(),
		"actor_id":       actor.UserId.String(),
		"status":         string(updated.Status),
		"version":        updated.Version,
		"notifications":  len(outbox),
	})

	span.SetAttributes(
		attribute.String("reservation.status", string(updated.Status)),
		attribute.Int64("reservation.version", updated.Version),
	)
	s.dispatcher.Dispatch(ctx, outbox)
	return updated, nil
}

func (s *reservationService) logRejected(op string, id uuid.UUID, actor entity.Actor, err error) {
	details := map[string]interface{}{
		"op":             op,
		"reservation_id": id.String(),
		"actor_id":       actor.UserId.String(),
		"role":           string(actor.Role),
		"error":          err.Error(),
	}
	if errors.Is(err, reservation.ErrConflict) {
		s.logger.Warn("RESERVATION", "Concurrent modification rejected", details)
		return
	}
	s.logger.Debug("RESERVATION", "Intent rejected", details)
}

func toReservationResponse(r *entity.Reservation) *dto.ReservationResponse {
	requests := make([]dto.ServiceRequestResponse, 0, len(r.AdditionalServiceRequests))
	for _, req := range r.AdditionalServiceRequests {
		requests = append(requests, dto.ServiceRequestResponse{
			Index:       req.Index,
			RequestedAt: req.RequestedAt,
			RequestedBy: req.RequestedBy,
			Services:    append([]string{}, req.Services...),
			Status:      string(req.Status),
		})
	}

	return &dto.ReservationResponse{
		Id:                 r.Id,
		CustomerId:         r.CustomerId,
		CleanerId:          r.CleanerId,
		Status:             string(r.Status),
		ServiceDates:       append([]string{}, r.ServiceDates...),
		ServiceTime:        r.ServiceTime,
		DurationHours:      r.DurationHours,
		Amount:             r.Amount,
		IsLate:             r.IsLate,
		CancellationReason: r.CancellationReason,
		Address: dto.AddressResponse{
			Label:      r.Address.Label,
			Line1:      r.Address.Line1,
			Line2:      r.Address.Line2,
			City:       r.Address.City,
			PostalCode: r.Address.PostalCode,
			Latitude:   r.Address.Latitude,
			Longitude:  r.Address.Longitude,
		},
		AdditionalServices:        append([]string{}, r.AdditionalServices...),
		AdditionalServiceRequests: requests,
		Version:                   r.Version,
		CreatedAt:                 r.CreatedAt,
		UpdatedAt:                 r.UpdatedAt,
	}
}
