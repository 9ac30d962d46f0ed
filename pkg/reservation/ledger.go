package reservation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cleaning-reservation-be/internal/entity"
)

var ErrRequestNotFound = errors.New("service request not found")

// NormalizeServices trims ids and drops repeats, keeping first-seen order.
func NormalizeServices(services []string) ([]string, error) {
	seen := make(map[string]bool, len(services))
	out := make([]string, 0, len(services))
	for _, s := range services {
		id := strings.TrimSpace(s)
		if id == "" {
			return nil, NewValidationError("services", "service id must not be empty")
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, NewValidationError("services", "at least one service is required")
	}
	return out, nil
}

// RequestServices appends a pending request to the ledger. A service that is
// already approved, or waiting in another pending request, cannot be asked for again.
func (ru *Rules) RequestServices(r *entity.Reservation, actor entity.Actor, services []string, now time.Time) (*Outcome, error) {
	if !r.IsParticipant(actor.UserId) {
		return nil, ErrForbidden
	}
	if r.Status.IsTerminal() {
		return nil, &TransitionError{From: string(r.Status), To: "service_request"}
	}
	ids, err := NormalizeServices(services)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if r.HasApprovedService(id) {
			return nil, fmt.Errorf("%w: %s is already approved", ErrDuplicateRequest, id)
		}
		for _, existing := range r.AdditionalServiceRequests {
			if existing.Status == entity.ServiceRequestStatusPending && existing.Contains(id) {
				return nil, fmt.Errorf("%w: %s is pending in request %d", ErrDuplicateRequest, id, existing.Index)
			}
		}
	}

	req := &entity.ServiceRequest{
		Index:       len(r.AdditionalServiceRequests),
		RequestedAt: now,
		RequestedBy: actor.UserId,
		Services:    ids,
		Status:      entity.ServiceRequestStatusPending,
	}
	out := &Outcome{NewRequest: req}

	if actor.UserId == r.CustomerId {
		if r.CleanerId != nil {
			out.Events = append(out.Events, serviceRequestedNotice(r, *r.CleanerId, ids))
		}
	} else {
		out.Events = append(out.Events, serviceRequestedNotice(r, r.CustomerId, ids))
	}
	return out, nil
}

// ResolveRequest settles a pending ledger entry in place. Approval adds the
// entry's services to the reservation; declining leaves them untouched.
func (ru *Rules) ResolveRequest(r *entity.Reservation, actor entity.Actor, index int, decision entity.ServiceRequestStatus, now time.Time) (*Outcome, error) {
	if decision != entity.ServiceRequestStatusApproved && decision != entity.ServiceRequestStatusDeclined {
		return nil, NewValidationError("decision", "must be approved or declined")
	}
	if index < 0 || index >= len(r.AdditionalServiceRequests) {
		return nil, fmt.Errorf("%w: index %d", ErrRequestNotFound, index)
	}
	req := r.AdditionalServiceRequests[index]

	counterparty := r.IsParticipant(actor.UserId) && actor.UserId != req.RequestedBy
	if !counterparty && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if req.Status != entity.ServiceRequestStatusPending {
		return nil, ErrAlreadyResolved
	}
	if r.Status.IsTerminal() {
		return nil, &TransitionError{From: string(r.Status), To: "service_request_resolution"}
	}

	req.Services = append([]string(nil), req.Services...)
	req.Status = decision
	out := &Outcome{Resolved: &req}

	if decision == entity.ServiceRequestStatusApproved {
		merged := append([]string(nil), r.AdditionalServices...)
		for _, id := range req.Services {
			if !r.HasApprovedService(id) {
				merged = append(merged, id)
			}
		}
		out.Patch.AdditionalServices = merged
	}

	out.Events = append(out.Events, serviceResolvedNotice(r, req))
	return out, nil
}
