package reservation

import (
	"fmt"
	"time"

	"cleaning-reservation-be/internal/entity"

	"github.com/google/uuid"
)

// Outcome is the result of applying an intent to a reservation: the columns
// to write, the ledger rows to write, and the notifications to raise once the
// write has committed.
type Outcome struct {
	Patch         entity.ReservationPatch
	NewRequest    *entity.ServiceRequest
	Resolved      *entity.ServiceRequest
	ConsumesQuota bool
	Events        []entity.NotificationIntent
}

// forward is the single authoritative table of non-cancel edges.
var forward = map[entity.ReservationStatus]entity.ReservationStatus{
	entity.ReservationStatusPending:         entity.ReservationStatusMatching,
	entity.ReservationStatusMatching:        entity.ReservationStatusMatched,
	entity.ReservationStatusMatched:         entity.ReservationStatusPaymentComplete,
	entity.ReservationStatusPaymentComplete: entity.ReservationStatusConfirmed,
	entity.ReservationStatusConfirmed:       entity.ReservationStatusOnTheWay,
	entity.ReservationStatusOnTheWay:        entity.ReservationStatusCleaning,
	entity.ReservationStatusCleaning:        entity.ReservationStatusCompleted,
}

var cancellable = map[entity.ReservationStatus]bool{
	entity.ReservationStatusPending:         true,
	entity.ReservationStatusMatching:        true,
	entity.ReservationStatusMatched:         true,
	entity.ReservationStatusPaymentComplete: true,
	entity.ReservationStatusConfirmed:       true,
	entity.ReservationStatusOnTheWay:        true,
}

// reschedulable excludes on_the_way: the cleaner is already travelling.
var reschedulable = map[entity.ReservationStatus]bool{
	entity.ReservationStatusPending:         true,
	entity.ReservationStatusMatching:        true,
	entity.ReservationStatusMatched:         true,
	entity.ReservationStatusPaymentComplete: true,
	entity.ReservationStatusConfirmed:       true,
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
func CanTransition(from, to entity.ReservationStatus) bool {
	if to == entity.ReservationStatusCancelled {
		return cancellable[from]
	}
	next, ok := forward[from]
	return ok && next == to
}

// IsCancellable reports whether a cancel intent may be applied in status s.
func IsCancellable(s entity.ReservationStatus) bool {
	return cancellable[s]
}

// NextStatus returns the forward successor of s, if any.
func NextStatus(s entity.ReservationStatus) (entity.ReservationStatus, bool) {
	next, ok := forward[s]
	return next, ok
}

func mayAdvanceTo(r *entity.Reservation, actor entity.Actor, target entity.ReservationStatus) bool {
	switch target {
	case entity.ReservationStatusMatching, entity.ReservationStatusMatched, entity.ReservationStatusPaymentComplete:
		return actor.IsAdmin()
	case entity.ReservationStatusConfirmed, entity.ReservationStatusCompleted:
		return actor.IsAdmin() || (actor.Role == entity.UserRoleCleaner && r.IsAssignedCleaner(actor.UserId))
	case entity.ReservationStatusOnTheWay, entity.ReservationStatusCleaning:
		return actor.Role == entity.UserRoleCleaner && r.IsAssignedCleaner(actor.UserId)
	}
	return false
}

// Rules applies lifecycle intents to reservations. It never touches storage.
type Rules struct {
	calc *Calculator
}

func NewRules(calc *Calculator) *Rules {
	return &Rules{calc: calc}
}

func (ru *Rules) Calculator() *Calculator {
	return ru.calc
}

// Advance moves the reservation one step forward. cleanerId is required when
// the target is matched and ignored otherwise.
func (ru *Rules) Advance(r *entity.Reservation, actor entity.Actor, target entity.ReservationStatus, cleanerId *uuid.UUID, now time.Time) (*Outcome, error) {
	if r.Status == entity.ReservationStatusCompleted {
		return nil, ErrAlreadyCompleted
	}
	if !target.Valid() {
		return nil, NewValidationError("status", fmt.Sprintf("unknown status %q", target))
	}
	if target == entity.ReservationStatusCancelled || !CanTransition(r.Status, target) {
		return nil, &TransitionError{From: string(r.Status), To: string(target)}
	}
	if !mayAdvanceTo(r, actor, target) {
		return nil, ErrForbidden
	}

	out := &Outcome{}
	status := target
	out.Patch.Status = &status

	if target == entity.ReservationStatusMatched {
		if cleanerId == nil || *cleanerId == uuid.Nil {
			return nil, NewValidationError("cleaner_id", "required when matching a cleaner")
		}
		id := *cleanerId
		out.Patch.CleanerId = &id
	}

	switch target {
	case entity.ReservationStatusOnTheWay, entity.ReservationStatusCleaning, entity.ReservationStatusCompleted:
		out.Events = append(out.Events, statusChangedNotice(r, target))
	}
	return out, nil
}

// Cancel applies a cancellation intent. Customers are held to the cutoff and
// to their monthly quota; admins are not and do not consume quota. user is
// the acting customer's counters and may be nil for admins.
func (ru *Rules) Cancel(r *entity.Reservation, actor entity.Actor, user *entity.User, reason string, now time.Time) (*Outcome, error) {
	isCustomer := actor.UserId == r.CustomerId && actor.Role == entity.UserRoleCustomer
	if !isCustomer && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if !cancellable[r.Status] {
		return nil, &TransitionError{From: string(r.Status), To: string(entity.ReservationStatusCancelled)}
	}

	out := &Outcome{}
	if isCustomer {
		if err := ru.calc.CheckWindow(r, now); err != nil {
			return nil, err
		}
		if user == nil {
			return nil, NewValidationError("user", "cancellation counters are required")
		}
		if err := CheckQuota(user); err != nil {
			return nil, err
		}
		out.ConsumesQuota = true
	}

	status := entity.ReservationStatusCancelled
	out.Patch.Status = &status
	if reason != "" {
		out.Patch.CancellationReason = &reason
	}

	if r.CleanerId != nil {
		out.Events = append(out.Events, cancelledNotice(r, *r.CleanerId, reason))
	}
	if !isCustomer {
		out.Events = append(out.Events, cancelledNotice(r, r.CustomerId, reason))
	}
	return out, nil
}
