// FILE: internal/entity/reservation_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string
type ServiceRequestStatus string

const (
	ReservationStatusPending         ReservationStatus = "pending"
	ReservationStatusMatching        ReservationStatus = "matching"
	ReservationStatusMatched         ReservationStatus = "matched"
	ReservationStatusPaymentComplete ReservationStatus = "payment_complete"
	ReservationStatusConfirmed       ReservationStatus = "confirmed"
	ReservationStatusOnTheWay        ReservationStatus = "on_the_way"
	ReservationStatusCleaning        ReservationStatus = "cleaning"
	ReservationStatusCompleted       ReservationStatus = "completed"
	ReservationStatusCancelled       ReservationStatus = "cancelled"

	ServiceRequestStatusPending  ServiceRequestStatus = "pending"
	ServiceRequestStatusApproved ServiceRequestStatus = "approved"
	ServiceRequestStatusDeclined ServiceRequestStatus = "declined"
)

// ReservationStatuses is the closed set of lifecycle states.
var ReservationStatuses = []ReservationStatus{
	ReservationStatusPending,
	ReservationStatusMatching,
	ReservationStatusMatched,
	ReservationStatusPaymentComplete,
	ReservationStatusConfirmed,
	ReservationStatusOnTheWay,
	ReservationStatusCleaning,
	ReservationStatusCompleted,
	ReservationStatusCancelled,
}

func (s ReservationStatus) Valid() bool {
	for _, known := range ReservationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusCompleted || s == ReservationStatusCancelled
}

// Address is a snapshot taken when the reservation is created. It is never
// updated through the reservation.
type Address struct {
	Label      string   `json:"label"`
	Line1      string   `json:"line1"`
	Line2      string   `json:"line2,omitempty"`
	City       string   `json:"city"`
	PostalCode string   `json:"postal_code"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

type Reservation struct {
	Id                        uuid.UUID
	CustomerId                uuid.UUID
	CleanerId                 *uuid.UUID
	Status                    ReservationStatus
	ServiceDates              []string // YYYY-MM-DD, ascending
	ServiceTime               string   // HH:MM
	DurationHours             float64
	Amount                    int64
	IsLate                    bool
	CancellationReason        *string
	Address                   Address
	AdditionalServices        []string
	AdditionalServiceRequests []ServiceRequest
	Version                   int64
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// FirstServiceDate returns the earliest scheduled date, or "" when none is set.
func (r *Reservation) FirstServiceDate() string {
	if len(r.ServiceDates) == 0 {
		return ""
	}
	return r.ServiceDates[0]
}

// IsParticipant reports whether the user is the customer or the assigned cleaner.
func (r *Reservation) IsParticipant(userId uuid.UUID) bool {
	return r.CustomerId == userId || r.IsAssignedCleaner(userId)
}

func (r *Reservation) IsAssignedCleaner(userId uuid.UUID) bool {
	return r.CleanerId != nil && *r.CleanerId == userId
}

// HasApprovedService reports whether serviceId is already part of the booking.
func (r *Reservation) HasApprovedService(serviceId string) bool {
	for _, s := range r.AdditionalServices {
		if s == serviceId {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so that rule evaluation never mutates a value
// that a caller (or an in-memory store) still holds.
func (r *Reservation) Clone() *Reservation {
	if r == nil {
		return nil
	}
	c := *r
	if r.CleanerId != nil {
		id := *r.CleanerId
		c.CleanerId = &id
	}
	if r.CancellationReason != nil {
		reason := *r.CancellationReason
		c.CancellationReason = &reason
	}
	if r.Address.Latitude != nil {
		lat := *r.Address.Latitude
		c.Address.Latitude = &lat
	}
	if r.Address.Longitude != nil {
		lng := *r.Address.Longitude
		c.Address.Longitude = &lng
	}
	c.ServiceDates = append([]string(nil), r.ServiceDates...)
	c.AdditionalServices = append([]string(nil), r.AdditionalServices...)
	c.AdditionalServiceRequests = make([]ServiceRequest, len(r.AdditionalServiceRequests))
	for i, req := range r.AdditionalServiceRequests {
		req.Services = append([]string(nil), req.Services...)
		c.AdditionalServiceRequests[i] = req
	}
	return &c
}

type ServiceRequest struct {
	Index       int
	RequestedAt time.Time
	RequestedBy uuid.UUID
	Services    []string
	Status      ServiceRequestStatus
}

func (r ServiceRequest) Contains(serviceId string) bool {
	for _, s := range r.Services {
		if s == serviceId {
			return true
		}
	}
	return false
}

// ReservationPatch lists the columns a conditional update may touch. Nil
// fields are left as they are.
type ReservationPatch struct {
	Status             *ReservationStatus
	CleanerId          *uuid.UUID
	ServiceDates       []string
	ServiceTime        *string
	DurationHours      *float64
	IsLate             *bool
	CancellationReason *string
	AdditionalServices []string
}

// IsEmpty reports whether the patch changes nothing.
func (p ReservationPatch) IsEmpty() bool {
	return p.Status == nil && p.CleanerId == nil && p.ServiceDates == nil &&
		p.ServiceTime == nil && p.DurationHours == nil && p.IsLate == nil &&
		p.CancellationReason == nil && p.AdditionalServices == nil
}

// Apply writes the patch onto r and bumps the version.
func (p ReservationPatch) Apply(r *Reservation, now time.Time) {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.CleanerId != nil {
		id := *p.CleanerId
		r.CleanerId = &id
	}
	if p.ServiceDates != nil {
		r.ServiceDates = append([]string(nil), p.ServiceDates...)
	}
	if p.ServiceTime != nil {
		r.ServiceTime = *p.ServiceTime
	}
	if p.DurationHours != nil {
		r.DurationHours = *p.DurationHours
	}
	if p.IsLate != nil {
		r.IsLate = *p.IsLate
	}
	if p.CancellationReason != nil {
		reason := *p.CancellationReason
		r.CancellationReason = &reason
	}
	if p.AdditionalServices != nil {
		r.AdditionalServices = append([]string(nil), p.AdditionalServices...)
	}
	r.Version++
	r.UpdatedAt = now
}
