// FILE: internal/dto/reservation_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"
)

// --- Requests ---

type AddressRequest struct {
	Label      string   `json:"label"`
	Line1      string   `json:"line1" validate:"required"`
	Line2      string   `json:"line2"`
	City       string   `json:"city" validate:"required"`
	PostalCode string   `json:"postal_code"`
	Latitude   *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude  *float64 `json:"longitude" validate:"omitempty,longitude"`
}

type CreateReservationRequest struct {
	ServiceDates  []string       `json:"service_dates" validate:"required,min=1,dive,datetime=2006-01-02"`
	ServiceTime   string         `json:"service_time" validate:"required,datetime=15:04"`
	DurationHours float64        `json:"duration_hours" validate:"required,gt=0"`
	Amount        int64          `json:"amount" validate:"gte=0"`
	Address       AddressRequest `json:"address" validate:"required"`
}

type RescheduleReservationRequest struct {
	ServiceDates []string `json:"service_dates" validate:"required,min=1,dive,datetime=2006-01-02"`
	ServiceTime  string   `json:"service_time" validate:"required,datetime=15:04"`
}

type CancelReservationRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// AdvanceStatusRequest moves a reservation one step forward. CleanerId is
// required when Status is "matched".
type AdvanceStatusRequest struct {
	Status    string     `json:"status" validate:"required"`
	CleanerId *uuid.UUID `json:"cleaner_id"`
}

type RequestServicesRequest struct {
	Services []string `json:"services" validate:"required,min=1,dive,required,max=64"`
}

type ResolveServiceRequestRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved declined"`
}

type ListReservationsRequest struct {
	Status string `query:"status"`
	// From keeps bookings whose first service date is on or after it.
	From   string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

// --- Responses ---

type ListReservationsResponse struct {
	Data   []*ReservationResponse `json:"data"`
	Total  int64                  `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

type AddressResponse struct {
	Label      string   `json:"label"`
	Line1      string   `json:"line1"`
	Line2      string   `json:"line2,omitempty"`
	City       string   `json:"city"`
	PostalCode string   `json:"postal_code"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

type ServiceRequestResponse struct {
	Index       int       `json:"index"`
	RequestedAt time.Time `json:"requested_at"`
	RequestedBy uuid.UUID `json:"requested_by"`
	Services    []string  `json:"services"`
	Status      string    `json:"status"`
}

type ReservationResponse struct {
	Id                        uuid.UUID                `json:"id"`
	CustomerId                uuid.UUID                `json:"customer_id"`
	CleanerId                 *uuid.UUID               `json:"cleaner_id"`
	Status                    string                   `json:"status"`
	ServiceDates              []string                 `json:"service_dates"`
	ServiceTime               string                   `json:"service_time"`
	DurationHours             float64                  `json:"duration_hours"`
	Amount                    int64                    `json:"amount"`
	IsLate                    bool                     `json:"is_late"`
	CancellationReason        *string                  `json:"cancellation_reason,omitempty"`
	Address                   AddressResponse          `json:"address"`
	AdditionalServices        []string                 `json:"additional_services"`
	AdditionalServiceRequests []ServiceRequestResponse `json:"additional_service_requests"`
	Version                   int64                    `json:"version"`
	CreatedAt                 time.Time                `json:"created_at"`
	UpdatedAt                 time.Time                `json:"updated_at"`
}

type EligibilityResponse struct {
	ReservationId            uuid.UUID `json:"reservation_id"`
	FirstServiceDate         string    `json:"first_service_date"`
	Cutoff                   time.Time `json:"cutoff"`
	CanModify                bool      `json:"can_modify"`
	SameDay                  bool      `json:"same_day"`
	SecondsUntilCutoff       int64     `json:"seconds_until_cutoff"`
	RemainingCancellations   int       `json:"remaining_cancellations"`
	MonthlyCancellationLimit int       `json:"monthly_cancellation_limit"`
}

type LateReportResponse struct {
	Reservation    *ReservationResponse `json:"reservation"`
	ScheduledStart time.Time            `json:"scheduled_start"`
	DelayMinutes   int                  `json:"delay_minutes"`
	DurationHours  float64              `json:"duration_hours"`
	WindowStart    time.Time            `json:"window_start"`
	WindowEnd      time.Time            `json:"window_end"`
}
