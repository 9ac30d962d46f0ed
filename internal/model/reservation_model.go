package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AddressSnapshot struct {
	Label      string   `json:"label"`
	Line1      string   `json:"line1"`
	Line2      string   `json:"line2,omitempty"`
	City       string   `json:"city"`
	PostalCode string   `json:"postal_code"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
}

type Reservation struct {
	Id                 uuid.UUID                           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CustomerId         uuid.UUID                           `gorm:"type:uuid;not null;index:idx_reservations_customer"`
	CleanerId          *uuid.UUID                          `gorm:"type:uuid;index:idx_reservations_cleaner"`
	Status             string                              `gorm:"type:varchar(30);not null;default:'pending';index"`
	ServiceDates       datatypes.JSONSlice[string]         `gorm:"type:jsonb;not null"`
	ServiceTime        string                              `gorm:"type:varchar(5);not null"`
	DurationHours      float64                             `gorm:"type:numeric(6,2);not null"`
	Amount             int64                               `gorm:"not null;default:0"`
	IsLate             bool                                `gorm:"not null;default:false"`
	CancellationReason *string                             `gorm:"type:text"`
	Address            datatypes.JSONType[AddressSnapshot] `gorm:"type:jsonb;not null"`
	AdditionalServices datatypes.JSONSlice[string]         `gorm:"type:jsonb;not null;default:'[]'"`
	ServiceRequests    []ReservationServiceRequest         `gorm:"foreignKey:ReservationId;references:Id"`
	Version            int64                               `gorm:"not null;default:1"`
	CreatedAt          time.Time                           `gorm:"autoCreateTime"`
	UpdatedAt          time.Time
}

func (Reservation) TableName() string {
	return "reservations"
}

// ReservationServiceRequest is one ledger entry. The composite key doubles as
// the append guard: two writers racing for the same index collide on it.
type ReservationServiceRequest struct {
	ReservationId uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	Idx           int                         `gorm:"primaryKey;autoIncrement:false"`
	RequestedAt   time.Time                   `gorm:"not null"`
	RequestedBy   uuid.UUID                   `gorm:"type:uuid;not null"`
	Services      datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	Status        string                      `gorm:"type:varchar(20);not null;default:'pending'"`
	ResolvedAt    *time.Time
}

func (ReservationServiceRequest) TableName() string {
	return "reservation_service_requests"
}
