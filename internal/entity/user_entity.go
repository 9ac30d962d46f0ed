// FILE: internal/entity/user_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleCleaner  UserRole = "cleaner"
	UserRoleAdmin    UserRole = "admin"
)

const DefaultMonthlyCancellationLimit = 3

// User is the cancellation projection of an account. Identity data lives with
// the auth provider; only what the lifecycle needs is kept here.
type User struct {
	Id                       uuid.UUID
	Email                    string
	FullName                 string
	Role                     UserRole
	MonthlyCancellationLimit int
	MonthlyCancellations     int
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// Actor is the identity attached to every intent.
type Actor struct {
	UserId uuid.UUID
	Role   UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == UserRoleAdmin
}

// QuotaSnapshot is the read-only view of a user's monthly cancellations.
type QuotaSnapshot struct {
	UserId    uuid.UUID `json:"user_id"`
	Limit     int       `json:"limit"`
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
}
