package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id                       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email                    string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	FullName                 string    `gorm:"type:varchar(255);not null"`
	Role                     string    `gorm:"type:varchar(50);not null;default:'customer'"`
	MonthlyCancellationLimit int       `gorm:"not null;default:3"`
	MonthlyCancellations     int       `gorm:"not null;default:0"`
	CreatedAt                time.Time `gorm:"autoCreateTime"`
	UpdatedAt                time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
