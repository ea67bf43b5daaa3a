package user

import (
	"time"
)

// User mirrors the identity issued by the upstream auth service. Only the
// fields the booking lifecycle needs are kept locally.
type User struct {
	ID            uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Uuid          string  `gorm:"type:varchar(255);not null;unique" json:"uuid"`
	Username      string  `gorm:"type:varchar(255);not null;unique" json:"username"`
	Email         *string `gorm:"type:varchar(255);unique" json:"email,omitempty"`
	EmailVerified bool    `gorm:"type:bool;default:false" json:"email_verified"`
	Role          string  `gorm:"type:varchar(50);not null;default:user" json:"role"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}
