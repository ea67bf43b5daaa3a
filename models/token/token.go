package token

import (
	"time"

	"rally-booking/models/user"
)

// VerificationToken is a single-use token handed to a user for email
// verification or password reset. Expired or used tokens are deleted by the
// maintenance sweep; they are not part of the booking lifecycle.
type VerificationToken struct {
	ID    uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Value string `gorm:"type:varchar(64);not null;unique" json:"value"`

	UserID uint      `gorm:"not null;index" json:"user_id"`
	User   user.User `gorm:"foreignKey:UserID" json:"user"`

	Type      Type      `gorm:"type:varchar(30);not null" json:"type"`
	Used      bool      `gorm:"default:false" json:"used"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Type of a verification token.
type Type string

const (
	TypeEmailVerification Type = "email_verification"
	TypePasswordReset     Type = "password_reset"
)

// IsExpired checks the expiration timestamp.
func (t *VerificationToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsValid reports whether the token can still be consumed.
func (t *VerificationToken) IsValid() bool {
	return !t.Used && !t.IsExpired()
}
