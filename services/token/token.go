package token

import (
	"context"
	"errors"
	"time"

	"rally-booking/models/token"
	"rally-booking/services/notify"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrTokenNotFound = errors.New("verification token not found")
	ErrTokenExpired  = errors.New("verification token expired")
	ErrTokenUsed     = errors.New("verification token already used")
)

// Publisher is the notification surface token issuance uses.
type Publisher interface {
	Publish(ctx context.Context, key string, v any)
}

// Service issues and consumes single-use verification tokens. Issuing a
// token invalidates the user's earlier unused tokens of the same type, so
// only the latest one works.
type Service struct {
	DB       *gorm.DB
	Notifier Publisher
	Validity time.Duration
}

func NewService(db *gorm.DB, n Publisher, validityMinutes int) *Service {
	return &Service{
		DB:       db,
		Notifier: n,
		Validity: time.Duration(validityMinutes) * time.Minute,
	}
}

// Issue creates a fresh token and publishes it for the mail-out consumer.
func (s *Service) Issue(ctx context.Context, userID uint, tokenType token.Type) (*token.VerificationToken, error) {
	row := &token.VerificationToken{
		Value:     uuid.NewString(),
		UserID:    userID,
		Type:      tokenType,
		ExpiresAt: time.Now().Add(s.Validity),
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&token.VerificationToken{}).
			Where("user_id = ? AND type = ? AND used = ?", userID, tokenType, false).
			Update("used", true).Error
		if err != nil {
			return err
		}
		return tx.Create(row).Error
	})
	if err != nil {
		return nil, err
	}

	if s.Notifier != nil {
		s.Notifier.Publish(ctx, notify.RKTokenIssued, notify.TokenEvent{
			UserID:     userID,
			TokenType:  string(tokenType),
			Token:      row.Value,
			ExpiresAt:  row.ExpiresAt,
			OccurredAt: time.Now(),
		})
	}

	return row, nil
}

// DeleteDead removes used tokens and tokens past their expiry. Called by
// the maintenance sweep.
func (s *Service) DeleteDead(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).
		Where("used = ? OR expires_at <= ?", true, cutoff).
		Delete(&token.VerificationToken{})
	return res.RowsAffected, res.Error
}

// Consume validates and burns a token. Single-use: the used flag flips in
// the same conditional update that validates it, so two concurrent
// consumers cannot both succeed.
func (s *Service) Consume(ctx context.Context, value string, tokenType token.Type) (*token.VerificationToken, error) {
	var row token.VerificationToken
	err := s.DB.WithContext(ctx).
		Where("value = ? AND type = ?", value, tokenType).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	if row.IsExpired() {
		return nil, ErrTokenExpired
	}

	res := s.DB.WithContext(ctx).Model(&token.VerificationToken{}).
		Where("id = ? AND used = ?", row.ID, false).
		Update("used", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrTokenUsed
	}

	row.Used = true
	return &row, nil
}
