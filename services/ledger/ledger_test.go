package ledger

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_purchases_user_vehicle_approved"}
	assert.True(t, isUniqueViolation(pgErr))
	assert.True(t, isUniqueViolation(fmt.Errorf("approve purchase: %w", pgErr)))
	assert.True(t, isUniqueViolation(gorm.ErrDuplicatedKey))

	fkErr := &pgconn.PgError{Code: "23503"}
	assert.False(t, isUniqueViolation(fkErr))
	assert.False(t, isUniqueViolation(errors.New("plain failure")))
}

func TestNewServiceValidityWindow(t *testing.T) {
	svc := NewService(nil, 365)
	assert.Equal(t, 365*24*time.Hour, svc.PurchaseValidity)
}
