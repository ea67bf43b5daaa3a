package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	fresh := VerificationToken{ExpiresAt: time.Now().Add(time.Hour)}
	assert.True(t, fresh.IsValid())

	used := VerificationToken{Used: true, ExpiresAt: time.Now().Add(time.Hour)}
	assert.False(t, used.IsValid())

	expired := VerificationToken{ExpiresAt: time.Now().Add(-time.Minute)}
	assert.True(t, expired.IsExpired())
	assert.False(t, expired.IsValid())
}
