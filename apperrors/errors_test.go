package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestKindOfFindsWrappedKind(t *testing.T) {
	base := New(KindDuplicateActiveGrant, "vehicle already owned")
	wrapped := fmt.Errorf("creating purchase: %w", base)

	assert.Equal(t, KindDuplicateActiveGrant, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindDuplicateActiveGrant))
	assert.False(t, IsKind(wrapped, KindStaleStateTransition))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindExternalProviderUnavailable, "wallet processor unreachable", cause)
	assert.True(t, errors.Is(err, cause))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindDuplicateActiveGrant, fiber.StatusConflict},
		{KindCategoryNotAllowed, fiber.StatusUnprocessableEntity},
		{KindUnknownExternalTransaction, fiber.StatusNotFound},
		{KindStaleStateTransition, fiber.StatusConflict},
		{KindExternalProviderUnavailable, fiber.StatusBadGateway},
		{Kind("something_else"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.kind), string(tt.kind))
	}
}
