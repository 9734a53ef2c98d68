package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_ErrorAndAs(t *testing.T) {
	err := fmt.Errorf("parse: %w", NewValidationError("BAD_EMAIL", "invalid email"))

	var ve *ValidationError
	if assert.True(t, errors.As(err, &ve)) {
		assert.Equal(t, "BAD_EMAIL", ve.Code)
		assert.Equal(t, "invalid email", ve.Message)
	}
	assert.Equal(t, "parse: BAD_EMAIL: invalid email", err.Error())
}

func TestIsTokenError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrMissingToken, true},
		{ErrInvalidToken, true},
		{fmt.Errorf("verify: %w", ErrTokenExpired), true},
		{ErrInvalidOrExpiredToken, true},
		{ErrInvalidCredentials, false},
		{ErrForbidden, false},
		{nil, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTokenError(tt.err), "%v", tt.err)
	}
}
