package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil error has no code", nil, ""},
		{"domain error", NewDomainError(CodeConflict, "busy"), CodeConflict},
		{"wrapped domain error", fmt.Errorf("save: %w", ErrNotFound), CodeNotFound},
		{"plain error", errors.New("disk full"), CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestDomainError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapDomainError(CodeDependencyFailed, "sink unavailable", cause)

	assert.ErrorIs(t, err, ErrDependencyFailed)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrInternal)
}
