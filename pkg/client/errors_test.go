package client

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  &Error{Kind: KindConfig, Message: "no warehouse id"},
			want: "no warehouse id",
		},
		{
			name: "with state",
			err:  &Error{Kind: KindTimeout, Message: "did not complete", State: StateRunning},
			want: "did not complete (state RUNNING)",
		},
		{
			name: "with code",
			err:  &Error{Kind: KindTransport, Message: "HTTP 400: bad request", Code: "INVALID_PARAMETER_VALUE"},
			want: "HTTP 400: bad request (INVALID_PARAMETER_VALUE)",
		},
		{
			name: "with state and code",
			err: &Error{
				Kind:    KindFailed,
				Message: "statement execution failed: table not found",
				State:   StateFailed,
				Code:    "TABLE_NOT_FOUND",
			},
			want: "statement execution failed: table not found (TABLE_NOT_FOUND, state FAILED)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIsKind(t *testing.T) {
	err := &Error{Kind: KindFailed, Message: "boom"}

	assert.True(t, IsKind(err, KindFailed))
	assert.False(t, IsKind(err, KindTimeout))
	assert.False(t, IsKind(errors.New("plain"), KindFailed))
	assert.False(t, IsKind(nil, KindFailed))

	wrapped := fmt.Errorf("executing statement: %w", err)
	assert.True(t, IsKind(wrapped, KindFailed), "wrapped faults must still match")
}
