package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("syntax error at or near \"FROM\"")
	err := Query("execute", cause)

	assert.Equal(t, "QUERY_ERROR: execute failed: syntax error at or near \"FROM\"", err.Error())
	assert.ErrorIs(t, err, cause)

	plain := NotFound("table", "users")
	assert.Equal(t, "NOT_FOUND: table 'users' not found", plain.Error())
	assert.Nil(t, plain.Unwrap())
}

func TestClassifiers(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{name: "validation", err: Validation("value", "not an integer"), code: ErrCodeValidation},
		{name: "not found", err: NotFound("column", "bogus"), code: ErrCodeNotFound},
		{name: "connection", err: Connection(errors.New("refused")), code: ErrCodeConnection},
		{name: "query", err: Query("fetch", errors.New("boom")), code: ErrCodeQuery},
		{name: "wrapped", err: fmt.Errorf("step: %w", NotFound("table", "t")), code: ErrCodeNotFound},
		{name: "plain error", err: errors.New("plain"), code: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, Code(tt.err))
			assert.Equal(t, tt.code == ErrCodeValidation, IsValidation(tt.err))
			assert.Equal(t, tt.code == ErrCodeNotFound, IsNotFound(tt.err))
			assert.Equal(t, tt.code == ErrCodeConnection, IsConnection(tt.err))
			assert.Equal(t, tt.code == ErrCodeQuery, IsQuery(tt.err))
		})
	}
}
