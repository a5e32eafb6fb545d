package mcptoolkit

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{ToolID: "x", Available: []string{"a", "b"}}
	assert.Equal(t, `tool not found: "x"; available tools: a, b`, err.Error())
	assert.ErrorIs(t, err, ErrToolNotFound)
	assert.NotErrorIs(t, err, ErrNoToolsRegistered)

	empty := &NotFoundError{ToolID: "x"}
	assert.Equal(t, `tool not found: "x" (no tools registered)`, empty.Error())
	assert.ErrorIs(t, empty, ErrNoToolsRegistered)
}

func TestInputError(t *testing.T) {
	err := &InputError{Field: "location", Reason: "required field is missing"}
	assert.Equal(t, `invalid tool input: field "location": required field is missing`, err.Error())
	assert.ErrorIs(t, err, ErrInvalidInput)

	inner := errors.New("bad json")
	err = &InputError{Reason: "decode", Err: inner}
	assert.Equal(t, "invalid tool input: decode", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestHandlerError(t *testing.T) {
	inner := errors.New("boom")
	err := &HandlerError{ToolID: "svc__op", CallID: "1", Err: inner}
	assert.Equal(t, `tool "svc__op" failed: boom`, err.Error())
	assert.ErrorIs(t, err, ErrHandlerFailed)
	assert.ErrorIs(t, err, inner)
}

func TestTimeoutError(t *testing.T) {
	err := &TimeoutError{ToolID: "svc__op", Timeout: time.Second}
	assert.Equal(t, `tool "svc__op" timed out after 1s`, err.Error())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrHandlerFailed)
	assert.Equal(t, `tool "svc__op" timed out`, (&TimeoutError{ToolID: "svc__op"}).Error())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"not found", &NotFoundError{ToolID: "x"}, KindToolNotFound},
		{"input", &InputError{Reason: "r"}, KindInvalidInput},
		{"handler", &HandlerError{Err: errors.New("e")}, KindHandlerFailed},
		{"timeout", &TimeoutError{}, KindTimeout},
		{"nested", &NestedSchedulerError{}, KindNestedSchedulerConflict},
		{"unknown external", fmt.Errorf("skip: %w", ErrUnknownExternalTool), KindUnknownExternalTool},
		{"wrapped", fmt.Errorf("ctx: %w", &InputError{Reason: "r"}), KindInvalidInput},
		{"outermost wins", &HandlerError{Err: &NotFoundError{ToolID: "inner"}}, KindHandlerFailed},
		{"joined", errors.Join(errors.New("x"), ErrTimeout), KindTimeout},
		{"other", errors.New("plain"), KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}
