package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrorTypeConfig, "bad capacity")
	assert.Equal(t, "config: bad capacity", err.Error())
	assert.NotEmpty(t, err.Stack)
}

func TestNewf(t *testing.T) {
	err := Newf(ErrorTypeValidation, "capacity %d out of range", -3)
	assert.Contains(t, err.Error(), "capacity -3 out of range")
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(cause, ErrorTypeInternal, "failed to persist")

	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")

	assert.Nil(t, Wrap(nil, ErrorTypeInternal, "no-op"))
}

func TestWrapPreservesStack(t *testing.T) {
	inner := New(ErrorTypeLifecycle, "not started")
	outer := Wrap(inner, ErrorTypeInternal, "operation failed")
	assert.Equal(t, inner.Stack, outer.Stack)
}

func TestIsType(t *testing.T) {
	err := New(ErrorTypeLifecycle, "not started")
	assert.True(t, IsType(err, ErrorTypeLifecycle))
	assert.False(t, IsType(err, ErrorTypeConfig))
	assert.False(t, IsType(stderrors.New("plain"), ErrorTypeLifecycle))

	assert.True(t, IsLifecycle(err))
	assert.True(t, IsLifecycle(Wrap(err, ErrorTypeLifecycle, "wrapped")))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeConfig, "invalid").WithDetail("capacity", -1)
	assert.Equal(t, -1, err.Details["capacity"])
}
