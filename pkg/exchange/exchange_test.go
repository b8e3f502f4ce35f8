package exchange

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchange_HeadersAndProperties(t *testing.T) {
	ex := New()

	_, ok := ex.Header("missing")
	assert.False(t, ok)
	assert.Nil(t, ex.Headers())

	ex.SetHeader("content-type", "text/plain")
	v, ok := ex.Header("content-type")
	require.True(t, ok)
	assert.Equal(t, "text/plain", v)

	ex.SetProperty("attempt", 2)
	v, ok = ex.Property("attempt")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestExchange_ResetClearsAllPerUseState(t *testing.T) {
	ex := New()
	ex.SetID(NextID())
	ex.SetFromEndpoint(&Endpoint{URI: "direct://in"})
	ex.SetAutoRelease(true)
	ex.SetCreated(time.Now())
	ex.Body = "payload"
	ex.SetHeader("k", "v")
	ex.SetProperty("p", 1)
	ex.SetErr(errors.New("boom"))

	ex.Reset()

	assert.Equal(t, "", ex.ID())
	assert.Nil(t, ex.FromEndpoint())
	assert.False(t, ex.AutoRelease())
	assert.True(t, ex.Created().IsZero())
	assert.Nil(t, ex.Body)
	assert.Nil(t, ex.Headers())
	assert.Nil(t, ex.Properties())
	assert.NoError(t, ex.Err())

	_, ok := ex.Header("k")
	assert.False(t, ok)
	_, ok = ex.Property("p")
	assert.False(t, ok)
}

func TestExchange_ResetKeepsOwner(t *testing.T) {
	owner := releaserFunc(func(*Exchange) bool { return true })
	ex := New()
	ex.SetOwner(owner)

	ex.Reset()
	assert.NotNil(t, ex.Owner())
}

func TestExchange_IdleTransitions(t *testing.T) {
	ex := New()
	assert.False(t, ex.Idle(), "a fresh exchange is checked out")

	assert.True(t, ex.MarkIdle())
	assert.False(t, ex.MarkIdle(), "second idle transition must fail")
	assert.True(t, ex.Idle())

	ex.MarkBusy()
	assert.False(t, ex.Idle())
	assert.True(t, ex.MarkIdle())
}

func TestNextID_UniqueAndPrefixed(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NextID()
		require.True(t, strings.HasPrefix(id, "exchange-"))
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

type releaserFunc func(*Exchange) bool

func (f releaserFunc) Release(ex *Exchange) bool { return f(ex) }
