package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayforge/relay/pkg/exchange"
	"github.com/relayforge/relay/pkg/exchange/factory"
)

func TestPrototypeFactory_AlwaysAllocates(t *testing.T) {
	f := factory.NewPrototypeFactory(newTestConsumer("proto"), true)

	ex1 := f.Create(false)
	require.True(t, f.Release(ex1))

	ex2 := f.Create(false)
	assert.NotSame(t, ex1, ex2, "prototype factory never reuses")

	stats := f.Statistics()
	assert.Equal(t, uint64(2), stats.Created)
	assert.Equal(t, uint64(0), stats.Acquired)
	assert.Equal(t, 0, f.Size())
	assert.Equal(t, 0, f.Capacity())
}

func TestPrototypeFactory_StampsExchange(t *testing.T) {
	consumer := newTestConsumer("proto-stamp")
	f := factory.NewPrototypeFactory(consumer, true)

	ex := f.Create(true)
	assert.NotEmpty(t, ex.ID())
	assert.True(t, ex.AutoRelease())
	assert.Equal(t, consumer.Endpoint(), ex.FromEndpoint())

	from := &exchange.Endpoint{URI: "direct://elsewhere"}
	ex2 := f.CreateFrom(from, false)
	assert.Equal(t, from, ex2.FromEndpoint())
}

func TestPrototypeFactory_SetCapacity(t *testing.T) {
	f := factory.NewPrototypeFactory(newTestConsumer("proto-cap"), true)

	assert.NoError(t, f.SetCapacity(10))
	assert.Equal(t, 0, f.Capacity(), "capacity is meaningless without a pool")
	assert.Error(t, f.SetCapacity(-1))
}

func TestPrototypeFactory_Lifecycle(t *testing.T) {
	f := factory.NewPrototypeFactory(newTestConsumer("proto-life"), false)

	require.NoError(t, f.Start())
	require.NoError(t, f.Stop())
	f.Purge()
	assert.Equal(t, factory.Statistics{}, f.Statistics())
}
