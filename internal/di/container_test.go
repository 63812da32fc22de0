package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter struct{ name string }

func TestContainer(t *testing.T) {
	c := NewContainer()
	assert.False(t, c.Has(ServiceExport))

	c.Register(ServiceExport, &greeter{name: "export"})
	c.Register(ServiceCatalog, &greeter{name: "catalog"})
	assert.True(t, c.Has(ServiceExport))
	assert.Equal(t, []string{ServiceCatalog, ServiceExport}, c.GetNames())

	c.Clear()
	assert.Empty(t, c.GetNames())
	assert.Nil(t, c.Get(ServiceExport))
}

func TestResolve(t *testing.T) {
	c := NewContainer()
	c.Register(ServiceSession, &greeter{name: "sessions"})

	g, err := Resolve[*greeter](c, ServiceSession)
	require.NoError(t, err)
	assert.Equal(t, "sessions", g.name)

	_, err = Resolve[*greeter](c, ServiceLLM)
	assert.Error(t, err)

	_, err = Resolve[string](c, ServiceSession)
	assert.Error(t, err)
}

func TestGetContainerIsShared(t *testing.T) {
	assert.Same(t, GetContainer(), GetContainer())
}
