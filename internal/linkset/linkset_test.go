package linkset

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetlink/core/connector"
	"github.com/fleetlink/core/link"
	"github.com/fleetlink/core/wire"
)

func newTestLink(t *testing.T) *link.Link {
	t.Helper()
	a, _ := connector.NewPipe("host", "instance")
	l, err := link.New(wire.RoleHost, wire.RoleInstance, a, zerolog.Nop())
	require.NoError(t, err)
	return l
}

func TestRegistry_AssignAndByInstance(t *testing.T) {
	r := NewRegistry()
	l := newTestLink(t)
	r.AddMember("conn-1", l)
	r.Assign(7, l)

	got, ok := r.ByInstance(7)
	assert.True(t, ok)
	assert.Same(t, l, got)

	_, ok = r.ByInstance(99)
	assert.False(t, ok)
}

func TestRegistry_RemoveMemberClearsAssignments(t *testing.T) {
	r := NewRegistry()
	l := newTestLink(t)
	r.AddMember("conn-1", l)
	r.Assign(7, l)

	r.RemoveMember("conn-1", l)

	_, ok := r.ByInstance(7)
	assert.False(t, ok)
	assert.Empty(t, r.All())
}

func TestRegistry_AllIsStableOrder(t *testing.T) {
	r := NewRegistry()
	a := newTestLink(t)
	b := newTestLink(t)
	r.AddMember("b", b)
	r.AddMember("a", a)

	first := r.All()
	second := r.All()
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}

func TestUpstream_SetAndClear(t *testing.T) {
	u := NewUpstream()
	_, ok := u.Upstream()
	assert.False(t, ok)

	l := newTestLink(t)
	u.Set(l)
	got, ok := u.Upstream()
	require.True(t, ok)
	assert.Same(t, l, got)

	u.Clear()
	_, ok = u.Upstream()
	assert.False(t, ok)
}
