package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLinkSpec_ValidPair(t *testing.T) {
	spec, err := NewLinkSpec(RoleHost, RoleInstance)
	require.NoError(t, err)
	assert.Equal(t, LinkHostInstance, spec)
}

func TestNewLinkSpec_InvalidPair(t *testing.T) {
	_, err := NewLinkSpec(RoleInstance, RoleControl)
	assert.Error(t, err)
}

func TestLinkSpec_RolesAndReverse(t *testing.T) {
	source, target := LinkControllerHost.Roles()
	assert.Equal(t, RoleController, source)
	assert.Equal(t, RoleHost, target)
	assert.Equal(t, LinkHostController, LinkControllerHost.Reverse())
}

func TestMessageTypeSuffixes(t *testing.T) {
	assert.Equal(t, "ping_request", RequestType("ping"))
	assert.Equal(t, "ping_response", ResponseType("ping"))
	assert.Equal(t, "host_update_event", EventType("host_update"))
}

func TestMarshal_RoundTrip(t *testing.T) {
	env, err := Marshal(RequestType("ping"), 7, map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, "ping_request", env.Type)
	assert.EqualValues(t, 7, env.Seq)
	assert.JSONEq(t, `{"x":1}`, string(env.Data))
}
