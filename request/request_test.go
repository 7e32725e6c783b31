package request

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetlink/core/connector"
	"github.com/fleetlink/core/link"
	"github.com/fleetlink/core/permission"
	"github.com/fleetlink/core/registry"
	"github.com/fleetlink/core/wire"
)

func newLinkPair(t *testing.T, source, target wire.Role) (*link.Link, *link.Link) {
	t.Helper()
	a, b := connector.NewPipe(string(source), string(target))
	la, err := link.New(source, target, a, zerolog.Nop())
	require.NoError(t, err)
	lb, err := link.New(target, source, b, zerolog.Nop())
	require.NoError(t, err)
	return la, lb
}

func mustRequestDescriptor(t *testing.T, spec registry.RequestSpec) *registry.Descriptor {
	t.Helper()
	d, err := registry.NewRequest(spec)
	require.NoError(t, err)
	return d
}

// TestAttach_SourceRegistersResponseValidatorOnly asserts the source side
// gets no request handler, only a response validator.
func TestAttach_SourceRegistersResponseValidatorOnly(t *testing.T) {
	clientLink, serverLink := newLinkPair(t, wire.RoleHost, wire.RoleController)

	d := mustRequestDescriptor(t, registry.RequestSpec{
		Name:  "ping",
		Links: []wire.LinkSpec{wire.LinkHostController},
	})

	require.NoError(t, Attach(clientLink, d, nil))
	require.NoError(t, Attach(serverLink, d, func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]any{})
	}))

	resp, err := Send(context.Background(), clientLink, d, json.RawMessage(`{}`))
	require.NoError(t, err)
	assert.NotNil(t, resp)
}

// TestAttach_TargetWithoutHandlerOrForwardFails covers the "missing
// handler" fatal startup error (spec §4.7).
func TestAttach_TargetWithoutHandlerOrForwardFails(t *testing.T) {
	_, serverLink := newLinkPair(t, wire.RoleHost, wire.RoleController)

	d := mustRequestDescriptor(t, registry.RequestSpec{
		Name:  "some_op",
		Links: []wire.LinkSpec{wire.LinkHostController},
	})

	err := Attach(serverLink, d, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no handler supplied")
}

// TestAttach_PermissionDeniedOnControllerControl covers Invariant 1: the
// controller-control target side enforces identity permission.
func TestAttach_PermissionDeniedOnControllerControl(t *testing.T) {
	controlLink, controllerLink := newLinkPair(t, wire.RoleControl, wire.RoleController)

	d := mustRequestDescriptor(t, registry.RequestSpec{
		Name:       "instance_start",
		Links:      []wire.LinkSpec{wire.LinkControlController},
		Permission: string(permission.InstanceStart),
	})

	called := false
	require.NoError(t, Attach(controlLink, d, nil))
	require.NoError(t, Attach(controllerLink, d, func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		called = true
		return json.Marshal(map[string]any{})
	}))

	controllerLink.Identity = &permission.Identity{Name: "alice", Permissions: permission.NewSet()}

	_, err := Send(context.Background(), controlLink, d, json.RawMessage(`{}`))
	require.Error(t, err)
	assert.False(t, called)
	assert.Contains(t, err.Error(), "permission denied")
}

// TestAttach_PermissionGrantedOnControllerControl is the positive case of
// the above.
func TestAttach_PermissionGrantedOnControllerControl(t *testing.T) {
	controlLink, controllerLink := newLinkPair(t, wire.RoleControl, wire.RoleController)

	d := mustRequestDescriptor(t, registry.RequestSpec{
		Name:       "instance_start",
		Links:      []wire.LinkSpec{wire.LinkControlController},
		Permission: string(permission.InstanceStart),
	})

	require.NoError(t, Attach(controlLink, d, nil))
	require.NoError(t, Attach(controllerLink, d, func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]any{})
	}))

	controllerLink.Identity = &permission.Identity{Name: "alice", Permissions: permission.NewSet(permission.InstanceStart)}

	_, err := Send(context.Background(), controlLink, d, json.RawMessage(`{}`))
	require.NoError(t, err)
}

// TestSend_InvalidPayloadFailsLocallyWithoutTransmission covers "sending a
// request whose payload fails the request schema is a local programming
// error (fails synchronously, no transmission)".
func TestSend_InvalidPayloadFailsLocallyWithoutTransmission(t *testing.T) {
	clientLink, _ := newLinkPair(t, wire.RoleHost, wire.RoleController)

	d := mustRequestDescriptor(t, registry.RequestSpec{
		Name:            "strict_op",
		Links:           []wire.LinkSpec{wire.LinkHostController},
		RequestProps:    map[string]any{"name": map[string]any{"type": "string"}},
		RequestRequired: []string{"name"},
	})

	require.NoError(t, Attach(clientLink, d, nil))

	_, err := Send(context.Background(), clientLink, d, json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid request payload")
}

// TestAttach_ForwardToInstanceConvention wires a host as the target side
// that forwards down to an instance by convention, with no explicit
// handler supplied.
func TestAttach_ForwardToInstanceConvention(t *testing.T) {
	controllerLink, hostLink := newLinkPair(t, wire.RoleController, wire.RoleHost)
	hostSideToInstance, instanceLink := newLinkPair(t, wire.RoleHost, wire.RoleInstance)

	d := mustRequestDescriptor(t, registry.RequestSpec{
		Name:      "start_instance",
		Links:     []wire.LinkSpec{wire.LinkControllerHost},
		ForwardTo: registry.ForwardInstance,
	})

	dInstance := mustRequestDescriptor(t, registry.RequestSpec{
		Name:  "start_instance",
		Links: []wire.LinkSpec{wire.LinkHostInstance},
	})

	require.NoError(t, Attach(controllerLink, d, nil))
	require.NoError(t, Attach(hostLink, d, nil)) // forwards by convention
	require.NoError(t, Attach(hostSideToInstance, dInstance, nil))
	require.NoError(t, Attach(instanceLink, dInstance, func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]any{"started": true})
	}))

	hostLink.Downstream = singleInstanceLookup{id: 7, l: hostSideToInstance}

	resp, err := Send(context.Background(), controllerLink, d, json.RawMessage(`{"instance_id":7}`))
	require.NoError(t, err)
	var parsed struct {
		Started bool `json:"started"`
	}
	require.NoError(t, json.Unmarshal(resp, &parsed))
	assert.True(t, parsed.Started)
}

type singleInstanceLookup struct {
	id int64
	l  *link.Link
}

func (s singleInstanceLookup) ByInstance(id int64) (*link.Link, bool) {
	if id == s.id {
		return s.l, true
	}
	return nil, false
}

func (s singleInstanceLookup) All() []*link.Link { return []*link.Link{s.l} }
