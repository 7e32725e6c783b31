package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetlink/core/wire"
)

func TestNewRequest_PermissionRequiredWithControlController(t *testing.T) {
	_, err := NewRequest(RequestSpec{
		Name:  "list_hosts",
		Links: []wire.LinkSpec{wire.LinkControlController},
	})
	require.Error(t, err, "missing permission on a control-controller request must fail construction")
}

func TestNewRequest_PermissionForbiddenWithoutControlController(t *testing.T) {
	_, err := NewRequest(RequestSpec{
		Name:       "update_instances",
		Links:      []wire.LinkSpec{wire.LinkHostController},
		Permission: "core.instance.update",
	})
	require.Error(t, err, "a permission on a non control-controller request must fail construction")
}

func TestNewRequest_ValidControlControllerRequest(t *testing.T) {
	d, err := NewRequest(RequestSpec{
		Name:             "list_hosts",
		Links:            []wire.LinkSpec{wire.LinkControlController},
		Permission:       "core.host.list",
		ResponseProps:    map[string]any{"list": map[string]any{"type": "array"}},
		ResponseRequired: []string{"list"},
	})
	require.NoError(t, err)
	assert.Equal(t, "core.host.list", d.Permission)
	isSource, isTarget := d.AcceptsOn(wire.LinkControlController)
	assert.True(t, isSource)
	assert.False(t, isTarget)
}

func TestNewRequest_ForwardToInstancePrependsInstanceID(t *testing.T) {
	d, err := NewRequest(RequestSpec{
		Name:         "start_instance",
		Links:        []wire.LinkSpec{wire.LinkControllerHost, wire.LinkHostInstance},
		ForwardTo:    ForwardInstance,
		RequestProps: map[string]any{"save": map[string]any{"type": "string"}},
	})
	require.NoError(t, err)

	errs, err := d.RequestSchema.Validate([]byte(`{"save":"a.zip"}`))
	require.NoError(t, err)
	assert.NotEmpty(t, errs, "missing instance_id must fail validation")

	errs, err = d.RequestSchema.Validate([]byte(`{"instance_id":7,"save":"a.zip"}`))
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestNewEvent_BroadcastToMustBeInstanceOrEmpty(t *testing.T) {
	_, err := NewEvent(EventSpec{
		Name:        "banlist_update",
		Links:       []wire.LinkSpec{wire.LinkHostInstance},
		BroadcastTo: "controller",
	})
	assert.Error(t, err)
}

func TestDescriptor_AcceptsOnReverseDirection(t *testing.T) {
	d, err := NewEvent(EventSpec{
		Name:  "host_update",
		Links: []wire.LinkSpec{wire.LinkControllerControl},
	})
	require.NoError(t, err)
	isSource, isTarget := d.AcceptsOn(wire.LinkControlController)
	assert.False(t, isSource)
	assert.True(t, isTarget)
}

func TestCatalog_RejectsDuplicateNames(t *testing.T) {
	a, err := NewEvent(EventSpec{Name: "ping", Links: []wire.LinkSpec{wire.LinkHostInstance}})
	require.NoError(t, err)
	b, err := NewEvent(EventSpec{Name: "ping", Links: []wire.LinkSpec{wire.LinkInstanceHost}})
	require.NoError(t, err)

	_, err = Build(a, b)
	assert.Error(t, err)
}

func TestCatalog_LookupAndOrder(t *testing.T) {
	a, _ := NewEvent(EventSpec{Name: "first", Links: []wire.LinkSpec{wire.LinkHostInstance}})
	b, _ := NewEvent(EventSpec{Name: "second", Links: []wire.LinkSpec{wire.LinkHostInstance}})
	cat, err := Build(a, b)
	require.NoError(t, err)

	d, ok := cat.Lookup("second")
	require.True(t, ok)
	assert.Equal(t, "second", d.Name)

	names := make([]string, 0)
	for _, d := range cat.All() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"first", "second"}, names)
	assert.Equal(t, 2, cat.Len())
}
