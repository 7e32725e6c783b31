package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetlink/core/registry"
	"github.com/fleetlink/core/wire"
)

// TestCatalog_BuildsWithoutPanicking exercises the package-level MustBuild
// call: importing this package at all proves the catalog does not panic,
// but we also assert a sane non-zero size here for a clearer failure
// message if it ever regresses to empty.
func TestCatalog_BuildsWithoutPanicking(t *testing.T) {
	require.Greater(t, Catalog.Len(), 50)
}

// TestCatalog_PermissionInvariant is Testable Property 1: permission is set
// iff control-controller is a declared link, for every descriptor.
func TestCatalog_PermissionInvariant(t *testing.T) {
	for _, d := range Catalog.All() {
		_, hasControlController := d.Links[wire.LinkControlController]
		if hasControlController {
			assert.NotEmpty(t, d.Permission, "%s declares control-controller but has no permission", d.Name)
		} else {
			assert.Empty(t, d.Permission, "%s has a permission but does not declare control-controller", d.Name)
		}
	}
}

// TestCatalog_BroadcastInvariant is Testable Property 3: only Events may
// set broadcastTo, and only to "instance".
func TestCatalog_BroadcastInvariant(t *testing.T) {
	for _, d := range Catalog.All() {
		if d.Kind == wire.KindRequest {
			assert.Equal(t, registry.BroadcastNone, d.BroadcastTo, "%s is a request but has a broadcastTo", d.Name)
			continue
		}
		assert.Contains(t, []registry.BroadcastTarget{registry.BroadcastNone, registry.BroadcastInstance}, d.BroadcastTo, d.Name)
	}
}

// TestCatalog_NoDuplicateNames relies on MustBuild having already enforced
// this; this test instead asserts every name appears exactly once in All(),
// guarding against a future refactor accidentally bypassing Build.
func TestCatalog_NoDuplicateNames(t *testing.T) {
	seen := make(map[string]int)
	for _, d := range Catalog.All() {
		seen[d.Name]++
	}
	for name, count := range seen {
		assert.Equal(t, 1, count, "name %q appears %d times", name, count)
	}
}

// TestCatalog_ListUpdateEventsBroadcastToInstance checks the three
// list-update events are all declared broadcast-to-instance (spec §6).
func TestCatalog_ListUpdateEventsBroadcastToInstance(t *testing.T) {
	for _, name := range []string{"banlist_update", "adminlist_update", "whitelist_update"} {
		d, ok := Catalog.Lookup(name)
		require.True(t, ok, "%s not found", name)
		assert.Equal(t, registry.BroadcastInstance, d.BroadcastTo)
	}
}

// TestCatalog_ForwardToControllerEvents checks save_list_update and
// player_event both forward to the controller (spec §6).
func TestCatalog_ForwardToControllerEvents(t *testing.T) {
	for _, name := range []string{"save_list_update", "player_event"} {
		d, ok := Catalog.Lookup(name)
		require.True(t, ok, "%s not found", name)
		assert.Equal(t, registry.ForwardController, d.ForwardTo)
	}
}

// TestCatalog_ForwardToInstanceRequestsRequireInstanceID is Testable
// Property 2 specialized to the request descriptors forwarded to an
// instance.
func TestCatalog_ForwardToInstanceRequestsRequireInstanceID(t *testing.T) {
	for _, d := range Catalog.All() {
		if d.ForwardTo != registry.ForwardInstance {
			continue
		}
		doc := d.PayloadSchema().Doc()
		props, _ := doc["properties"].(map[string]any)
		_, hasInstanceID := props["instance_id"]
		assert.True(t, hasInstanceID, "%s forwards to instance but schema lacks instance_id", d.Name)

		required, _ := doc["required"].([]string)
		require.NotEmpty(t, required, "%s forwards to instance but has no required fields", d.Name)
		assert.Equal(t, "instance_id", required[0], "%s: instance_id must be the first required property", d.Name)
	}
}
