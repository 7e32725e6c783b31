// Package catalog declares the fixed message catalog (spec §6): every
// Request and Event the core ships with, built once at package init via
// registry.MustBuild so a broken declaration fails the process immediately
// rather than surfacing as a runtime routing bug.
package catalog

import (
	"github.com/fleetlink/core/permission"
	"github.com/fleetlink/core/registry"
	"github.com/fleetlink/core/wire"
)

var (
	allLinks = wire.AllLinkSpecs

	controlToControllerOnly = []wire.LinkSpec{wire.LinkControlController}

	toInstanceChain = []wire.LinkSpec{
		wire.LinkControlController,
		wire.LinkControllerHost,
		wire.LinkHostInstance,
	}

	listUpdateBroadcastChain = []wire.LinkSpec{
		wire.LinkHostController,
		wire.LinkControllerHost,
		wire.LinkHostInstance,
	}

	// controllerPushOnly carries notification-style events the controller
	// originates and pushes down to subscribed control clients — the mirror
	// image of controlToControllerOnly, not a request/response pair.
	controllerPushOnly = []wire.LinkSpec{wire.LinkControllerControl}

	// hostToControlChain is how an event an instance or host raises reaches
	// a subscribed control client: up through the controller, then out to
	// control.
	hostToControlChain = []wire.LinkSpec{wire.LinkHostController, wire.LinkControllerControl}

	// instanceToControlChain also carries save_list_update: same instance ->
	// host -> controller -> control path as the instance lifecycle events.
	instanceToControlChain = []wire.LinkSpec{
		wire.LinkInstanceHost,
		wire.LinkHostController,
		wire.LinkControllerControl,
	}
)

func req(spec registry.RequestSpec) *registry.Descriptor {
	d, err := registry.NewRequest(spec)
	if err != nil {
		panic(err)
	}
	return d
}

func evt(spec registry.EventSpec) *registry.Descriptor {
	d, err := registry.NewEvent(spec)
	if err != nil {
		panic(err)
	}
	return d
}

// Catalog is the process-wide, read-only message registry.
var Catalog = registry.MustBuild(allDescriptors()...)

func allDescriptors() []*registry.Descriptor {
	var all []*registry.Descriptor
	all = append(all, connectionControl()...)
	all = append(all, controllerConfig()...)
	all = append(all, hostManagement()...)
	all = append(all, instanceManagement()...)
	all = append(all, saveFiles()...)
	all = append(all, modPacksAndMods()...)
	all = append(all, usersAndRoles()...)
	all = append(all, logs()...)
	all = append(all, internalOps()...)
	all = append(all, events()...)
	return all
}

func connectionControl() []*registry.Descriptor {
	// ping/prepare_disconnect carry no permission, so they leave out
	// control-controller: the registry requires a permission on exactly the
	// messages that list that link.
	peerLinks := []wire.LinkSpec{
		wire.LinkControllerControl,
		wire.LinkControllerHost,
		wire.LinkHostController,
		wire.LinkHostInstance,
		wire.LinkInstanceHost,
	}
	return []*registry.Descriptor{
		req(registry.RequestSpec{
			Name:              "ping",
			Links:             peerLinks,
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:              "prepare_disconnect",
			Links:             peerLinks,
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:              "prepare_controller_disconnect",
			Links:             []wire.LinkSpec{wire.LinkControllerHost},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:              "debug_dump_ws",
			Links:             []wire.LinkSpec{wire.LinkControllerHost},
			ResponseProps:     map[string]any{"dump": map[string]any{"type": "string"}},
			ResponseRequired:  []string{"dump"},
			AdditionalPropsOK: true,
		}),
	}
}

func controllerConfig() []*registry.Descriptor {
	return []*registry.Descriptor{
		req(registry.RequestSpec{
			Name:              "get_controller_config",
			Links:             controlToControllerOnly,
			Permission:        string(permission.ControllerConfigGet),
			RequestProps:      map[string]any{"field": map[string]any{"type": "string"}},
			RequestRequired:   []string{"field"},
			ResponseProps:     map[string]any{"value": map[string]any{}},
			ResponseRequired:  []string{"value"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:            "set_controller_config",
			Links:           controlToControllerOnly,
			Permission:      string(permission.ControllerConfigSet),
			RequestProps:    map[string]any{"field": map[string]any{"type": "string"}, "value": map[string]any{}},
			RequestRequired: []string{"field", "value"},
		}),
	}
}

func hostManagement() []*registry.Descriptor {
	return []*registry.Descriptor{
		req(registry.RequestSpec{
			Name:              "list_hosts",
			Links:             controlToControllerOnly,
			Permission:        string(permission.HostList),
			ResponseProps:     map[string]any{"hosts": map[string]any{"type": "array", "items": map[string]any{"type": "object"}}},
			ResponseRequired:  []string{"hosts"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:       "subscribe_host_updates",
			Links:      controlToControllerOnly,
			Permission: string(permission.HostSubscribe),
		}),
		req(registry.RequestSpec{
			Name:              "generate_host_token",
			Links:             controlToControllerOnly,
			Permission:        string(permission.HostGenerateToken),
			RequestProps:      map[string]any{"host_name": map[string]any{"type": "string"}},
			RequestRequired:   []string{"host_name"},
			ResponseProps:     map[string]any{"token": map[string]any{"type": "string"}},
			ResponseRequired:  []string{"token"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:            "create_host_config",
			Links:           controlToControllerOnly,
			Permission:      string(permission.HostCreateConfig),
			RequestProps:    map[string]any{"name": map[string]any{"type": "string"}},
			RequestRequired: []string{"name"},
		}),
	}
}

func instanceManagement() []*registry.Descriptor {
	return []*registry.Descriptor{
		req(registry.RequestSpec{
			Name:              "get_instance",
			Links:             controlToControllerOnly,
			Permission:        string(permission.InstanceGet),
			RequestProps:      map[string]any{"instance_id": map[string]any{"type": "integer"}},
			RequestRequired:   []string{"instance_id"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:              "list_instances",
			Links:             controlToControllerOnly,
			Permission:        string(permission.InstanceList),
			ResponseProps:     map[string]any{"instances": map[string]any{"type": "array", "items": map[string]any{"type": "object"}}},
			ResponseRequired:  []string{"instances"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:       "subscribe_instance_updates",
			Links:      controlToControllerOnly,
			Permission: string(permission.InstanceSubscribe),
		}),
		req(registry.RequestSpec{
			Name:              "create_instance",
			Links:             controlToControllerOnly,
			Permission:        string(permission.InstanceCreate),
			RequestProps:      map[string]any{"name": map[string]any{"type": "string"}},
			RequestRequired:   []string{"name"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:              "get_instance_config",
			Links:             controlToControllerOnly,
			Permission:        string(permission.InstanceGetConfig),
			RequestProps:      map[string]any{"instance_id": map[string]any{"type": "integer"}, "field": map[string]any{"type": "string"}},
			RequestRequired:   []string{"instance_id", "field"},
			ResponseProps:     map[string]any{"value": map[string]any{}},
			ResponseRequired:  []string{"value"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:            "set_instance_config",
			Links:           controlToControllerOnly,
			Permission:      string(permission.InstanceSetConfig),
			RequestProps:    map[string]any{"instance_id": map[string]any{"type": "integer"}, "field": map[string]any{"type": "string"}, "value": map[string]any{}},
			RequestRequired: []string{"instance_id", "field", "value"},
		}),
		req(registry.RequestSpec{
			Name:            "instance_assign",
			Links:           controlToControllerOnly,
			Permission:      string(permission.InstanceAssign),
			RequestProps:    map[string]any{"instance_id": map[string]any{"type": "integer"}, "host_id": map[string]any{"type": "integer"}},
			RequestRequired: []string{"instance_id", "host_id"},
		}),
		req(registry.RequestSpec{
			Name:              "start_instance",
			Links:             toInstanceChain,
			Permission:        string(permission.InstanceStart),
			ForwardTo:         registry.ForwardInstance,
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:              "stop_instance",
			Links:             toInstanceChain,
			Permission:        string(permission.InstanceStop),
			ForwardTo:         registry.ForwardInstance,
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:              "kill_instance",
			Links:             toInstanceChain,
			Permission:        string(permission.InstanceKill),
			ForwardTo:         registry.ForwardInstance,
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:            "delete_instance",
			Links:           controlToControllerOnly,
			Permission:      string(permission.InstanceDelete),
			RequestProps:    map[string]any{"instance_id": map[string]any{"type": "integer"}},
			RequestRequired: []string{"instance_id"},
		}),
		req(registry.RequestSpec{
			Name:              "load_scenario",
			Links:             toInstanceChain,
			Permission:        string(permission.InstanceLoadScenario),
			ForwardTo:         registry.ForwardInstance,
			RequestProps:      map[string]any{"scenario": map[string]any{"type": "string"}},
			RequestRequired:   []string{"scenario"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:              "export_data",
			Links:             toInstanceChain,
			Permission:        string(permission.InstanceExportData),
			ForwardTo:         registry.ForwardInstance,
			ResponseProps:     map[string]any{"path": map[string]any{"type": "string"}},
			ResponseRequired:  []string{"path"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:              "extract_players",
			Links:             toInstanceChain,
			Permission:        string(permission.InstanceExtractPlay),
			ForwardTo:         registry.ForwardInstance,
			ResponseProps:     map[string]any{"players": map[string]any{"type": "array", "items": map[string]any{"type": "string"}}},
			ResponseRequired:  []string{"players"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:              "send_rcon",
			Links:             toInstanceChain,
			Permission:        string(permission.InstanceSendRCON),
			ForwardTo:         registry.ForwardInstance,
			RequestProps:      map[string]any{"command": map[string]any{"type": "string"}},
			RequestRequired:   []string{"command"},
			ResponseProps:     map[string]any{"output": map[string]any{"type": "string"}},
			ResponseRequired:  []string{"output"},
			AdditionalPropsOK: true,
		}),
	}
}

// saveFiles' ForwardTo is always instance, so instance_id is already
// prepended by registry.WithInstanceID; these props only add what's
// specific to each operation.
func saveFiles() []*registry.Descriptor {
	pathProps := map[string]any{"path": map[string]any{"type": "string"}}
	pathRequired := []string{"path"}
	return []*registry.Descriptor{
		req(registry.RequestSpec{
			Name:              "list_saves",
			Links:             toInstanceChain,
			Permission:        string(permission.SaveList),
			ForwardTo:         registry.ForwardInstance,
			ResponseProps:     map[string]any{"saves": map[string]any{"type": "array", "items": map[string]any{"type": "object"}}},
			ResponseRequired:  []string{"saves"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:              "create_save",
			Links:             toInstanceChain,
			Permission:        string(permission.SaveCreate),
			ForwardTo:         registry.ForwardInstance,
			RequestProps:      pathProps,
			RequestRequired:   pathRequired,
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:              "rename_save",
			Links:             toInstanceChain,
			Permission:        string(permission.SaveRename),
			ForwardTo:         registry.ForwardInstance,
			RequestProps:      map[string]any{"old_name": map[string]any{"type": "string"}, "new_name": map[string]any{"type": "string"}},
			RequestRequired:   []string{"old_name", "new_name"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:              "copy_save",
			Links:             toInstanceChain,
			Permission:        string(permission.SaveCopy),
			ForwardTo:         registry.ForwardInstance,
			RequestProps:      map[string]any{"source": map[string]any{"type": "string"}, "target": map[string]any{"type": "string"}},
			RequestRequired:   []string{"source", "target"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:              "delete_save",
			Links:             toInstanceChain,
			Permission:        string(permission.SaveDelete),
			ForwardTo:         registry.ForwardInstance,
			RequestProps:      pathProps,
			RequestRequired:   pathRequired,
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:              "download_save",
			Links:             toInstanceChain,
			Permission:        string(permission.SaveDownload),
			ForwardTo:         registry.ForwardInstance,
			RequestProps:      pathProps,
			RequestRequired:   pathRequired,
			ResponseProps:     map[string]any{"url": map[string]any{"type": "string"}},
			ResponseRequired:  []string{"url"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:              "transfer_save",
			Links:             toInstanceChain,
			Permission:        string(permission.SaveTransfer),
			ForwardTo:         registry.ForwardInstance,
			RequestProps:      map[string]any{"source": map[string]any{"type": "string"}, "target_instance_id": map[string]any{"type": "integer"}},
			RequestRequired:   []string{"source", "target_instance_id"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:              "pull_save",
			Links:             toInstanceChain,
			Permission:        string(permission.SaveDownload),
			ForwardTo:         registry.ForwardInstance,
			RequestProps:      pathProps,
			RequestRequired:   pathRequired,
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:              "push_save",
			Links:             toInstanceChain,
			Permission:        string(permission.SaveCreate),
			ForwardTo:         registry.ForwardInstance,
			RequestProps:      pathProps,
			RequestRequired:   pathRequired,
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:       "subscribe_save_list_updates",
			Links:      controlToControllerOnly,
			Permission: string(permission.SaveList),
		}),
	}
}

func modPacksAndMods() []*registry.Descriptor {
	return []*registry.Descriptor{
		req(registry.RequestSpec{
			Name:              "list_mod_packs",
			Links:             controlToControllerOnly,
			Permission:        string(permission.ModPackRead),
			ResponseProps:     map[string]any{"mod_packs": map[string]any{"type": "array", "items": map[string]any{"type": "object"}}},
			ResponseRequired:  []string{"mod_packs"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:            "create_mod_pack",
			Links:           controlToControllerOnly,
			Permission:      string(permission.ModPackWrite),
			RequestProps:    map[string]any{"name": map[string]any{"type": "string"}},
			RequestRequired: []string{"name"},
		}),
		req(registry.RequestSpec{
			Name:            "update_mod_pack",
			Links:           controlToControllerOnly,
			Permission:      string(permission.ModPackWrite),
			RequestProps:    map[string]any{"name": map[string]any{"type": "string"}},
			RequestRequired: []string{"name"},
		}),
		req(registry.RequestSpec{
			Name:            "delete_mod_pack",
			Links:           controlToControllerOnly,
			Permission:      string(permission.ModPackDelete),
			RequestProps:    map[string]any{"name": map[string]any{"type": "string"}},
			RequestRequired: []string{"name"},
		}),
		req(registry.RequestSpec{
			Name:              "search_mod_packs",
			Links:             controlToControllerOnly,
			Permission:        string(permission.ModPackSearch),
			RequestProps:      map[string]any{"query": map[string]any{"type": "string"}},
			RequestRequired:   []string{"query"},
			ResponseProps:     map[string]any{"results": map[string]any{"type": "array", "items": map[string]any{"type": "object"}}},
			ResponseRequired:  []string{"results"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:              "download_mod_pack",
			Links:             controlToControllerOnly,
			Permission:        string(permission.ModPackDownload),
			RequestProps:      map[string]any{"name": map[string]any{"type": "string"}},
			RequestRequired:   []string{"name"},
			ResponseProps:     map[string]any{"url": map[string]any{"type": "string"}},
			ResponseRequired:  []string{"url"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:              "list_mods",
			Links:             controlToControllerOnly,
			Permission:        string(permission.ModRead),
			ResponseProps:     map[string]any{"mods": map[string]any{"type": "array", "items": map[string]any{"type": "object"}}},
			ResponseRequired:  []string{"mods"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:            "upload_mod",
			Links:           controlToControllerOnly,
			Permission:      string(permission.ModWrite),
			RequestProps:    map[string]any{"name": map[string]any{"type": "string"}},
			RequestRequired: []string{"name"},
		}),
		req(registry.RequestSpec{
			Name:            "delete_mod",
			Links:           controlToControllerOnly,
			Permission:      string(permission.ModDelete),
			RequestProps:    map[string]any{"name": map[string]any{"type": "string"}},
			RequestRequired: []string{"name"},
		}),
		req(registry.RequestSpec{
			Name:       "subscribe_mod_pack_updates",
			Links:      controlToControllerOnly,
			Permission: string(permission.ModPackRead),
		}),
		req(registry.RequestSpec{
			Name:       "subscribe_mod_updates",
			Links:      controlToControllerOnly,
			Permission: string(permission.ModRead),
		}),
	}
}

func usersAndRoles() []*registry.Descriptor {
	return []*registry.Descriptor{
		req(registry.RequestSpec{
			Name:            "create_user",
			Links:           controlToControllerOnly,
			Permission:      string(permission.UserCreate),
			RequestProps:    map[string]any{"name": map[string]any{"type": "string"}},
			RequestRequired: []string{"name"},
		}),
		req(registry.RequestSpec{
			Name:              "get_user",
			Links:             controlToControllerOnly,
			Permission:        string(permission.UserRead),
			RequestProps:      map[string]any{"name": map[string]any{"type": "string"}},
			RequestRequired:   []string{"name"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:            "update_user",
			Links:           controlToControllerOnly,
			Permission:      string(permission.UserUpdate),
			RequestProps:    map[string]any{"name": map[string]any{"type": "string"}},
			RequestRequired: []string{"name"},
		}),
		req(registry.RequestSpec{
			Name:            "delete_user",
			Links:           controlToControllerOnly,
			Permission:      string(permission.UserDelete),
			RequestProps:    map[string]any{"name": map[string]any{"type": "string"}},
			RequestRequired: []string{"name"},
		}),
		req(registry.RequestSpec{
			Name:            "set_user_admin",
			Links:           controlToControllerOnly,
			Permission:      string(permission.UserSetAdmin),
			RequestProps:    map[string]any{"name": map[string]any{"type": "string"}, "admin": map[string]any{"type": "boolean"}},
			RequestRequired: []string{"name", "admin"},
		}),
		req(registry.RequestSpec{
			Name:            "set_user_banned",
			Links:           controlToControllerOnly,
			Permission:      string(permission.UserSetBanned),
			RequestProps:    map[string]any{"name": map[string]any{"type": "string"}, "banned": map[string]any{"type": "boolean"}, "reason": map[string]any{"type": "string"}},
			RequestRequired: []string{"name", "banned"},
		}),
		req(registry.RequestSpec{
			Name:            "set_user_whitelisted",
			Links:           controlToControllerOnly,
			Permission:      string(permission.UserSetWhitelisted),
			RequestProps:    map[string]any{"name": map[string]any{"type": "string"}, "whitelisted": map[string]any{"type": "boolean"}},
			RequestRequired: []string{"name", "whitelisted"},
		}),
		req(registry.RequestSpec{
			Name:            "revoke_user_token",
			Links:           controlToControllerOnly,
			Permission:      string(permission.UserRevokeToken),
			RequestProps:    map[string]any{"name": map[string]any{"type": "string"}},
			RequestRequired: []string{"name"},
		}),
		req(registry.RequestSpec{
			Name:            "create_role",
			Links:           controlToControllerOnly,
			Permission:      string(permission.RoleCreate),
			RequestProps:    map[string]any{"name": map[string]any{"type": "string"}},
			RequestRequired: []string{"name"},
		}),
		req(registry.RequestSpec{
			Name:              "get_role",
			Links:             controlToControllerOnly,
			Permission:        string(permission.RoleRead),
			RequestProps:      map[string]any{"name": map[string]any{"type": "string"}},
			RequestRequired:   []string{"name"},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:            "update_role",
			Links:           controlToControllerOnly,
			Permission:      string(permission.RoleUpdate),
			RequestProps:    map[string]any{"name": map[string]any{"type": "string"}},
			RequestRequired: []string{"name"},
		}),
		req(registry.RequestSpec{
			Name:            "delete_role",
			Links:           controlToControllerOnly,
			Permission:      string(permission.RoleDelete),
			RequestProps:    map[string]any{"name": map[string]any{"type": "string"}},
			RequestRequired: []string{"name"},
		}),
		req(registry.RequestSpec{
			Name:            "grant_default_role",
			Links:           controlToControllerOnly,
			Permission:      string(permission.RoleGrantDefault),
			RequestProps:    map[string]any{"name": map[string]any{"type": "string"}},
			RequestRequired: []string{"name"},
		}),
		req(registry.RequestSpec{
			Name:       "subscribe_user_updates",
			Links:      controlToControllerOnly,
			Permission: string(permission.UserRead),
		}),
	}
}

func logs() []*registry.Descriptor {
	return []*registry.Descriptor{
		req(registry.RequestSpec{
			Name:       "subscribe_logs",
			Links:      controlToControllerOnly,
			Permission: string(permission.LogSubscribe),
		}),
		req(registry.RequestSpec{
			Name:              "query_logs",
			Links:             controlToControllerOnly,
			Permission:        string(permission.LogQuery),
			RequestProps:      map[string]any{"query": map[string]any{"type": "string"}},
			RequestRequired:   []string{"query"},
			ResponseProps:     map[string]any{"lines": map[string]any{"type": "array", "items": map[string]any{"type": "string"}}},
			ResponseRequired:  []string{"lines"},
			AdditionalPropsOK: true,
		}),
	}
}

func internalOps() []*registry.Descriptor {
	return []*registry.Descriptor{
		req(registry.RequestSpec{
			Name:              "update_instances",
			Links:             []wire.LinkSpec{wire.LinkHostController},
			AdditionalPropsOK: true,
		}),
		req(registry.RequestSpec{
			Name:            "assign_instance",
			Links:           []wire.LinkSpec{wire.LinkControllerHost},
			RequestProps:    map[string]any{"instance_id": map[string]any{"type": "integer"}},
			RequestRequired: []string{"instance_id"},
		}),
		req(registry.RequestSpec{
			Name:            "unassign_instance",
			Links:           []wire.LinkSpec{wire.LinkControllerHost},
			RequestProps:    map[string]any{"instance_id": map[string]any{"type": "integer"}},
			RequestRequired: []string{"instance_id"},
		}),
		req(registry.RequestSpec{
			Name:              "get_metrics",
			Links:             controlToControllerOnly,
			Permission:        string(permission.MetricsGet),
			ResponseProps:     map[string]any{"metrics": map[string]any{"type": "object"}},
			ResponseRequired:  []string{"metrics"},
			AdditionalPropsOK: true,
		}),
	}
}

func events() []*registry.Descriptor {
	return []*registry.Descriptor{
		evt(registry.EventSpec{
			Name:              "debug_ws_message",
			Links:             []wire.LinkSpec{wire.LinkControllerHost},
			AdditionalPropsOK: true,
		}),
		evt(registry.EventSpec{
			Name:              "account_update",
			Links:             controllerPushOnly,
			AdditionalPropsOK: true,
		}),
		evt(registry.EventSpec{
			Name:              "log_message",
			Links:             controllerPushOnly,
			AdditionalPropsOK: true,
		}),
		evt(registry.EventSpec{
			Name:              "host_update",
			Links:             hostToControlChain,
			AdditionalPropsOK: true,
		}),
		evt(registry.EventSpec{
			Name:              "instance_initialized",
			Links:             instanceToControlChain,
			AdditionalPropsOK: true,
		}),
		evt(registry.EventSpec{
			Name:              "instance_status_changed",
			Links:             instanceToControlChain,
			AdditionalPropsOK: true,
		}),
		evt(registry.EventSpec{
			Name:              "instance_update",
			Links:             instanceToControlChain,
			AdditionalPropsOK: true,
		}),
		evt(registry.EventSpec{
			Name:              "save_list_update",
			Links:             instanceToControlChain,
			ForwardTo:         registry.ForwardController,
			AdditionalPropsOK: true,
		}),
		evt(registry.EventSpec{
			Name:              "mod_pack_update",
			Links:             controllerPushOnly,
			AdditionalPropsOK: true,
		}),
		evt(registry.EventSpec{
			Name:              "mod_update",
			Links:             controllerPushOnly,
			AdditionalPropsOK: true,
		}),
		evt(registry.EventSpec{
			Name:              "user_update",
			Links:             controllerPushOnly,
			AdditionalPropsOK: true,
		}),
		evt(registry.EventSpec{
			Name:              "controller_connection_event",
			Links:             []wire.LinkSpec{wire.LinkControllerHost},
			AdditionalPropsOK: true,
		}),
		evt(registry.EventSpec{
			Name:              "sync_user_lists",
			Links:             []wire.LinkSpec{wire.LinkControllerHost},
			AdditionalPropsOK: true,
		}),
		evt(registry.EventSpec{
			Name:              "banlist_update",
			Links:             listUpdateBroadcastChain,
			BroadcastTo:       registry.BroadcastInstance,
			AdditionalPropsOK: true,
		}),
		evt(registry.EventSpec{
			Name:              "adminlist_update",
			Links:             listUpdateBroadcastChain,
			BroadcastTo:       registry.BroadcastInstance,
			AdditionalPropsOK: true,
		}),
		evt(registry.EventSpec{
			Name:              "whitelist_update",
			Links:             listUpdateBroadcastChain,
			BroadcastTo:       registry.BroadcastInstance,
			AdditionalPropsOK: true,
		}),
		evt(registry.EventSpec{
			Name:              "player_event",
			Links:             []wire.LinkSpec{wire.LinkInstanceHost, wire.LinkHostController},
			ForwardTo:         registry.ForwardController,
			AdditionalPropsOK: true,
		}),
	}
}
