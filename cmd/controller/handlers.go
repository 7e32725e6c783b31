package main

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/google/uuid"

	"github.com/fleetlink/core/attach"
	"github.com/fleetlink/core/link"
)

// newHostToken mints the bearer token a host presents on its next connect
// (generate_host_token); a random UUID is sufficient
// entropy for a Non-goals-scoped stand-in for real credential issuance.
func newHostToken() string {
	return uuid.NewString()
}

type reqFunc = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error)

// namePayload is the shape of every request that targets one record by its
// "name" field (create_user, delete_role, and the like).
type namePayload struct {
	Name string `json:"name"`
}

func ok() (json.RawMessage, error) { return json.Marshal(map[string]any{}) }

// crud wires the create/update/delete operations of a name-keyed entityStore
// onto a HandlerTable, under the given catalog request names. get/list are
// left to the caller since their response shapes vary per entity kind.
func crud(table *attach.HandlerTable, store *entityStore, createName, updateName, deleteName string) {
	table.Requests[createName] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p namePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if err := store.create(p.Name, nil); err != nil {
			return nil, link.NewRequestError("%s", err.Error())
		}
		return ok()
	}
	if updateName != "" {
		table.Requests[updateName] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
			var p namePayload
			if err := json.Unmarshal(data, &p); err != nil {
				return nil, err
			}
			if err := store.update(p.Name, nil); err != nil {
				return nil, link.NewRequestError("%s", err.Error())
			}
			return ok()
		}
	}
	table.Requests[deleteName] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p namePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if err := store.delete(p.Name); err != nil {
			return nil, link.NewRequestError("%s", err.Error())
		}
		return ok()
	}
}

func getByName(store *entityStore, notFoundFmt string) reqFunc {
	return func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p namePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		rec, ok := store.get(p.Name)
		if !ok {
			return nil, link.NewRequestError(notFoundFmt, p.Name)
		}
		return json.Marshal(rec)
	}
}

func listAs(store *entityStore, field string) reqFunc {
	return func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]any{field: store.list()})
	}
}

// subscriptionEvents maps each subscribe_* request name to the catalog
// event names it grants delivery of. onControlLink overlays a per-link
// closure over each of these keys that records the calling link in
// controllerState's subscriber set; the placeholder registered here under
// subscribeAck only runs if that overlay is ever skipped.
var subscriptionEvents = map[string][]string{
	"subscribe_host_updates":      {"host_update"},
	"subscribe_instance_updates":  {"instance_initialized", "instance_status_changed", "instance_update"},
	"subscribe_save_list_updates": {"save_list_update"},
	"subscribe_mod_pack_updates":  {"mod_pack_update"},
	"subscribe_mod_updates":       {"mod_update"},
	"subscribe_user_updates":      {"user_update"},
	"subscribe_logs":              {"log_message"},
}

// subscribeAck is the fallback handler registered for every subscribe_*
// request in the shared table; onControlLink always overlays the real
// subscribing closure before attaching a control link, so this only runs if
// that overlay is missing a name present in subscriptionEvents.
func subscribeAck(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
	return ok()
}

func buildHandlerTable(state *controllerState) *attach.HandlerTable {
	table := attach.NewHandlerTable()

	table.Requests["ping"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) { return ok() }
	table.Requests["prepare_disconnect"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		return ok()
	}

	registerControllerConfig(table, state)
	registerHostManagement(table, state)
	registerInstanceManagement(table, state)
	registerSaveFileSubscriptions(table, state)
	registerModPacksAndMods(table, state)
	registerUsersAndRoles(table, state)
	registerLogs(table, state)
	registerInternalOps(table, state)
	registerPropagatedEvents(table, state)

	return table
}

// registerPropagatedEvents wires the events a host or instance raises that
// end their upward path at the controller's per-host link (save_list_update
// and player_event arrive there through their ForwardController convention,
// the rest carry no ForwardTo). host_update, the three instance lifecycle
// events and save_list_update all continue on to every control client
// subscribed to them since their catalog chains reach control; player_event's
// chain stops at the controller, so it's only logged here.
func registerPropagatedEvents(table *attach.HandlerTable, state *controllerState) {
	relay := func(name string) func(ctx context.Context, data json.RawMessage) error {
		return func(ctx context.Context, data json.RawMessage) error {
			state.pushToSubscribers(name, data)
			return nil
		}
	}

	for _, name := range []string{
		"host_update",
		"instance_initialized",
		"instance_status_changed",
		"instance_update",
		"save_list_update",
	} {
		table.Events[name] = relay(name)
	}

	table.Events["player_event"] = func(ctx context.Context, data json.RawMessage) error {
		state.log.Info().RawJSON("event", data).Msg("player event")
		return nil
	}

	// banlist_update/adminlist_update/whitelist_update arrive here already
	// re-broadcast to every connected host, the sending one included, by
	// event.Attach's broadcast wrapping (host-controller is a
	// broadcast-capable edge); their chain doesn't
	// reach control, so there's nothing left to do but log.
	logList := func(name string) func(ctx context.Context, data json.RawMessage) error {
		return func(ctx context.Context, data json.RawMessage) error {
			state.log.Info().Str("list", name).Msg("list update relayed to hosts")
			return nil
		}
	}
	for _, name := range []string{"banlist_update", "adminlist_update", "whitelist_update"} {
		table.Events[name] = logList(name)
	}
}

func registerControllerConfig(table *attach.HandlerTable, state *controllerState) {
	config := map[string]any{}
	table.Requests["get_controller_config"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			Field string `json:"field"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{"value": config[p.Field]})
	}
	table.Requests["set_controller_config"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			Field string `json:"field"`
			Value any    `json:"value"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		config[p.Field] = p.Value
		return ok()
	}
}

func registerHostManagement(table *attach.HandlerTable, state *controllerState) {
	table.Requests["list_hosts"] = listAs(state.hosts, "hosts")
	table.Requests["subscribe_host_updates"] = subscribeAck
	table.Requests["generate_host_token"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			HostName string `json:"host_name"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{"token": newHostToken()})
	}
	table.Requests["create_host_config"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p namePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if err := state.hosts.create(p.Name, nil); err != nil {
			return nil, link.NewRequestError("%s", err.Error())
		}
		return ok()
	}
}

func registerInstanceManagement(table *attach.HandlerTable, state *controllerState) {
	table.Requests["get_instance"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			InstanceID int64 `json:"instance_id"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		rec, ok := state.instances.get(instanceKey(p.InstanceID))
		if !ok {
			return nil, link.NewRequestError("instance %d not found", p.InstanceID)
		}
		return json.Marshal(rec)
	}
	table.Requests["list_instances"] = listAs(state.instances, "instances")
	table.Requests["subscribe_instance_updates"] = subscribeAck
	table.Requests["create_instance"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p namePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if err := state.instances.create(p.Name, nil); err != nil {
			return nil, link.NewRequestError("%s", err.Error())
		}
		return ok()
	}
	table.Requests["get_instance_config"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			InstanceID int64  `json:"instance_id"`
			Field      string `json:"field"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		rec, ok := state.instances.get(instanceKey(p.InstanceID))
		if !ok {
			return nil, link.NewRequestError("instance %d not found", p.InstanceID)
		}
		return json.Marshal(map[string]any{"value": rec[p.Field]})
	}
	table.Requests["set_instance_config"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			InstanceID int64  `json:"instance_id"`
			Field      string `json:"field"`
			Value      any    `json:"value"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if err := state.instances.update(instanceKey(p.InstanceID), map[string]any{p.Field: p.Value}); err != nil {
			return nil, link.NewRequestError("%s", err.Error())
		}
		return ok()
	}
	table.Requests["instance_assign"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			InstanceID int64 `json:"instance_id"`
			HostID     int64 `json:"host_id"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if err := state.instances.update(instanceKey(p.InstanceID), map[string]any{"host_id": p.HostID}); err != nil {
			return nil, link.NewRequestError("%s", err.Error())
		}
		return ok()
	}
	table.Requests["delete_instance"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			InstanceID int64 `json:"instance_id"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if err := state.instances.delete(instanceKey(p.InstanceID)); err != nil {
			return nil, link.NewRequestError("%s", err.Error())
		}
		return ok()
	}
	// start_instance, stop_instance, kill_instance, load_scenario,
	// export_data, extract_players, send_rcon all forward to the instance
	// (registry.ForwardInstance) — no explicit handler needed here; the
	// convention forwarder installed by request.Attach relays them through
	// state.hostLinks (this controller's Downstream) to the owning host,
	// which relays them again to the instance itself.
}

func instanceKey(id int64) string {
	return "instance-" + strconv.FormatInt(id, 10)
}

func registerSaveFileSubscriptions(table *attach.HandlerTable, state *controllerState) {
	table.Requests["subscribe_save_list_updates"] = subscribeAck
	// list/create/rename/copy/delete/download/transfer/pull/push_save all
	// forward to the instance; no explicit handler needed here either.
}

func registerModPacksAndMods(table *attach.HandlerTable, state *controllerState) {
	table.Requests["list_mod_packs"] = listAs(state.modPacks, "mod_packs")
	crud(table, state.modPacks, "create_mod_pack", "update_mod_pack", "delete_mod_pack")
	table.Requests["search_mod_packs"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]any{"results": []map[string]any{}})
	}
	table.Requests["download_mod_pack"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p namePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if _, ok := state.modPacks.get(p.Name); !ok {
			return nil, link.NewRequestError("mod pack %q not found", p.Name)
		}
		return json.Marshal(map[string]any{"url": "file://mod_packs/" + p.Name})
	}
	table.Requests["list_mods"] = listAs(state.mods, "mods")
	table.Requests["upload_mod"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p namePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if err := state.mods.create(p.Name, nil); err != nil {
			return nil, link.NewRequestError("%s", err.Error())
		}
		return ok()
	}
	table.Requests["delete_mod"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p namePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if err := state.mods.delete(p.Name); err != nil {
			return nil, link.NewRequestError("%s", err.Error())
		}
		return ok()
	}
	table.Requests["subscribe_mod_pack_updates"] = subscribeAck
	table.Requests["subscribe_mod_updates"] = subscribeAck
}

func registerUsersAndRoles(table *attach.HandlerTable, state *controllerState) {
	crud(table, state.users, "create_user", "update_user", "delete_user")
	table.Requests["get_user"] = getByName(state.users, "user %q not found")
	table.Requests["set_user_admin"] = userFlagHandler(state, "admin")
	table.Requests["set_user_banned"] = userFlagHandler(state, "banned")
	table.Requests["set_user_whitelisted"] = userFlagHandler(state, "whitelisted")
	table.Requests["revoke_user_token"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p namePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if err := state.users.update(p.Name, map[string]any{"token_revoked": true}); err != nil {
			return nil, link.NewRequestError("%s", err.Error())
		}
		return ok()
	}

	crud(table, state.roles, "create_role", "update_role", "delete_role")
	table.Requests["get_role"] = getByName(state.roles, "role %q not found")
	table.Requests["grant_default_role"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p namePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if _, ok := state.roles.get(p.Name); !ok {
			return nil, link.NewRequestError("role %q not found", p.Name)
		}
		return ok()
	}
	table.Requests["subscribe_user_updates"] = subscribeAck
}

func userFlagHandler(state *controllerState, field string) reqFunc {
	return func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p map[string]any
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		name, _ := p["name"].(string)
		if err := state.users.update(name, map[string]any{field: p[field]}); err != nil {
			return nil, link.NewRequestError("%s", err.Error())
		}
		return ok()
	}
}

func registerLogs(table *attach.HandlerTable, state *controllerState) {
	table.Requests["subscribe_logs"] = subscribeAck
	table.Requests["query_logs"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]any{"lines": []string{}})
	}
}

func registerInternalOps(table *attach.HandlerTable, state *controllerState) {
	table.Requests["get_metrics"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]any{"metrics": map[string]any{
			"hosts":     len(state.hostLinks.All()),
			"instances": len(state.instances.list()),
		}})
	}
	// update_instances is registered per-host-link in onHostLink (main.go
	// closes over the specific host key it arrived on), not here.
}
