package main

import (
	"context"
	"encoding/json"

	"github.com/fleetlink/core/attach"
	"github.com/fleetlink/core/link"
)

// buildHandlerTable wires every request/event this host's uplink Link (to
// its controller) is the true target for: connection control, the
// assign/unassign pair (Links=[controller-host], no forwardTo — this host
// is the final destination, not a relay), and the controller-originated
// notifications host forwards on to its instances via the broadcast
// wrapping already applied in event.Attach.
func buildHandlerTable(state *hostState) *attach.HandlerTable {
	table := attach.NewHandlerTable()

	table.Requests["ping"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]any{})
	}
	table.Requests["prepare_disconnect"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]any{})
	}
	table.Requests["prepare_controller_disconnect"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		state.log.Info().Msg("controller is preparing to disconnect")
		return json.Marshal(map[string]any{})
	}
	table.Requests["debug_dump_ws"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]any{"dump": ""})
	}

	table.Requests["assign_instance"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			InstanceID int64 `json:"instance_id"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		state.assigned[p.InstanceID] = true
		return json.Marshal(map[string]any{})
	}
	table.Requests["unassign_instance"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			InstanceID int64 `json:"instance_id"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if !state.assigned[p.InstanceID] {
			return nil, link.NewRequestError("instance %d is not assigned to this host", p.InstanceID)
		}
		delete(state.assigned, p.InstanceID)
		return json.Marshal(map[string]any{})
	}

	table.Events["debug_ws_message"] = func(ctx context.Context, data json.RawMessage) error {
		state.log.Debug().RawJSON("data", data).Msg("debug_ws_message from controller")
		return nil
	}
	table.Events["controller_connection_event"] = func(ctx context.Context, data json.RawMessage) error {
		state.log.Info().RawJSON("data", data).Msg("controller connection event")
		return nil
	}
	table.Events["sync_user_lists"] = func(ctx context.Context, data json.RawMessage) error {
		state.log.Info().Msg("synced ban/admin/whitelist snapshot from controller")
		return nil
	}

	// banlist_update/adminlist_update/whitelist_update are already fanned
	// out to every connected instance by event.Attach's broadcast wrapping
	// (controller-host is a broadcast-capable edge) before these handlers run;
	// there's nothing left to do here but log.
	table.Events["banlist_update"] = func(ctx context.Context, data json.RawMessage) error {
		state.log.Info().Msg("banlist updated, relayed to instances")
		return nil
	}
	table.Events["adminlist_update"] = func(ctx context.Context, data json.RawMessage) error {
		state.log.Info().Msg("adminlist updated, relayed to instances")
		return nil
	}
	table.Events["whitelist_update"] = func(ctx context.Context, data json.RawMessage) error {
		state.log.Info().Msg("whitelist updated, relayed to instances")
		return nil
	}

	return table
}

// buildInstanceLinkHandlerTable wires the requests and events a host's
// per-instance Link is itself the target for: ping/prepare_disconnect, and
// the three instance lifecycle events, which carry no ForwardTo and are
// relayed to the controller over the uplink when one is connected.
// save_list_update/player_event already forward upstream via the catalog's
// ForwardController convention with no explicit handler needed;
// banlist_update/adminlist_update/whitelist_update are included defensively
// so this Link's attach never fails if a future catalog change routes one of
// them across this hop directly.
func buildInstanceLinkHandlerTable(state *hostState) *attach.HandlerTable {
	table := attach.NewHandlerTable()

	table.Requests["ping"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]any{})
	}
	table.Requests["prepare_disconnect"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]any{})
	}
	for _, name := range []string{"instance_initialized", "instance_status_changed", "instance_update"} {
		name := name
		table.Events[name] = func(ctx context.Context, data json.RawMessage) error {
			if up, ok := state.upstream.Upstream(); ok {
				return up.Send(name, data)
			}
			return nil
		}
	}

	table.Events["banlist_update"] = func(ctx context.Context, data json.RawMessage) error {
		state.log.Debug().Msg("banlist_update seen on instance link")
		return nil
	}
	table.Events["adminlist_update"] = func(ctx context.Context, data json.RawMessage) error {
		state.log.Debug().Msg("adminlist_update seen on instance link")
		return nil
	}
	table.Events["whitelist_update"] = func(ctx context.Context, data json.RawMessage) error {
		state.log.Debug().Msg("whitelist_update seen on instance link")
		return nil
	}

	return table
}
