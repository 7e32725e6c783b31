package main

import (
	"context"
	"encoding/json"

	"github.com/fleetlink/core/attach"
)

// buildHandlerTable wires every event this client is the terminal target
// for: it has nothing to forward further downstream, so each handler just
// records the latest payload for whatever reads controlState back out.
func buildHandlerTable(state *controlState) *attach.HandlerTable {
	table := attach.NewHandlerTable()

	table.Requests["ping"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]any{})
	}
	table.Requests["prepare_disconnect"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]any{})
	}

	record := func(name string) func(ctx context.Context, data json.RawMessage) error {
		return func(ctx context.Context, data json.RawMessage) error {
			state.record(name, data)
			return nil
		}
	}

	for _, name := range []string{
		"account_update",
		"log_message",
		"mod_pack_update",
		"mod_update",
		"user_update",
		"host_update",
		"instance_initialized",
		"instance_status_changed",
		"instance_update",
		"save_list_update",
	} {
		table.Events[name] = record(name)
	}

	return table
}
