// Command controller is the hub of the fleet: it accepts connections from
// every host it manages and from every control (admin) client, forwards
// requests down to the instance that owns them, and relays control-facing
// notifications up to every connected admin. Wiring mirrors the teacher's
// main.go (construct dependencies, register handlers, run until signalled).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fleetlink/core/attach"
	"github.com/fleetlink/core/catalog"
	"github.com/fleetlink/core/connector"
	"github.com/fleetlink/core/internal/config"
	"github.com/fleetlink/core/internal/logging"
	"github.com/fleetlink/core/link"
	"github.com/fleetlink/core/node/dispatchloop"
	"github.com/fleetlink/core/permission"
	"github.com/fleetlink/core/wire"
)

func main() {
	v := viper.New()
	root := &cobra.Command{
		Use:   "controller",
		Short: "Run the fleetlink controller",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v)
		},
	}
	if err := config.BindFlags(root.Flags(), v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	root.Flags().String("control-listen-addr", "", "address to listen on for inbound control (admin) connections")
	if err := v.BindPFlag("control-listen-addr", root.Flags().Lookup("control-listen-addr")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, v *viper.Viper) error {
	cfg := config.Load(v)
	controlListenAddr := v.GetString("control-listen-addr")
	log := logging.New("controller", cfg.LogLevel)

	if cfg.ListenAddr == "" {
		return fmt.Errorf("controller: --listen-addr (for hosts) is required")
	}
	if controlListenAddr == "" {
		return fmt.Errorf("controller: --control-listen-addr is required")
	}

	state := newControllerState(log)
	table := buildHandlerTable(state)

	hostListener := connector.NewWSListener(cfg.ListenAddr, log)
	hostLoop := dispatchloop.New(hostListener,
		func(conn connector.Connector) (*link.Link, error) {
			return link.New(wire.RoleController, wire.RoleHost, conn, log)
		},
		func(lk *link.Link) func() {
			return onHostLink(state, lk, table, log)
		},
		log,
	)

	controlListener := connector.NewWSListener(controlListenAddr, log)
	controlLoop := dispatchloop.New(controlListener,
		func(conn connector.Connector) (*link.Link, error) {
			return link.New(wire.RoleController, wire.RoleControl, conn, log)
		},
		func(lk *link.Link) func() {
			return onControlLink(state, lk, table, log)
		},
		log,
	)

	go func() {
		if err := hostListener.Serve(ctx); err != nil {
			log.Error().Err(err).Msg("host listener stopped")
		}
	}()
	go func() {
		if err := controlListener.Serve(ctx); err != nil {
			log.Error().Err(err).Msg("control listener stopped")
		}
	}()

	go hostLoop.Run(ctx)
	controlLoop.Run(ctx)

	return nil
}

// onHostLink registers a newly attached host Link under its connector's own
// id (a host has no externally reported identifier the way an instance
// reports instance_id; the connection identity is the host identity), and
// overlays a per-link update_instances handler closing over that key so
// state.recordInstances attributes the routing update to the right host.
func onHostLink(state *controllerState, lk *link.Link, sharedTable *attach.HandlerTable, log zerolog.Logger) func() {
	ws, ok := lk.Conn().(*connector.WSConnector)
	key := fmt.Sprintf("%p", lk)
	if ok {
		key = ws.ID()
	}

	perHost := *sharedTable
	perHost.Requests = make(map[string]link.HandlerFunc, len(sharedTable.Requests)+1)
	for name, h := range sharedTable.Requests {
		perHost.Requests[name] = h
	}
	perHost.Requests["update_instances"] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
		var p struct {
			InstanceIDs []int64 `json:"instance_ids"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		state.recordInstances(key, lk, p.InstanceIDs)
		return json.RawMessage(`{}`), nil
	}

	lk.Downstream = state.hostLinks
	state.hostLinks.AddMember(key, lk)

	if err := attach.Drive(lk, catalog.Catalog, &perHost); err != nil {
		log.Error().Err(err).Msg("failed to attach host link")
		state.hostLinks.RemoveMember(key, lk)
		return nil
	}
	log.Info().Str("host", key).Msg("host connected")

	return func() {
		state.hostLinks.RemoveMember(key, lk)
		log.Info().Str("host", key).Msg("host disconnected")
	}
}

// onControlLink registers a newly attached control Link for push-event
// fan-out and attaches a permission Identity to it: every connected admin
// client is granted the full permission set for this stand-in (spec
// Non-goals exclude a real auth/handshake layer; per-identity permission
// scoping is left to a real deployment's reverse proxy or future work).
func onControlLink(state *controllerState, lk *link.Link, sharedTable *attach.HandlerTable, log zerolog.Logger) func() {
	ws, ok := lk.Conn().(*connector.WSConnector)
	key := fmt.Sprintf("%p", lk)
	name := key
	if ok {
		key = ws.ID()
		if n := ws.Meta()["identity"]; n != "" {
			name = n
		} else {
			name = key
		}
	}

	lk.Identity = &permission.Identity{Name: name, Permissions: allPermissions()}
	// Every control-facing link shares the same host-routing table: a
	// control-originated request that forwards to an instance (e.g.
	// start_instance) resolves the owning host through it exactly as a
	// host's own uplink resolves its instances.
	lk.Downstream = state.hostLinks

	// Overlay every subscribe_* request with a closure bound to this
	// specific link, so its subscription is recorded under the right key
	// instead of the shared table's inert subscribeAck placeholder.
	perControl := *sharedTable
	perControl.Requests = make(map[string]link.HandlerFunc, len(sharedTable.Requests))
	for reqName, h := range sharedTable.Requests {
		perControl.Requests[reqName] = h
	}
	for subscribeName, evts := range subscriptionEvents {
		events := evts
		perControl.Requests[subscribeName] = func(ctx context.Context, data json.RawMessage) (json.RawMessage, error) {
			state.subscribe(key, lk, events...)
			return json.RawMessage(`{}`), nil
		}
	}

	state.controlLinks.AddMember(key, lk)

	if err := attach.Drive(lk, catalog.Catalog, &perControl); err != nil {
		log.Error().Err(err).Msg("failed to attach control link")
		state.controlLinks.RemoveMember(key, lk)
		return nil
	}
	log.Info().Str("identity", name).Msg("control client connected")

	return func() {
		state.controlLinks.RemoveMember(key, lk)
		state.unsubscribeAll(key)
		log.Info().Str("identity", name).Msg("control client disconnected")
	}
}

func allPermissions() permission.Set {
	return permission.NewSet(
		permission.HostList, permission.HostSubscribe, permission.HostGenerateToken, permission.HostCreateConfig,
		permission.InstanceGet, permission.InstanceList, permission.InstanceSubscribe, permission.InstanceCreate,
		permission.InstanceGetConfig, permission.InstanceSetConfig, permission.InstanceAssign,
		permission.InstanceStart, permission.InstanceStop, permission.InstanceKill, permission.InstanceDelete,
		permission.InstanceLoadScenario, permission.InstanceExportData, permission.InstanceExtractPlay,
		permission.InstanceSendRCON,
		permission.SaveList, permission.SaveCreate, permission.SaveRename, permission.SaveCopy, permission.SaveDelete,
		permission.SaveDownload, permission.SaveTransfer,
		permission.ModPackRead, permission.ModPackWrite, permission.ModPackDelete, permission.ModPackSearch,
		permission.ModPackDownload,
		permission.ModRead, permission.ModWrite, permission.ModDelete,
		permission.UserCreate, permission.UserRead, permission.UserUpdate, permission.UserDelete,
		permission.UserSetAdmin, permission.UserSetBanned, permission.UserSetWhitelisted, permission.UserRevokeToken,
		permission.RoleCreate, permission.RoleRead, permission.RoleUpdate, permission.RoleDelete,
		permission.RoleGrantDefault,
		permission.LogSubscribe, permission.LogQuery,
		permission.ControllerConfigGet, permission.ControllerConfigSet,
		permission.MetricsGet,
	)
}
