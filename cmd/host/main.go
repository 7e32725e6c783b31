// Command host is the middle tier of the fleet: it dials its controller,
// accepts connections from the instances it supervises, and relays
// requests and events between the two. Wiring mirrors the teacher's
// main.go (construct dependencies, register handlers, run until signalled).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fleetlink/core/attach"
	"github.com/fleetlink/core/catalog"
	"github.com/fleetlink/core/connector"
	"github.com/fleetlink/core/event"
	"github.com/fleetlink/core/internal/config"
	"github.com/fleetlink/core/internal/logging"
	"github.com/fleetlink/core/link"
	"github.com/fleetlink/core/node/dispatchloop"
	"github.com/fleetlink/core/request"
	"github.com/fleetlink/core/wire"
)

var reconnectBackoff = 2 * time.Second

func main() {
	v := viper.New()
	root := &cobra.Command{
		Use:   "host",
		Short: "Run a fleetlink host node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v)
		},
	}
	if err := config.BindFlags(root.Flags(), v); err != nil {
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
	log := logging.New("host", cfg.LogLevel)

	if cfg.ListenAddr == "" {
		return fmt.Errorf("host: --listen-addr is required")
	}
	if cfg.DialAddr == "" {
		return fmt.Errorf("host: --dial-addr is required")
	}

	state := newHostState(log)
	table := buildHandlerTable(state)

	listener := connector.NewWSListener(cfg.ListenAddr, log)
	loop := dispatchloop.New(listener,
		func(conn connector.Connector) (*link.Link, error) {
			return link.New(wire.RoleHost, wire.RoleInstance, conn, log)
		},
		func(lk *link.Link) func() {
			return onInstanceLink(state, lk, log)
		},
		log,
	)

	go func() {
		if err := listener.Serve(ctx); err != nil {
			log.Error().Err(err).Msg("instance listener stopped")
		}
	}()

	go loop.Run(ctx)

	for ctx.Err() == nil {
		if err := connectUpstream(ctx, cfg.DialAddr, state, table, log); err != nil {
			log.Error().Err(err).Msg("connection to controller ended, retrying")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectBackoff):
		}
	}
	return nil
}

// onInstanceLink is dispatchloop's OnLink callback: it registers the
// freshly attached instance Link under the instance ID the instance
// reported at connect time (via the websocket query string — spec
// Non-goals exclude a real handshake), then drives the attach driver with
// a small table covering the requests and events this link is itself a
// target for — of instance-originated requests, only ping and
// prepare_disconnect are answered here.
func onInstanceLink(state *hostState, lk *link.Link, log zerolog.Logger) func() {
	ws, ok := lk.Conn().(*connector.WSConnector)
	key := fmt.Sprintf("%p", lk)
	var instanceID int64
	if ok {
		key = ws.ID()
		if raw := ws.Meta()["instance_id"]; raw != "" {
			if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
				instanceID = id
			}
		}
	}

	lk.Upstream = state.upstream

	if err := attach.Drive(lk, catalog.Catalog, buildInstanceLinkHandlerTable(state)); err != nil {
		log.Error().Err(err).Msg("failed to attach instance link")
		return nil
	}

	state.onInstanceConnected(key, instanceID, lk)
	log.Info().Int64("instance_id", instanceID).Msg("instance connected")

	return func() {
		state.onInstanceDisconnected(key, instanceID, lk)
		log.Info().Int64("instance_id", instanceID).Msg("instance disconnected")
	}
}

func connectUpstream(ctx context.Context, dialAddr string, state *hostState, table *attach.HandlerTable, log zerolog.Logger) error {
	conn, err := connector.Dial(ctx, dialAddr, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	l, err := link.New(wire.RoleHost, wire.RoleController, conn, log)
	if err != nil {
		return fmt.Errorf("host: build uplink: %w", err)
	}
	l.Downstream = state.instances
	if err := attach.Drive(l, catalog.Catalog, table); err != nil {
		return fmt.Errorf("host: attach uplink: %w", err)
	}
	state.upstream.Set(l)
	defer state.upstream.Clear()

	log.Info().Str("addr", dialAddr).Msg("connected to controller")

	announceUpdate(l, log)

	return conn.Start()
}

// announceUpdate reports this host's current instance inventory to the
// controller right after connecting, so the controller's routing table
// reflects reality even across a reconnect (spec §C Reconnect semantics:
// no implicit state carries over a reconnect, so the host re-announces).
func announceUpdate(l *link.Link, log zerolog.Logger) {
	d, ok := catalog.Catalog.Lookup("update_instances")
	if !ok {
		return
	}
	payload, err := json.Marshal(map[string]any{"instance_ids": []int64{}})
	if err != nil {
		return
	}
	if _, err := request.Send(context.Background(), l, d, payload); err != nil {
		log.Warn().Err(err).Msg("failed to announce instance inventory")
	}

	hostUpdateDesc, ok := catalog.Catalog.Lookup("host_update")
	if !ok {
		return
	}
	if err := event.Send(l, hostUpdateDesc, json.RawMessage(`{}`)); err != nil {
		log.Warn().Err(err).Msg("failed to announce host_update")
	}
}
