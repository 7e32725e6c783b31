// Command instance is the leaf node of the fleet: it dials its host,
// answers the requests forwarded to it (start/stop/kill, scenario load,
// save-file management, RCON) and the list-update events relayed to it; it
// sends no events of its own.
// Wiring mirrors the teacher's main.go (construct dependencies, register
// handlers, run until signalled) adapted from a one-shot SQS consumer to a
// long-lived, reconnecting websocket client.
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fleetlink/core/attach"
	"github.com/fleetlink/core/catalog"
	"github.com/fleetlink/core/connector"
	"github.com/fleetlink/core/internal/config"
	"github.com/fleetlink/core/internal/logging"
	"github.com/fleetlink/core/link"
	"github.com/fleetlink/core/wire"
)

var reconnectBackoff = 2 * time.Second

func main() {
	v := viper.New()
	root := &cobra.Command{
		Use:   "instance",
		Short: "Run a fleetlink game-server instance node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v)
		},
	}
	root.Flags().Int64("instance-id", 0, "this instance's ID, reported to the host on connect")
	if err := config.BindFlags(root.Flags(), v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := v.BindPFlag("instance-id", root.Flags().Lookup("instance-id")); err != nil {
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
	instanceID := v.GetInt64("instance-id")
	log := logging.New("instance", cfg.LogLevel)

	if cfg.DialAddr == "" {
		return fmt.Errorf("instance: --dial-addr is required")
	}

	state := newInstanceState()
	table := buildHandlerTable(state)

	for ctx.Err() == nil {
		if err := connectOnce(ctx, cfg.DialAddr, instanceID, log, table); err != nil {
			log.Error().Err(err).Msg("connection to host ended, retrying")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectBackoff):
		}
	}
	return nil
}

func connectOnce(ctx context.Context, dialAddr string, instanceID int64, log zerolog.Logger, table *attach.HandlerTable) error {
	addr, err := withInstanceID(dialAddr, instanceID)
	if err != nil {
		return fmt.Errorf("instance: %w", err)
	}

	conn, err := connector.Dial(ctx, addr, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	l, err := link.New(wire.RoleInstance, wire.RoleHost, conn, log)
	if err != nil {
		return fmt.Errorf("instance: build link: %w", err)
	}
	if err := attach.Drive(l, catalog.Catalog, table); err != nil {
		return fmt.Errorf("instance: attach: %w", err)
	}

	log.Info().Str("addr", addr).Msg("connected to host")
	return conn.Start()
}

func withInstanceID(dialAddr string, instanceID int64) (string, error) {
	u, err := url.Parse(dialAddr)
	if err != nil {
		return "", fmt.Errorf("parse dial-addr: %w", err)
	}
	q := u.Query()
	q.Set("instance_id", fmt.Sprintf("%d", instanceID))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
