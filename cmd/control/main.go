// Command control is a thin admin client: it dials the controller, answers
// only ping and prepare_disconnect (it originates every other request and
// otherwise only receives push notifications), and keeps a reconnecting
// Link open for whatever issues
// control_to_controller requests against it (an interactive shell, a web
// dashboard backend — out of scope here per the spec's Non-goals around a
// terminal UI). Wiring mirrors the teacher's main.go.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

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
		Use:   "control",
		Short: "Run a fleetlink control (admin) client",
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
	log := logging.New("control", cfg.LogLevel)

	if cfg.DialAddr == "" {
		return fmt.Errorf("control: --dial-addr is required")
	}

	state := newControlState()
	table := buildHandlerTable(state)

	for ctx.Err() == nil {
		conn, err := connector.Dial(ctx, cfg.DialAddr, log)
		if err != nil {
			log.Error().Err(err).Msg("failed to dial controller, retrying")
		} else {
			l, err := link.New(wire.RoleControl, wire.RoleController, conn, log)
			if err != nil {
				return fmt.Errorf("control: build link: %w", err)
			}
			if err := attach.Drive(l, catalog.Catalog, table); err != nil {
				return fmt.Errorf("control: attach: %w", err)
			}
			state.setLink(l)
			log.Info().Str("addr", cfg.DialAddr).Msg("connected to controller")

			if err := conn.Start(); err != nil {
				log.Warn().Err(err).Msg("connection to controller ended")
			}
			state.setLink(nil)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectBackoff):
		}
	}
	return nil
}
