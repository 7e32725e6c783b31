// Package config loads node configuration the teacher's way: cobra flags
// bound into a viper instance, so the same setting can come from a flag or
// an environment variable, with flags taking precedence. No config file is
// read.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the set of settings common to every node role. A role-specific
// cmd may read additional keys directly off the same viper.Viper.
type Config struct {
	// ListenAddr is where this node accepts inbound connections from its
	// downstream peer (host accepting instances, controller accepting
	// hosts, control accepting nothing). Empty if this node only dials out.
	ListenAddr string
	// DialAddr is the upstream peer this node connects to (instance
	// dialing its host, host dialing its controller, control dialing its
	// controller). Empty if this node only listens.
	DialAddr string
	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string
	// Identity is the --identity setting. None of the cmd/* entrypoints
	// reads it: the controller names a control client's permission
	// identity from the "identity" query parameter of its connection.
	Identity string
}

// BindFlags registers the flags shared by every node entrypoint on flags
// and binds each into v, env-overridable via the FLEETLINK_ prefix (e.g.
// FLEETLINK_LISTEN_ADDR).
func BindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	flags.String("listen-addr", "", "address to listen on for inbound connections")
	flags.String("dial-addr", "", "address of the upstream peer to dial")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("identity", "", "name this node identifies itself as")

	v.SetEnvPrefix("fleetlink")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, name := range []string{"listen-addr", "dial-addr", "log-level", "identity"} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			return fmt.Errorf("config: bind %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the common settings off v after flags/env have been parsed.
func Load(v *viper.Viper) Config {
	return Config{
		ListenAddr: v.GetString("listen-addr"),
		DialAddr:   v.GetString("dial-addr"),
		LogLevel:   v.GetString("log-level"),
		Identity:   v.GetString("identity"),
	}
}
