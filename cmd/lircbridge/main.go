// Lircbridge exposes an LIRC infrared blaster to a web remote and to a
// voice-assistant webhook.
//
// Usage:
//
//	lircbridge serve [--config /path/to/lircbridge.yaml]
//	lircbridge remotes
//	lircbridge send SonyTV KEY_POWER
//	lircbridge resolve "turn on tv"
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nadzzz/lircbridge/internal/config"
	"github.com/nadzzz/lircbridge/internal/lirc"
	"github.com/nadzzz/lircbridge/internal/profile"
)

// version is set at build time via ldflags.
var version = "dev"

type app struct {
	configFile string
	envFile    string
	cfg        *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "lircbridge",
		Short:         "IR remote bridge for web clients and voice assistants",
		Version:       version,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "path to config file (e.g. configs/lircbridge.yaml)")
	root.PersistentFlags().StringVarP(&a.envFile, "env", "e", ".env", "env file loaded before the config")

	root.AddCommand(
		newServeCmd(a),
		newRemotesCmd(a),
		newSendCmd(a),
		newResolveCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init() error {
	if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", a.envFile, err)
	}

	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	config.SetupLogging(cfg.Logging)
	a.cfg = cfg
	return nil
}

// loadProfile builds the profile store and performs the first load.
func (a *app) loadProfile() (*profile.Store, error) {
	store := profile.NewStore(nil, a.cfg.Profile.Paths...)
	if _, err := store.Reload(); err != nil {
		return nil, err
	}
	return store, nil
}

// newDriver creates the configured transmission driver. A socket set in
// the profile takes precedence over the service config.
func (a *app) newDriver(p *profile.Profile) lirc.Driver {
	switch a.cfg.LIRC.Driver {
	case "fixture":
		slog.Info("using fixture driver", "path", a.cfg.LIRC.Fixture)
		return lirc.NewFixture(a.cfg.LIRC.Fixture)
	default:
		lc := a.cfg.LIRC
		if p.Socket != "" {
			lc.Socket = p.Socket
		}
		slog.Info("using lircd driver", "socket", lc.Socket)
		return lirc.NewClient(lc)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		// Skips config loading.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "lircbridge", version)
		},
	}
}
