package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fleetwatch/cmd/fleetwatch/configcmd"
	"fleetwatch/cmd/fleetwatch/eventscmd"
	"fleetwatch/cmd/fleetwatch/statuscmd"
	"fleetwatch/cmd/fleetwatch/ui"
	"fleetwatch/cmd/fleetwatch/watchcmd"
	"fleetwatch/config"
	"fleetwatch/internal/logging"
	"fleetwatch/internal/support/buildinfo"
)

func main() {
	var (
		debug      bool
		configPath string
	)
	if err := logging.Configure(logging.LevelWarn); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "fleetwatch",
		Short:         "Container fleet status caching and change notification",
		Version:       buildinfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				return logging.Configure(logging.LevelDebug)
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return logging.Configure(cfg.LogLevel)
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Settings file path")

	root.AddCommand(statuscmd.Cmd(&configPath))
	root.AddCommand(watchcmd.Cmd(&configPath))
	root.AddCommand(eventscmd.Cmd(&configPath))
	root.AddCommand(configcmd.Cmd(&configPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorMsg("%v", err))
		os.Exit(1)
	}
}
