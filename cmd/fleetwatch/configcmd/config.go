package configcmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"fleetwatch/cmd/fleetwatch/ui"
	"fleetwatch/config"
)

// Cmd returns the "fleetwatch config" command group.
func Cmd(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the fleetwatch settings file",
	}
	cmd.AddCommand(initCmd(configFlag))
	cmd.AddCommand(pathCmd(configFlag))
	cmd.AddCommand(showCmd(configFlag))
	return cmd
}

func showCmd(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configFlag)
			if err != nil {
				return err
			}

			journal := cfg.EventLog
			if journal == "" {
				journal = "(disabled)"
			}
			dialTimeout := "(default)"
			if cfg.DialTimeout > 0 {
				dialTimeout = time.Duration(cfg.DialTimeout).String()
			}
			skew := "disabled"
			if cfg.ClockSkew.Enabled {
				skew = "enabled"
				if cfg.ClockSkew.Pool != "" {
					skew += " (" + cfg.ClockSkew.Pool + ")"
				}
			}

			fmt.Print(ui.KeyValues("",
				[2]string{"log-level", cfg.LogLevel},
				[2]string{"cache-ttl", time.Duration(cfg.CacheTTL).String()},
				[2]string{"wait-budget", time.Duration(cfg.WaitBudget).String()},
				[2]string{"quick-interval", time.Duration(cfg.QuickInterval).String()},
				[2]string{"global-interval", time.Duration(cfg.GlobalInterval).String()},
				[2]string{"max-concurrency", fmt.Sprintf("%d", cfg.MaxConcurrency)},
				[2]string{"dial-timeout", dialTimeout},
				[2]string{"event-log", journal},
				[2]string{"clock-skew", skew},
			))
			return nil
		},
	}
}

func initCmd(configFlag *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path := *configFlag
			if path == "" {
				path = config.Path()
			}
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}
			if err := config.Default().Save(path); err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing settings file")
	return cmd
}

func pathCmd(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			if *configFlag != "" {
				fmt.Println(*configFlag)
				return
			}
			fmt.Println(config.Path())
		},
	}
}
