package watchcmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fleetwatch/cmd/fleetwatch/cmdutil"
	"fleetwatch/cmd/fleetwatch/ui"
	"fleetwatch/internal/adapter/sqlite"
	"fleetwatch/internal/clockskew"
	"fleetwatch/internal/status"
	"fleetwatch/internal/support/buildinfo"
	"fleetwatch/internal/support/telemetry"
)

// Cmd returns the "fleetwatch watch" command: monitor units until
// interrupted, streaming change events to the terminal and, when
// configured, to the sqlite event journal.
func Cmd(configFlag *string) *cobra.Command {
	var (
		composePath string
		project     string
	)

	cmd := &cobra.Command{
		Use:   "watch [unit...]",
		Short: "Monitor units and stream status changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(*configFlag)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			units, err := cmdutil.ResolveUnits(ctx, args, composePath, project)
			if err != nil {
				return err
			}

			shutdownTelemetry, err := telemetry.Setup("fleetwatch", buildinfo.Version)
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdownTelemetry(context.Background()); err != nil {
					slog.Debug("telemetry shutdown", "err", err)
				}
			}()

			svc, prober, err := cmdutil.BuildService(cfg)
			if err != nil {
				return err
			}
			defer prober.Close()

			if err := prober.WaitReady(ctx); err != nil {
				return err
			}

			unsubscribe := svc.Subscribe(func(e status.Event) {
				fmt.Println(ui.ChangeLine(e))
			})
			defer unsubscribe()

			if cfg.EventLog != "" {
				journal, err := sqlite.OpenEventLog(cfg.EventLog)
				if err != nil {
					return err
				}
				defer journal.Close()

				cancelJournal := svc.Subscribe(func(e status.Event) {
					if err := journal.Append(ctx, e); err != nil {
						slog.Warn("journal append failed", "unit", e.UnitID, "err", err)
					}
				})
				defer cancelJournal()
			}

			if cfg.ClockSkew.Enabled {
				checker := clockskew.New(status.RealClock{}, cfg.ClockSkew.Pool)
				go checker.Run(ctx)
			}

			svc.Start(ctx)
			defer svc.Shutdown()

			for _, unit := range units {
				svc.StartMonitoring(unit)
			}
			slog.Info("watching units", "count", len(units))

			<-ctx.Done()
			fmt.Println(ui.Muted("stopping"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&composePath, "compose", "f", "", "Compose file naming the units to watch")
	cmd.Flags().StringVar(&project, "project", "", "Compose project name override")
	return cmd
}
