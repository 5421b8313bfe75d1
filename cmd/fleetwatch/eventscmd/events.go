package eventscmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"fleetwatch/cmd/fleetwatch/cmdutil"
	"fleetwatch/cmd/fleetwatch/ui"
	"fleetwatch/config"
	"fleetwatch/internal/adapter/sqlite"
)

// Cmd returns the "fleetwatch events" command: print recent journaled
// change events, newest first.
func Cmd(configFlag *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent status change events from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cmdutil.LoadConfig(*configFlag)
			if err != nil {
				return err
			}
			if cfg.EventLog == "" {
				return fmt.Errorf("no event journal configured; set event-log in %s", config.Path())
			}

			journal, err := sqlite.OpenEventLog(cfg.EventLog)
			if err != nil {
				return err
			}
			defer journal.Close()

			events, err := journal.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println(ui.Muted("no events recorded"))
				return nil
			}

			for _, ev := range events {
				from := ev.PrevLifecycle
				if from == "" {
					from = "(first seen)"
				}
				line := fmt.Sprintf("%s  %s  %s → %s  %s",
					ui.Muted(ev.ObservedAt.Local().Format("2006-01-02 15:04:05")),
					ev.UnitID, from, ev.Lifecycle, ev.Reachability)
				if ev.ErrorDetail != "" {
					line += "  " + ev.ErrorDetail
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of events to show")
	return cmd
}
