package statuscmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"fleetwatch/cmd/fleetwatch/cmdutil"
	"fleetwatch/cmd/fleetwatch/ui"
	"fleetwatch/internal/status"
)

// Cmd returns the "fleetwatch status" command. configFlag points at the
// root persistent flag value.
func Cmd(configFlag *string) *cobra.Command {
	var (
		composePath string
		project     string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "status [unit...]",
		Short: "Probe units once and print their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig(*configFlag)
			if err != nil {
				return err
			}

			units, err := cmdutil.ResolveUnits(cmd.Context(), args, composePath, project)
			if err != nil {
				return err
			}

			svc, prober, err := cmdutil.BuildService(cfg)
			if err != nil {
				return err
			}
			defer prober.Close()

			statuses := svc.GetManyStatuses(cmd.Context(), units, force)

			ids := make([]string, 0, len(statuses))
			for id := range statuses {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			records := make([]status.Record, 0, len(ids))
			for _, id := range ids {
				records = append(records, statuses[id])
			}
			fmt.Println(ui.StatusTable(records))
			return nil
		},
	}

	cmd.Flags().StringVarP(&composePath, "compose", "f", "", "Compose file naming the units to probe")
	cmd.Flags().StringVar(&project, "project", "", "Compose project name override")
	cmd.Flags().BoolVar(&force, "force", false, "Probe even when the cache is fresh")
	return cmd
}
