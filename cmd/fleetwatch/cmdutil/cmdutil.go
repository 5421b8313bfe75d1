// Package cmdutil holds wiring shared by the fleetwatch subcommands.
package cmdutil

import (
	"context"
	"fmt"
	"os"
	"time"

	"fleetwatch/config"
	"fleetwatch/internal/adapter/docker"
	"fleetwatch/internal/compose"
	"fleetwatch/internal/status"
)

// LoadConfig reads the settings file named by the --config flag, or the
// default location when the flag is empty.
func LoadConfig(path string) (config.Config, error) {
	return config.Load(path)
}

// BuildService constructs the status engine over a docker prober. The
// caller owns both and must Close the prober after Shutdown.
func BuildService(cfg config.Config) (*status.Service, *docker.Prober, error) {
	prober, err := docker.NewProber()
	if err != nil {
		return nil, nil, fmt.Errorf("create prober: %w", err)
	}
	prober.SetDialTimeout(time.Duration(cfg.DialTimeout))
	return status.New(prober, cfg.ServiceOptions()), prober, nil
}

// ResolveUnits names the fleet to operate on: explicit args win, else a
// compose file names it.
func ResolveUnits(ctx context.Context, args []string, composePath, project string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if composePath == "" {
		return nil, fmt.Errorf("name unit ids or pass --compose")
	}

	data, err := os.ReadFile(composePath)
	if err != nil {
		return nil, fmt.Errorf("read compose file: %w", err)
	}
	units, err := compose.Units(ctx, data, project)
	if err != nil {
		return nil, err
	}
	return units, nil
}
