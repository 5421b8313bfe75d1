// Package compose derives the set of unit ids to watch from a Docker
// Compose file. Discovery of units stays the caller's responsibility;
// this is one convenient way for a caller to name its fleet.
package compose

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	compose "github.com/compose-spec/compose-go/v2/types"
)

const composeSpecFilename = "compose.yaml"

// Units parses a compose YAML document and returns the container names
// its services produce, sorted. An explicit container_name wins;
// otherwise the compose convention {project}-{service}-1 applies.
func Units(ctx context.Context, data []byte, projectName string) ([]string, error) {
	configDetails := compose.ConfigDetails{
		ConfigFiles: []compose.ConfigFile{
			{Filename: composeSpecFilename, Content: data},
		},
	}

	project, err := loader.LoadWithContext(ctx, configDetails)
	if err != nil {
		return nil, fmt.Errorf("parse compose spec: %w", err)
	}
	if len(project.Services) == 0 {
		return nil, fmt.Errorf("compose spec has no services")
	}
	if trimmed := strings.TrimSpace(projectName); trimmed != "" {
		project.Name = trimmed
	}

	units := make([]string, 0, len(project.Services))
	for name, svc := range project.Services {
		units = append(units, containerName(project.Name, name, svc))
	}
	sort.Strings(units)
	return units, nil
}

func containerName(project, service string, svc compose.ServiceConfig) string {
	if svc.ContainerName != "" {
		return svc.ContainerName
	}
	return fmt.Sprintf("%s-%s-1", project, service)
}
