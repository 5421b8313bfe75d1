// Package ui renders status records and change events for the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"fleetwatch/internal/status"
)

// Palette: muted, dark-terminal friendly.
var (
	purple = lipgloss.Color("99")
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	yellow = lipgloss.Color("214")
	dim    = lipgloss.Color("243")
	faint  = lipgloss.Color("238")
)

var (
	accentStyle  = lipgloss.NewStyle().Foreground(purple)
	successStyle = lipgloss.NewStyle().Foreground(green)
	errorStyle   = lipgloss.NewStyle().Foreground(red)
	warnStyle    = lipgloss.NewStyle().Foreground(yellow)
	mutedStyle   = lipgloss.NewStyle().Foreground(dim)
	labelStyle   = lipgloss.NewStyle().Foreground(dim)
)

func Muted(s string) string { return mutedStyle.Render(s) }

// ErrorMsg renders a single-line error marker message.
func ErrorMsg(format string, a ...any) string {
	return errorStyle.Render("✗") + " " + fmt.Sprintf(format, a...)
}

// Lifecycle renders a colored lifecycle badge.
func Lifecycle(s status.LifecycleState) string {
	switch s {
	case status.LifecycleRunning:
		return successStyle.Render(string(s))
	case status.LifecycleError:
		return errorStyle.Render(string(s))
	default:
		return mutedStyle.Render(string(s))
	}
}

// Reachability renders a colored reachability badge.
func Reachability(r status.Reachability) string {
	switch r {
	case status.ReachAccessible:
		return successStyle.Render(string(r))
	case status.ReachNotAccessible:
		return warnStyle.Render(string(r))
	default:
		return mutedStyle.Render(string(r))
	}
}

// Ports renders port mappings as "8080->80/tcp, ..." or a muted dash.
func Ports(ports []status.PortMapping) string {
	if len(ports) == 0 {
		return mutedStyle.Render("-")
	}
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = fmt.Sprintf("%d->%d/%s", p.External, p.Internal, p.Transport)
	}
	return strings.Join(parts, ", ")
}

// StatusTable renders records as a bordered table.
func StatusTable(records []status.Record) string {
	headerStyle := lipgloss.NewStyle().
		Foreground(purple).
		Bold(true).
		Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, len(records))
	for i, rec := range records {
		endpoint := rec.Endpoint
		if endpoint == "" {
			endpoint = "-"
		}
		rows[i] = []string{
			rec.DisplayName,
			Lifecycle(rec.Lifecycle),
			Reachability(rec.Reachability),
			endpoint,
			Ports(rec.Ports),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(faint)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("UNIT", "STATE", "REACHABLE", "ENDPOINT", "PORTS").
		Rows(rows...)

	return t.String()
}

// ChangeLine renders one change event as a single line.
func ChangeLine(e status.Event) string {
	from := "(first seen)"
	if e.Previous != nil {
		from = string(e.Previous.Lifecycle)
	}
	line := fmt.Sprintf("%s %s %s %s %s",
		mutedStyle.Render(e.ObservedAt.Format("15:04:05")),
		accentStyle.Render(e.UnitID),
		mutedStyle.Render(from+" →"),
		Lifecycle(e.Current.Lifecycle),
		Reachability(e.Current.Reachability),
	)
	if e.Current.ErrorDetail != "" {
		line += " " + errorStyle.Render(e.Current.ErrorDetail)
	}
	return line
}

// KeyValues renders aligned "key:  value" lines with a trailing newline.
func KeyValues(indent string, pairs ...[2]string) string {
	maxLen := 0
	for _, p := range pairs {
		if len(p[0]) > maxLen {
			maxLen = len(p[0])
		}
	}

	var sb strings.Builder
	for _, p := range pairs {
		label := fmt.Sprintf("%-*s", maxLen+1, p[0]+":")
		sb.WriteString(indent + labelStyle.Render(label) + " " + p[1] + "\n")
	}
	return sb.String()
}
