package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/jeanhaley32/klotho/internal/container"
	"github.com/jeanhaley32/klotho/internal/session"
)

// Output formats for ls.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

const (
	nameWidth   = 30
	agentWidth  = 20
	statusWidth = 10
)

var (
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	stoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	headerStyle  = lipgloss.NewStyle().Bold(true)
)

func validFormat(format string) bool {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return true
	}
	return false
}

func writeSessions(w io.Writer, format string, sessions []session.SessionInfo) error {
	if sessions == nil {
		sessions = []session.SessionInfo{}
	}

	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sessions)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(sessions); err != nil {
			return fmt.Errorf("failed to encode sessions: %w", err)
		}
		return enc.Close()
	default:
		writeTable(w, sessions)
		return nil
	}
}

func writeTable(w io.Writer, sessions []session.SessionInfo) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-*s %-*s %-*s", nameWidth, "NAME", agentWidth, "AGENT", statusWidth, "STATUS")))
	fmt.Fprintln(w, strings.Repeat("-", nameWidth+agentWidth+statusWidth))
	for _, s := range sessions {
		fmt.Fprintf(w, "%-*s %-*s %s\n", nameWidth, s.Name, agentWidth, s.Agent, statusCell(s.Status))
	}
}

// statusCell pads before colouring so escape codes do not skew the columns.
func statusCell(status container.Status) string {
	text := fmt.Sprintf("%-*s", statusWidth, status.String())
	switch status {
	case container.Running:
		return runningStyle.Render(text)
	case container.Stopped:
		return stoppedStyle.Render(text)
	default:
		return warnStyle.Render(text)
	}
}
