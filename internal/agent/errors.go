package agent

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSecurityViolation is returned when a config line contains command substitution.
var ErrSecurityViolation = errors.New("config security violation")

// ErrMissingField is returned when a required key is absent after merging.
var ErrMissingField = errors.New("missing required config key")

// ErrAgentNotFound is returned when no base config exists for an agent.
var ErrAgentNotFound = errors.New("agent not found")

// NotFoundError names the unknown agent and the agents that do exist.
type NotFoundError struct {
	Agent     string
	Available []string
}

func (e *NotFoundError) Error() string {
	available := "none"
	if len(e.Available) > 0 {
		available = strings.Join(e.Available, ", ")
	}
	return fmt.Sprintf("no default config found for agent %q\navailable agents: %s", e.Agent, available)
}

func (e *NotFoundError) Unwrap() error {
	return ErrAgentNotFound
}
