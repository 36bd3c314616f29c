package session

import (
	"fmt"
	"strings"
)

// CurrentPrefix starts every container name created by klotho.
const CurrentPrefix = "klotho-session-"

// unknownAgent is reported by DisplayInfo when a name cannot be split.
const unknownAgent = "unknown"

// Scheme is a container naming convention.
type Scheme int

const (
	// SchemeCurrent names containers klotho-session-<agent>-<session>.
	SchemeCurrent Scheme = iota
	// SchemeLegacy names containers <agent>-<session>.
	SchemeLegacy
)

// schemes lists every scheme in the order decoding tries them.
var schemes = []Scheme{SchemeCurrent, SchemeLegacy}

func (s Scheme) String() string {
	switch s {
	case SchemeCurrent:
		return "current"
	case SchemeLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
}

// Encode returns the container name for agent and session under this scheme.
func (s Scheme) Encode(agent, session string) string {
	if s == SchemeCurrent {
		return CurrentPrefix + agent + "-" + session
	}
	return agent + "-" + session
}

// Decode recovers the agent from a container name produced by Encode for the
// given session. ok is false when the name does not fit this scheme.
func (s Scheme) Decode(containerName, session string) (agent string, ok bool) {
	rest := containerName
	if s == SchemeCurrent {
		if rest, ok = strings.CutPrefix(rest, CurrentPrefix); !ok {
			return "", false
		}
	}
	agent, ok = strings.CutSuffix(rest, "-"+session)
	if !ok || agent == "" {
		return "", false
	}
	return agent, true
}

// Split divides a container name into session and agent at the last hyphen
// of the scheme's remainder. ok is false when the name does not fit.
func (s Scheme) Split(containerName string) (session, agent string, ok bool) {
	rest := containerName
	if s == SchemeCurrent {
		if rest, ok = strings.CutPrefix(rest, CurrentPrefix); !ok {
			return "", "", false
		}
	}
	i := strings.LastIndex(rest, "-")
	if i < 0 {
		return "", "", false
	}
	return rest[i+1:], rest[:i], true
}

// Matches reports whether a container name looks like it belongs to this scheme.
func (s Scheme) Matches(containerName string) bool {
	if s == SchemeCurrent {
		return strings.HasPrefix(containerName, CurrentPrefix)
	}
	return strings.Contains(containerName, "-")
}

// Naming maps session names to container names and back.
type Naming interface {
	// Encode returns the container name for a new session.
	Encode(agent, session string) string

	// Decode returns the agent encoded in containerName for a known session.
	Decode(containerName, session string) (string, error)

	// FindBySessionName picks the container for session from a listing.
	FindBySessionName(containerNames []string, session string) (string, bool)

	// DisplayInfo splits a container name into session and agent for listings.
	DisplayInfo(containerName string) (session, agent string)

	// IsSessionContainer reports whether a container belongs to any scheme.
	IsSessionContainer(containerName string) bool
}

// SchemeNaming implements Naming by trying each Scheme in priority order.
//
// Two ambiguities are inherited from the naming format and kept for
// compatibility with existing containers:
//   - FindBySessionName matches by "-<session>" suffix, so a session named
//     "b" also matches the container of session "a-b". Ties go to the
//     runtime's listing order.
//   - DisplayInfo splits at the last hyphen, so hyphenated session names are
//     attributed partly to the agent.
type SchemeNaming struct{}

// NewNaming returns the default Naming.
func NewNaming() SchemeNaming {
	return SchemeNaming{}
}

func (SchemeNaming) Encode(agent, session string) string {
	return SchemeCurrent.Encode(agent, session)
}

func (SchemeNaming) Decode(containerName, session string) (string, error) {
	for _, s := range schemes {
		if agent, ok := s.Decode(containerName, session); ok {
			return agent, nil
		}
	}
	return "", fmt.Errorf("%w: %s (session %q)", ErrUndecodableName, containerName, session)
}

func (SchemeNaming) FindBySessionName(containerNames []string, session string) (string, bool) {
	suffix := "-" + session
	var fallback string
	found := false
	for _, name := range containerNames {
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		if _, ok := SchemeCurrent.Decode(name, session); ok {
			return name, true
		}
		if !found {
			fallback, found = name, true
		}
	}
	return fallback, found
}

func (SchemeNaming) DisplayInfo(containerName string) (session, agent string) {
	for _, s := range schemes {
		if session, agent, ok := s.Split(containerName); ok {
			return session, agent
		}
	}
	return containerName, unknownAgent
}

func (SchemeNaming) IsSessionContainer(containerName string) bool {
	for _, s := range schemes {
		if s.Matches(containerName) {
			return true
		}
	}
	return false
}
