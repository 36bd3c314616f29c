package container

import (
	"context"
	"fmt"
	"strings"
)

// Status is a container's state as seen by the engine.
type Status int

const (
	NotFound Status = iota
	Stopped
	Running
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	case NotFound:
		return "not found"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Container is one row of the engine's container listing.
type Container struct {
	Name string
	// StatusText is the engine's human-readable status, e.g. "Up 2 minutes".
	StatusText string
}

// Status classifies the container from its status text.
func (c Container) Status() Status {
	return ClassifyStatus(c.StatusText)
}

// ClassifyStatus maps engine status text to Running or Stopped. Any text
// containing "up" (case-insensitive) counts as running.
func ClassifyStatus(statusText string) Status {
	if strings.Contains(strings.ToLower(statusText), "up") {
		return Running
	}
	return Stopped
}

// Mount is a bind mount in engine -v syntax order.
type Mount struct {
	Source  string
	Target  string
	Options string
}

// String renders the mount as a -v value.
func (m Mount) String() string {
	if m.Options == "" {
		return m.Source + ":" + m.Target
	}
	return m.Source + ":" + m.Target + ":" + m.Options
}

// CreateOptions configures a detached, long-lived session container.
type CreateOptions struct {
	Name    string
	Image   string
	Workdir string
	Mounts  []Mount
	// RawVolumes are passed to -v verbatim (user-supplied mount specs).
	RawVolumes []string
	// Command keeps the container alive; defaults to KeepAliveCommand.
	Command []string
}

// KeepAliveCommand idles until the container is stopped.
var KeepAliveCommand = []string{"bash", "-c", "trap 'exit 0' TERM; while :; do sleep 1; done"}

// Runtime is the set of engine operations the session lifecycle needs.
// Every call queries or mutates the engine directly; nothing is cached.
type Runtime interface {
	// List returns every container the engine knows, running or not,
	// in the engine's listing order.
	List(ctx context.Context) ([]Container, error)

	// Create runs a new detached container.
	Create(ctx context.Context, opts CreateOptions) error

	// Start starts a stopped container.
	Start(ctx context.Context, name string) error

	// Stop stops a container. Stopping a container that is already stopped
	// or does not exist succeeds.
	Stop(ctx context.Context, name string) error

	// Remove deletes a stopped container.
	Remove(ctx context.Context, name string) error

	// ImageExists reports whether an image for the agent has been built,
	// under either the current or the legacy image name.
	ImageExists(ctx context.Context, agent string) (bool, error)

	// ImageName returns the image to run for the agent.
	ImageName(ctx context.Context, agent string) (string, error)
}

// StatusOf derives a container's status from a fresh listing.
func StatusOf(ctx context.Context, rt Runtime, name string) (Status, error) {
	containers, err := rt.List(ctx)
	if err != nil {
		return NotFound, err
	}
	for _, c := range containers {
		if c.Name == name {
			return c.Status(), nil
		}
	}
	return NotFound, nil
}
