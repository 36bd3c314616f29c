// Package session implements the lifecycle of named agent sessions.
//
// A session is a long-lived container running one agent image. The session
// name is the user's handle; the container name encodes both agent and
// session (see Naming). All state lives in the container engine, so every
// operation lists containers afresh before deciding what to do.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jeanhaley32/klotho/internal/agent"
	"github.com/jeanhaley32/klotho/internal/container"
	"github.com/jeanhaley32/klotho/internal/platform"
)

// Delays around container start-up.
const (
	// StartSettleDelay follows starting a stopped container.
	StartSettleDelay = 1 * time.Second
	// CreateSettleDelay follows creating a new container.
	CreateSettleDelay = 500 * time.Millisecond
	// readyInterval separates readiness checks after the settle delay.
	readyInterval = 500 * time.Millisecond
	// readyAttempts bounds readiness checks before giving up.
	readyAttempts = 10
)

// ConfigResolver resolves agent configuration.
type ConfigResolver interface {
	Resolve(agentID string) (cfg agent.Config, usedLegacyPath bool, err error)
	Agents() ([]string, error)
}

// ImageBuilder builds an agent image.
type ImageBuilder interface {
	Build(ctx context.Context, agentID string, noCache bool) (image string, err error)
}

// Attacher connects the terminal to a session inside its container.
type Attacher interface {
	Attach(ctx context.Context, containerName, session string, cfg agent.Config) error
}

// Prompter asks the user questions. Implementations return the default
// answer when no terminal is attached.
type Prompter interface {
	Choose(question string, options []string, defaultIndex int) (int, error)
	Confirm(question string, defaultYes bool) (bool, error)
}

// Options wires a Manager to its collaborators.
type Options struct {
	Runtime  container.Runtime
	Naming   Naming
	Configs  ConfigResolver
	Builder  ImageBuilder
	Attacher Attacher
	Prompter Prompter
	Env      platform.Environment
	// Out receives progress messages.
	Out io.Writer
	Log *slog.Logger
}

// Manager drives session state transitions.
type Manager struct {
	runtime  container.Runtime
	naming   Naming
	configs  ConfigResolver
	builder  ImageBuilder
	attacher Attacher
	prompter Prompter
	env      platform.Environment
	out      io.Writer
	log      *slog.Logger

	sleep func(time.Duration)
}

// NewManager creates a Manager.
func NewManager(opts Options) *Manager {
	naming := opts.Naming
	if naming == nil {
		naming = NewNaming()
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	log := opts.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		runtime:  opts.Runtime,
		naming:   naming,
		configs:  opts.Configs,
		builder:  opts.Builder,
		attacher: opts.Attacher,
		prompter: opts.Prompter,
		env:      opts.Env,
		out:      out,
		log:      log,
		sleep:    time.Sleep,
	}
}

// StartOptions selects the session to start or attach to.
type StartOptions struct {
	// Agent is the agent id; empty asks the user to pick one.
	Agent string
	// Name is the session name.
	Name string
	// Paths and LinkedDirs only matter when a new container is created.
	Paths      []string
	LinkedDirs []string
}

// SessionInfo is one row of List.
type SessionInfo struct {
	Name      string           `json:"name" yaml:"name"`
	Agent     string           `json:"agent" yaml:"agent"`
	Status    container.Status `json:"-" yaml:"-"`
	State     string           `json:"status" yaml:"status"`
	Container string           `json:"container" yaml:"container"`
}

// Start attaches to the named session, starting or creating its container
// as needed.
func (m *Manager) Start(ctx context.Context, opts StartOptions) error {
	agentID := opts.Agent
	if agentID == "" {
		var err error
		if agentID, err = m.selectAgent(); err != nil {
			return err
		}
	}

	cfg, err := m.resolveConfig(agentID)
	if err != nil {
		return err
	}

	if err := m.ensureImage(ctx, agentID); err != nil {
		return err
	}

	containerName, status, err := m.find(ctx, opts.Name)
	if err != nil {
		return err
	}

	switch status {
	case container.Running:
		m.warnAgentMismatch(containerName, opts.Name, agentID)
		fmt.Fprintf(m.out, "Attaching to existing session '%s'...\n", opts.Name)
		return m.attacher.Attach(ctx, containerName, opts.Name, cfg)
	case container.Stopped:
		m.warnAgentMismatch(containerName, opts.Name, agentID)
		fmt.Fprintf(m.out, "Starting stopped session '%s'...\n", opts.Name)
		if err := m.startAndWait(ctx, containerName); err != nil {
			return err
		}
		return m.attacher.Attach(ctx, containerName, opts.Name, cfg)
	}

	fmt.Fprintf(m.out, "Creating new session '%s'...\n", opts.Name)
	containerName, err = m.create(ctx, agentID, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "✓ Created session '%s' → %s\n", opts.Name, containerName)

	if err := m.waitReady(ctx, containerName, CreateSettleDelay); err != nil {
		return err
	}
	return m.attacher.Attach(ctx, containerName, opts.Name, cfg)
}

// Stop stops the named session. Stopping a stopped session succeeds.
func (m *Manager) Stop(ctx context.Context, name string) error {
	containerName, status, err := m.find(ctx, name)
	if err != nil {
		return err
	}
	if status == container.NotFound {
		return notFound(name)
	}

	if err := m.runtime.Stop(ctx, containerName); err != nil {
		return fmt.Errorf("failed to stop session '%s': %w", name, err)
	}
	fmt.Fprintf(m.out, "Stopped: %s\n", name)
	return nil
}

// Restart starts a stopped session, or joins a running one, and attaches.
func (m *Manager) Restart(ctx context.Context, name string) error {
	containerName, status, err := m.find(ctx, name)
	if err != nil {
		return err
	}
	if status == container.NotFound {
		return notFound(name)
	}

	agentID, err := m.naming.Decode(containerName, name)
	if err != nil {
		return err
	}
	cfg, err := m.resolveConfig(agentID)
	if err != nil {
		return err
	}

	if status == container.Running {
		fmt.Fprintf(m.out, "Session '%s' is already running. Attaching...\n", name)
	} else {
		fmt.Fprintf(m.out, "Starting '%s'...\n", name)
		if err := m.startAndWait(ctx, containerName); err != nil {
			return err
		}
	}
	return m.attacher.Attach(ctx, containerName, name, cfg)
}

// Remove deletes a stopped session. A running session is never removed.
// Unless force is set the user is asked to confirm; declining is not an error.
func (m *Manager) Remove(ctx context.Context, name string, force bool) error {
	containerName, status, err := m.find(ctx, name)
	if err != nil {
		return err
	}
	switch status {
	case container.NotFound:
		return notFound(name)
	case container.Running:
		return fmt.Errorf("%w: cannot remove running session '%s'\nStop it first: klotho stop %s",
			ErrUnsafeOperation, name, name)
	}

	if !force {
		ok, err := m.prompter.Confirm(fmt.Sprintf("Remove session '%s'?", name), false)
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if !ok {
			fmt.Fprintln(m.out, "Cancelled.")
			return nil
		}
	}

	if err := m.runtime.Remove(ctx, containerName); err != nil {
		return fmt.Errorf("failed to remove session '%s': %w", name, err)
	}
	fmt.Fprintf(m.out, "Removed: %s\n", name)
	return nil
}

// List returns every session container the engine knows about.
func (m *Manager) List(ctx context.Context) ([]SessionInfo, error) {
	containers, err := m.runtime.List(ctx)
	if err != nil {
		return nil, err
	}

	var sessions []SessionInfo
	for _, c := range containers {
		if !m.naming.IsSessionContainer(c.Name) {
			continue
		}
		name, agentID := m.naming.DisplayInfo(c.Name)
		status := c.Status()
		sessions = append(sessions, SessionInfo{
			Name:      name,
			Agent:     agentID,
			Status:    status,
			State:     status.String(),
			Container: c.Name,
		})
	}
	return sessions, nil
}

// find locates the container for a session and its status from one listing.
func (m *Manager) find(ctx context.Context, name string) (string, container.Status, error) {
	containers, err := m.runtime.List(ctx)
	if err != nil {
		return "", container.NotFound, err
	}

	var names []string
	statuses := make(map[string]container.Status, len(containers))
	for _, c := range containers {
		if !m.naming.IsSessionContainer(c.Name) {
			continue
		}
		names = append(names, c.Name)
		statuses[c.Name] = c.Status()
	}

	containerName, ok := m.naming.FindBySessionName(names, name)
	if !ok {
		return "", container.NotFound, nil
	}
	m.log.Debug("found session container", "session", name, "container", containerName, "status", statuses[containerName])
	return containerName, statuses[containerName], nil
}

func (m *Manager) resolveConfig(agentID string) (agent.Config, error) {
	cfg, usedLegacy, err := m.configs.Resolve(agentID)
	if usedLegacy {
		m.log.Warn("using legacy config directory ~/.config/agent-session",
			"hint", "move it to ~/.config/klotho")
	}
	if err != nil {
		return agent.Config{}, err
	}
	return cfg, nil
}

// selectAgent asks the user to pick an agent, or picks the only one.
func (m *Manager) selectAgent() (string, error) {
	agents, err := m.configs.Agents()
	if err != nil {
		return "", err
	}
	switch len(agents) {
	case 0:
		return "", fmt.Errorf("%w: no agents found", agent.ErrAgentNotFound)
	case 1:
		return agents[0], nil
	}

	choice, err := m.prompter.Choose("Select agent", agents, 0)
	if err != nil {
		return "", fmt.Errorf("failed to select agent: %w", err)
	}
	if choice < 0 || choice >= len(agents) {
		return "", fmt.Errorf("invalid agent selection %d", choice)
	}
	return agents[choice], nil
}

// ensureImage builds the agent image only with the user's consent.
func (m *Manager) ensureImage(ctx context.Context, agentID string) error {
	exists, err := m.runtime.ImageExists(ctx, agentID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	fmt.Fprintf(m.out, "! Image for agent '%s' not found\n", agentID)
	build, err := m.prompter.Confirm("Build now?", false)
	if err != nil {
		return fmt.Errorf("failed to read confirmation: %w", err)
	}
	if !build {
		return fmt.Errorf("%w: cannot start session without built image. Run: klotho build %s", ErrImageMissing, agentID)
	}

	if _, err := m.builder.Build(ctx, agentID, false); err != nil {
		return err
	}
	return nil
}

// create runs a new container for the session under the current scheme.
func (m *Manager) create(ctx context.Context, agentID string, opts StartOptions) (string, error) {
	plan, err := PlanMounts(m.env, MountSpec{Paths: opts.Paths, LinkedDirs: opts.LinkedDirs}, m.log)
	if err != nil {
		return "", err
	}

	image, err := m.runtime.ImageName(ctx, agentID)
	if err != nil {
		return "", err
	}

	containerName := m.naming.Encode(agentID, opts.Name)
	err = m.runtime.Create(ctx, container.CreateOptions{
		Name:       containerName,
		Image:      image,
		Workdir:    plan.Workdir,
		Mounts:     plan.Mounts,
		RawVolumes: plan.RawVolumes,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create session '%s': %w", opts.Name, err)
	}
	return containerName, nil
}

func (m *Manager) startAndWait(ctx context.Context, containerName string) error {
	if err := m.runtime.Start(ctx, containerName); err != nil {
		return err
	}
	return m.waitReady(ctx, containerName, StartSettleDelay)
}

// waitReady gives a just-started container time to come up, then checks a
// bounded number of times that the engine reports it running.
func (m *Manager) waitReady(ctx context.Context, containerName string, settle time.Duration) error {
	m.sleep(settle)
	for i := 0; i < readyAttempts; i++ {
		status, err := container.StatusOf(ctx, m.runtime, containerName)
		if err != nil {
			return err
		}
		if status == container.Running {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if i < readyAttempts-1 {
			m.sleep(readyInterval)
		}
	}
	return fmt.Errorf("container %s not running after %d checks", containerName, readyAttempts)
}

// warnAgentMismatch notes when an existing session runs a different agent
// than the one requested; the existing container is used as-is.
func (m *Manager) warnAgentMismatch(containerName, session, requested string) {
	existing, err := m.naming.Decode(containerName, session)
	if err == nil && existing != requested {
		m.log.Warn("session already exists with a different agent",
			"session", session, "existing", existing, "requested", requested)
	}
}

func notFound(name string) error {
	return fmt.Errorf("%w: '%s'", ErrSessionNotFound, name)
}

// IsNotFound reports whether err means a session or agent does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || errors.Is(err, agent.ErrAgentNotFound)
}
