package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Default timeout for engine commands that are not interactive.
const defaultCommandTimeout = 30 * time.Second

const (
	imagePrefix       = "klotho-"
	legacyImagePrefix = "agent-session-"
	imageTag          = ":latest"
)

// listFormat makes ps print one "name|status" line per container.
const listFormat = "{{.Names}}|{{.Status}}"

// ImageRef returns the image name klotho builds for an agent.
func ImageRef(agent string) string {
	return imagePrefix + agent + imageTag
}

// LegacyImageRef returns the image name older releases built for an agent.
func LegacyImageRef(agent string) string {
	return legacyImagePrefix + agent + imageTag
}

// commandRunner executes an engine command and returns its output streams.
// err is an *exec.ExitError when the command ran and exited non-zero.
type commandRunner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// CLI implements Runtime by invoking the podman or docker command line.
type CLI struct {
	engine  Engine
	run     commandRunner
	log     *slog.Logger
	timeout time.Duration
}

// NewCLI creates a Runtime for the given engine.
func NewCLI(engine Engine, log *slog.Logger) *CLI {
	return &CLI{
		engine:  engine,
		run:     execRunner,
		log:     log,
		timeout: defaultCommandTimeout,
	}
}

// Engine returns the engine this runtime drives.
func (c *CLI) Engine() Engine {
	return c.engine
}

// invoke runs an engine command with the default timeout.
func (c *CLI) invoke(ctx context.Context, op string, args ...string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.log.Debug("running engine command", "engine", c.engine, "args", args)
	stdout, stderr, err := c.run(ctx, string(c.engine), args...)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("command timed out after %v: %w", c.timeout, err)
		}
		return string(stdout), string(stderr), &CommandError{
			Op:     op,
			Args:   append([]string{string(c.engine)}, args...),
			Stderr: excerpt(string(stderr)),
			Err:    err,
		}
	}
	return string(stdout), string(stderr), nil
}

func (c *CLI) List(ctx context.Context) ([]Container, error) {
	stdout, _, err := c.invoke(ctx, "list containers", "ps", "-a", "--format", listFormat)
	if err != nil {
		return nil, err
	}
	return parseList(stdout), nil
}

// parseList parses "name|status" lines, skipping anything malformed.
func parseList(output string) []Container {
	var containers []Container
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, status, ok := strings.Cut(line, "|")
		if !ok || name == "" {
			continue
		}
		containers = append(containers, Container{Name: name, StatusText: status})
	}
	return containers
}

func (c *CLI) Create(ctx context.Context, opts CreateOptions) error {
	if _, _, err := c.invoke(ctx, "create container", createArgs(c.engine, opts)...); err != nil {
		return err
	}
	return nil
}

// createArgs returns the engine arguments for a detached session container.
func createArgs(engine Engine, opts CreateOptions) []string {
	args := []string{"run", "-d", "--name", opts.Name}
	if engine == Podman {
		// Keep the host user's uid inside the container so bind mounts stay writable.
		args = append(args, "--userns=keep-id")
	}
	if opts.Workdir != "" {
		args = append(args, "--workdir", opts.Workdir)
	}
	for _, m := range opts.Mounts {
		args = append(args, "-v", m.String())
	}
	for _, v := range opts.RawVolumes {
		args = append(args, "-v", v)
	}
	args = append(args, opts.Image)

	command := opts.Command
	if len(command) == 0 {
		command = KeepAliveCommand
	}
	return append(args, command...)
}

func (c *CLI) Start(ctx context.Context, name string) error {
	_, _, err := c.invoke(ctx, "start container", "start", name)
	return err
}

func (c *CLI) Stop(ctx context.Context, name string) error {
	_, stderr, err := c.invoke(ctx, "stop container", "stop", name)
	if err != nil && isAlreadyStopped(stderr) {
		c.log.Debug("container already stopped", "container", name)
		return nil
	}
	return err
}

// isAlreadyStopped recognises engine messages for a no-op stop.
func isAlreadyStopped(stderr string) bool {
	stderr = strings.ToLower(stderr)
	return strings.Contains(stderr, "no such container") || strings.Contains(stderr, "not running")
}

func (c *CLI) Remove(ctx context.Context, name string) error {
	_, _, err := c.invoke(ctx, "remove container", "rm", name)
	return err
}

func (c *CLI) ImageExists(ctx context.Context, agent string) (bool, error) {
	for _, ref := range []string{ImageRef(agent), LegacyImageRef(agent)} {
		ok, err := c.imageExists(ctx, ref)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func (c *CLI) ImageName(ctx context.Context, agent string) (string, error) {
	current := ImageRef(agent)
	ok, err := c.imageExists(ctx, current)
	if err != nil || ok {
		return current, err
	}

	legacy := LegacyImageRef(agent)
	ok, err = c.imageExists(ctx, legacy)
	if err != nil {
		return "", err
	}
	if ok {
		c.log.Warn("using legacy image", "image", legacy, "hint", "rebuild to use new naming: klotho build "+agent)
		return legacy, nil
	}
	return current, nil
}

// imageExists checks if an image exists locally. A non-zero exit means the
// image is absent; failing to run the engine at all is an error.
func (c *CLI) imageExists(ctx context.Context, ref string) (bool, error) {
	_, _, err := c.invoke(ctx, "inspect image", "image", "inspect", ref)
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, err
}
