package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/jeanhaley32/klotho/internal/agent"
)

// agentBinDir holds the per-agent "<agent>-session" wrapper inside the image.
const agentBinDir = "/home/agent/.local/bin"

// Attacher opens the interactive zellij session inside a container.
type Attacher struct {
	engine Engine
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	run    commandRunner
}

// NewAttacher creates an Attacher bound to the process's terminal.
func NewAttacher(engine Engine) *Attacher {
	return &Attacher{
		engine: engine,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		run:    execRunner,
	}
}

// Attach joins the zellij session named session, creating it if needed.
// The call blocks until the user detaches or exits. When zellij exits and
// the session no longer exists, the user is dropped into the agent's shell.
func (a *Attacher) Attach(ctx context.Context, containerName, session string, cfg agent.Config) error {
	exists, err := a.zellijSessionExists(ctx, containerName, session)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, string(a.engine), attachArgs(containerName, session, cfg, exists)...)
	cmd.Stdin = a.stdin
	cmd.Stdout = a.stdout
	cmd.Stderr = a.stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("failed to attach to session %q: exit code %d", session, exitErr.ExitCode())
		}
		return fmt.Errorf("failed to attach to container %s: %w", containerName, err)
	}
	return nil
}

// zellijSessionExists asks zellij inside the container for its sessions.
// zellij exits non-zero when there are none, which is not an error here.
func (a *Attacher) zellijSessionExists(ctx context.Context, containerName, session string) (bool, error) {
	stdout, _, err := a.run(ctx, string(a.engine), "exec", containerName, "zellij", "list-sessions")
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return false, fmt.Errorf("failed to list zellij sessions in %s: %w", containerName, err)
		}
	}
	return hasZellijSession(string(stdout), session), nil
}

// hasZellijSession reports whether list-sessions output names the session.
// zellij colours its output, so escape codes are stripped first.
func hasZellijSession(output, session string) bool {
	for _, line := range strings.Split(ansi.Strip(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == session {
			return true
		}
	}
	return false
}

// zellijCommand is the bash script run inside the container: attach to or
// create the session, then fall back to the agent's shell once the zellij
// session is gone.
func zellijCommand(session, shell string, exists bool) string {
	open := "zellij -s '" + session + "'"
	if exists {
		open = "zellij attach '" + session + "'"
	}
	return fmt.Sprintf(
		"%s; zellij list-sessions 2>/dev/null | sed 's/\\x1b\\[[0-9;]*m//g' | grep -q '^%s ' || exec %s",
		open, session, shell,
	)
}

// attachArgs returns the engine arguments for the interactive exec.
func attachArgs(containerName, session string, cfg agent.Config, exists bool) []string {
	return []string{
		"exec", "-it",
		"-e", "SHELL=" + agentBinDir + "/" + cfg.Name + "-session",
		"-e", "AGENT_LAUNCH_CMD=" + cfg.LaunchCmd,
		containerName,
		"bash", "-c", zellijCommand(session, cfg.Shell, exists),
	}
}
