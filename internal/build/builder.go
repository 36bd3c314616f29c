// Package build builds agent images with the container engine.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeanhaley32/klotho/internal/agent"
	"github.com/jeanhaley32/klotho/internal/container"
	"github.com/jeanhaley32/klotho/internal/embedded"
	"github.com/jeanhaley32/klotho/internal/repo"
)

// tailLines is how much build output an error report carries.
const tailLines = 20

// ErrStageNotFound is returned when the Containerfile has no stage for an agent.
var ErrStageNotFound = errors.New("containerfile stage not found")

var (
	successMark = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Render("✓")
	boldStyle   = lipgloss.NewStyle().Bold(true)
	imageStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// ConfigSource supplies the default config of an agent. Build arguments come
// from the default layer only; user overrides apply to sessions.
type ConfigSource interface {
	BaseLayer(agentID string) (agent.ConfigMap, error)
}

// streamRunner runs a command, copying its stderr to the given writer.
type streamRunner func(ctx context.Context, name string, args []string, stderr io.Writer) error

func execStreamRunner(ctx context.Context, name string, args []string, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr
	return cmd.Run()
}

// Options configures a Builder.
type Options struct {
	Engine  container.Engine
	Configs ConfigSource
	Locator repo.Locator
	// Out receives the spinner and the result line.
	Out io.Writer
	// Animate draws the spinner; disable when Out is not a terminal.
	Animate bool
	Log     *slog.Logger
}

// Builder builds one image per agent from a Containerfile stage.
type Builder struct {
	engine  container.Engine
	configs ConfigSource
	locator repo.Locator
	out     io.Writer
	animate bool
	log     *slog.Logger

	run streamRunner
	// contextDir is where embedded resources are extracted.
	contextDir string
}

// NewBuilder creates a Builder.
func NewBuilder(opts Options) *Builder {
	return &Builder{
		engine:     opts.Engine,
		configs:    opts.Configs,
		locator:    opts.Locator,
		out:        opts.Out,
		animate:    opts.Animate,
		log:        opts.Log,
		run:        execStreamRunner,
		contextDir: embedded.BuildContextDir(),
	}
}

// Build builds klotho-<agent>:latest and returns the image name.
func (b *Builder) Build(ctx context.Context, agentID string, noCache bool) (string, error) {
	layer, err := b.configs.BaseLayer(agentID)
	if err != nil {
		return "", err
	}
	cfg, err := agent.FromMap(layer)
	if err != nil {
		return "", fmt.Errorf("invalid config for agent %q: %w", agentID, err)
	}

	buildContext, err := b.buildContext()
	if err != nil {
		return "", err
	}

	containerfile := filepath.Join(buildContext, embedded.ContainerfileName)
	content, err := os.ReadFile(containerfile)
	if err != nil {
		return "", fmt.Errorf("failed to read Containerfile: %w", err)
	}
	stages := FindStages(string(content))
	if !HasStage(stages, agentID) {
		return "", fmt.Errorf("%w: Containerfile does not contain stage '%s'\nAvailable stages: %s",
			ErrStageNotFound, agentID, strings.Join(stages, ", "))
	}

	image := container.ImageRef(agentID)
	args := buildArgs(image, agentID, cfg, containerfile, buildContext, noCache)
	b.log.Debug("building image", "engine", b.engine, "args", args)

	p := newProgress(b.out, b.animate, fmt.Sprintf("Building %s agent...", agentID))
	stderr := newLineWriter(tailLines, func(line string) {
		if step, ok := ExtractStepInfo(line); ok {
			p.set(fmt.Sprintf("Building %s: %s", agentID, step))
			b.log.Debug("build step", "agent", agentID, "step", step)
		}
	})

	p.start()
	err = b.run(ctx, string(b.engine), args, stderr)
	stderr.flush()
	p.stop()

	if err != nil {
		return "", fmt.Errorf("build failed for agent %s: %w\n%s",
			agentID, err, strings.Join(stderr.lastLines(), "\n"))
	}

	fmt.Fprintf(b.out, "%s Built %s → %s\n", successMark, boldStyle.Render(agentID), imageStyle.Render(image))
	return image, nil
}

// buildContext returns the repository root when running from a checkout,
// otherwise a freshly extracted copy of the embedded resources.
func (b *Builder) buildContext() (string, error) {
	if root, ok := b.locator.FindRoot(); ok {
		b.log.Debug("using repository build context", "dir", root)
		return root, nil
	}
	if err := embedded.ExtractBuildContext(b.contextDir); err != nil {
		return "", err
	}
	b.log.Debug("using embedded build context", "dir", b.contextDir)
	return b.contextDir, nil
}

func buildArgs(image, agentID string, cfg agent.Config, containerfile, buildContext string, noCache bool) []string {
	args := []string{
		"build",
		"-t", image,
		"--target", agentID,
		"--build-arg", "AGENT_NAME=" + cfg.Name,
		"--build-arg", "AGENT_INSTALL_CMD=" + cfg.InstallCmd,
		"--build-arg", "AGENT_SHELL=" + cfg.Shell,
		"--build-arg", "AGENT_LAUNCH_CMD=" + cfg.LaunchCmd,
		"-f", containerfile,
	}
	if noCache {
		args = append(args, "--no-cache")
	}
	return append(args, buildContext)
}
