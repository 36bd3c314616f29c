package container

import (
	"fmt"
	"log/slog"

	"github.com/jeanhaley32/klotho/internal/platform"
)

// Engine is a container engine CLI.
type Engine string

const (
	Podman Engine = "podman"
	Docker Engine = "docker"
)

// Auto is the --runtime value that requests detection.
const Auto = "auto"

// String returns the engine's executable name.
func (e Engine) String() string {
	return string(e)
}

// DetectEngine picks the container engine for this invocation.
// Priority:
// 1. override, if it names an engine - it must be installed
// 2. podman, if installed
// 3. docker, if installed (with a warning)
func DetectEngine(env platform.Environment, override string, log *slog.Logger) (Engine, error) {
	switch override {
	case "", Auto:
		// detect below
	case string(Podman):
		if !env.ProbeExecutable(string(Podman)) {
			return "", unavailable(Podman)
		}
		return Podman, nil
	case string(Docker):
		if !env.ProbeExecutable(string(Docker)) {
			return "", unavailable(Docker)
		}
		log.Warn("using Docker (Podman is recommended for better rootless support)")
		return Docker, nil
	default:
		return "", fmt.Errorf("%w '%s' - must be 'auto', 'podman', or 'docker'", ErrInvalidRuntime, override)
	}

	if env.ProbeExecutable(string(Podman)) {
		return Podman, nil
	}
	if env.ProbeExecutable(string(Docker)) {
		log.Warn("using Docker (Podman not found)",
			"hint", "for better rootless support, install Podman: https://podman.io/getting-started/installation")
		return Docker, nil
	}

	return "", fmt.Errorf("%w: no container runtime found\ninstall Podman (recommended) or Docker to use klotho", ErrRuntimeUnavailable)
}

func unavailable(e Engine) error {
	return fmt.Errorf("%w: %s not found - install it or use --runtime to specify a different runtime", ErrRuntimeUnavailable, e)
}
