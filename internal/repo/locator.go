package repo

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jeanhaley32/klotho/internal/platform"
)

// AgentsDir is the agent config tree relative to a repository root.
const AgentsDir = "config/agents"

// DefaultLocator implements Locator using the executable path, the working
// directory and git.
type DefaultLocator struct {
	env platform.Environment
	// executable returns the running binary's path.
	executable func() (string, error)
	// gitRoot returns the git toplevel for a directory.
	gitRoot func(dir string) (string, error)
}

// NewLocator creates a new repository locator.
func NewLocator(env platform.Environment) *DefaultLocator {
	return &DefaultLocator{
		env:        env,
		executable: os.Executable,
		gitRoot:    gitToplevel,
	}
}

// SearchPaths lists candidate repository roots in priority order: the
// executable's directory, its parent and grandparent (covering bin/ and
// build output directories), the working directory and its git root.
func (l *DefaultLocator) SearchPaths() []string {
	var paths []string

	if exe, err := l.executable(); err == nil {
		if resolved, err := l.env.Canonicalize(exe); err == nil {
			exe = resolved
		}
		dir := filepath.Dir(exe)
		paths = append(paths, dir, filepath.Dir(dir), filepath.Dir(filepath.Dir(dir)))
	}

	if cwd, err := l.env.Getwd(); err == nil {
		paths = append(paths, cwd)
		if root, err := l.gitRoot(cwd); err == nil {
			paths = append(paths, root)
		}
	}
	return paths
}

func (l *DefaultLocator) FindRoot() (string, bool) {
	for _, base := range l.SearchPaths() {
		if l.env.Exists(filepath.Join(base, filepath.FromSlash(AgentsDir))) {
			return base, true
		}
	}
	return "", false
}

func gitToplevel(dir string) (string, error) {
	cmd := exec.Command("git", "-C", dir, "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}
