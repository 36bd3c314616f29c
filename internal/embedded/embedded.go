// Package embedded carries the image build resources inside the binary so
// that klotho works when installed without a repository checkout.
package embedded

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/jeanhaley32/klotho/internal/constants"
)

//go:embed resources
var resources embed.FS

const (
	resourcesRoot = "resources"
	// ContainerfileName is the build file at the root of a build context.
	ContainerfileName = "Containerfile"
	entrypointName    = "entrypoint.sh"
	// AgentsDir is where agent configs live relative to a build context.
	AgentsDir = "config/agents"
	// BuildContextDirName is created under the system temp directory.
	BuildContextDirName = "klotho-build"
)

// Agents returns the embedded agents tree, rooted so that
// "<agent>/config.conf" names an agent's default config.
func Agents() fs.FS {
	sub, err := fs.Sub(resources, path.Join(resourcesRoot, "agents"))
	if err != nil {
		// fs.Sub only fails on an invalid path, which is a constant here.
		panic(err)
	}
	return sub
}

// Containerfile returns the embedded Containerfile.
func Containerfile() []byte {
	data, err := resources.ReadFile(path.Join(resourcesRoot, ContainerfileName))
	if err != nil {
		panic(err)
	}
	return data
}

// BuildContextDir returns the directory ExtractBuildContext writes to by default.
func BuildContextDir() string {
	return filepath.Join(os.TempDir(), BuildContextDirName)
}

// ExtractBuildContext writes the embedded resources to dir, laid out like a
// repository checkout: Containerfile and entrypoint.sh at the root and agent
// configs under config/agents. Any previous content of dir is removed.
func ExtractBuildContext(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to clean build context %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return fmt.Errorf("failed to create build context %s: %w", dir, err)
	}

	if err := os.WriteFile(filepath.Join(dir, ContainerfileName), Containerfile(), constants.FilePermissions); err != nil {
		return fmt.Errorf("failed to write Containerfile: %w", err)
	}

	entrypoint, err := resources.ReadFile(path.Join(resourcesRoot, entrypointName))
	if err != nil {
		return fmt.Errorf("failed to read embedded %s: %w", entrypointName, err)
	}
	if err := os.WriteFile(filepath.Join(dir, entrypointName), entrypoint, constants.ScriptPermissions); err != nil {
		return fmt.Errorf("failed to write %s: %w", entrypointName, err)
	}

	agentsDir := filepath.Join(dir, filepath.FromSlash(AgentsDir))
	return fs.WalkDir(Agents(), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(agentsDir, filepath.FromSlash(p))
		if d.IsDir() {
			if err := os.MkdirAll(target, constants.DirPermissions); err != nil {
				return fmt.Errorf("failed to create %s: %w", target, err)
			}
			return nil
		}
		data, err := fs.ReadFile(Agents(), p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, constants.FilePermissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
		return nil
	})
}
