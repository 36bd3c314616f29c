package session

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jeanhaley32/klotho/internal/container"
	"github.com/jeanhaley32/klotho/internal/platform"
)

// Environment variables that add mounts to new sessions.
const (
	// LinkedDirsEnv lists colon-separated host directories mounted at the
	// same path inside the container, so symlinks into them resolve.
	LinkedDirsEnv = "KLOTHO_LINKED_DIRS"
	// ExtraMountsEnv lists comma-separated raw -v specifications.
	ExtraMountsEnv = "KLOTHO_MOUNTS"
)

const (
	workspaceMount = "/workspace"
	containerHome  = "/home/agent"
	// selinuxRelabel lets the container read and write bind mounts on SELinux hosts.
	selinuxRelabel = "Z"
)

// credentialMounts are host paths under $HOME shared with every session when
// they exist, keyed by host-relative path to container path.
var credentialMounts = []struct {
	hostRel   string
	container string
}{
	{".claude", containerHome + "/.claude"},
	{".config/opencode", containerHome + "/.config/opencode"},
	{".config/zellij", containerHome + "/.config/zellij"},
	{".claude.json", containerHome + "/.claude.json"},
}

// MountSpec describes what a new session should see.
type MountSpec struct {
	// Paths are project directories; empty means the current directory.
	Paths []string
	// LinkedDirs are merged with KLOTHO_LINKED_DIRS.
	LinkedDirs []string
}

// MountPlan is the resolved set of mounts for a new container.
type MountPlan struct {
	Workdir    string
	Mounts     []container.Mount
	RawVolumes []string
}

// PlanMounts resolves a MountSpec against the host.
//
// One project path is mounted at /workspace; several are mounted at
// /workspace1..N and the first becomes the working directory. Linked
// directories are mounted at their own canonical path. Missing linked
// directories and credential paths are skipped.
func PlanMounts(env platform.Environment, ms MountSpec, log *slog.Logger) (MountPlan, error) {
	var plan MountPlan

	paths, err := resolvePaths(env, ms.Paths)
	if err != nil {
		return MountPlan{}, err
	}
	for i, p := range paths {
		target := workspaceMount
		if len(paths) > 1 {
			target = fmt.Sprintf("%s%d", workspaceMount, i+1)
		}
		if i == 0 {
			plan.Workdir = target
		}
		plan.Mounts = append(plan.Mounts, container.Mount{Source: p, Target: target, Options: selinuxRelabel})
	}

	for _, dir := range linkedDirs(env, ms.LinkedDirs) {
		if !env.Exists(dir) {
			log.Warn("linked directory does not exist, skipping", "dir", dir)
			continue
		}
		canonical, err := env.Canonicalize(dir)
		if err != nil {
			return MountPlan{}, fmt.Errorf("failed to resolve linked directory %s: %w", dir, err)
		}
		plan.Mounts = append(plan.Mounts, container.Mount{Source: canonical, Target: canonical, Options: selinuxRelabel})
	}

	plan.RawVolumes = splitList(env.Getenv(ExtraMountsEnv), ",")

	home := env.Getenv("HOME")
	if home == "" {
		home = containerHome
	}
	for _, cm := range credentialMounts {
		src := filepath.Join(home, cm.hostRel)
		if env.Exists(src) {
			plan.Mounts = append(plan.Mounts, container.Mount{Source: src, Target: cm.container, Options: selinuxRelabel})
		}
	}

	return plan, nil
}

// resolvePaths canonicalizes project paths, defaulting to the working directory.
func resolvePaths(env platform.Environment, paths []string) ([]string, error) {
	if len(paths) == 0 {
		cwd, err := env.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		return []string{cwd}, nil
	}

	resolved := make([]string, 0, len(paths))
	for _, p := range paths {
		canonical, err := env.Canonicalize(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve project path %s: %w", p, err)
		}
		resolved = append(resolved, canonical)
	}
	return resolved, nil
}

// linkedDirs merges the environment list with flags, sorted and deduplicated.
func linkedDirs(env platform.Environment, flags []string) []string {
	dirs := splitList(env.Getenv(LinkedDirsEnv), ":")
	for _, d := range flags {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	sort.Strings(dirs)

	unique := dirs[:0]
	for i, d := range dirs {
		if i == 0 || d != dirs[i-1] {
			unique = append(unique, d)
		}
	}
	return unique
}

func splitList(value, sep string) []string {
	var items []string
	for _, item := range strings.Split(value, sep) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
