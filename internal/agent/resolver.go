package agent

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/jeanhaley32/klotho/internal/platform"
)

// Resolver layers a base config tree and the user's XDG overrides.
type Resolver struct {
	base fs.FS
	env  platform.Environment
}

// NewResolver creates a Resolver. base is rooted at the agents directory, so
// that "<agent>/config.conf" names an agent's default config; it is either the
// repository's config/agents tree or the embedded copy.
func NewResolver(base fs.FS, env platform.Environment) *Resolver {
	return &Resolver{base: base, env: env}
}

// Resolve loads the base config for agentID, overlays the user config if one
// exists and validates the result. usedLegacyPath reports that the user
// config directory was the deprecated agent-session one.
func (r *Resolver) Resolve(agentID string) (cfg Config, usedLegacyPath bool, err error) {
	baseLayer, err := r.BaseLayer(agentID)
	if err != nil {
		return Config{}, false, err
	}

	configHome, usedLegacyPath := ConfigHome(r.env)
	userPath := UserConfigPath(configHome, agentID)

	merged := baseLayer
	if r.env.Exists(userPath) {
		content, err := r.env.ReadFile(userPath)
		if err != nil {
			return Config{}, usedLegacyPath, fmt.Errorf("failed to read user config %s: %w", userPath, err)
		}
		userLayer, err := ParseConfig(string(content))
		if err != nil {
			return Config{}, usedLegacyPath, fmt.Errorf("failed to parse user config %s: %w", userPath, err)
		}
		merged = Merge(baseLayer, userLayer)
	}

	cfg, err = FromMap(merged)
	if err != nil {
		return Config{}, usedLegacyPath, fmt.Errorf("invalid config for agent %q: %w", agentID, err)
	}
	return cfg, usedLegacyPath, nil
}

// BaseLayer parses the default config for agentID without user overrides.
func (r *Resolver) BaseLayer(agentID string) (ConfigMap, error) {
	if !fs.ValidPath(agentID) || path.Base(agentID) != agentID {
		return nil, r.notFound(agentID)
	}

	content, err := fs.ReadFile(r.base, path.Join(agentID, configFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, r.notFound(agentID)
		}
		return nil, fmt.Errorf("failed to read default config for %q: %w", agentID, err)
	}

	layer, err := ParseConfig(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse default config for %q: %w", agentID, err)
	}
	return layer, nil
}

// Agents returns the sorted ids of every agent with a directory in the base tree.
func (r *Resolver) Agents() ([]string, error) {
	entries, err := fs.ReadDir(r.base, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read agent configs: %w", err)
	}

	var agents []string
	for _, entry := range entries {
		if entry.IsDir() {
			agents = append(agents, entry.Name())
		}
	}
	sort.Strings(agents)
	return agents, nil
}

func (r *Resolver) notFound(agentID string) error {
	available, _ := r.Agents()
	return &NotFoundError{Agent: agentID, Available: available}
}
