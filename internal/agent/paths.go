package agent

import (
	"path/filepath"

	"github.com/jeanhaley32/klotho/internal/platform"
)

const (
	configDirName       = "klotho"
	legacyConfigDirName = "agent-session"
	configFileName      = "config.conf"
	agentsDirName       = "agents"
)

// XDGConfigHome returns $XDG_CONFIG_HOME, falling back to $HOME/.config and
// finally to a relative .config.
func XDGConfigHome(env platform.Environment) string {
	if xdg, ok := env.LookupEnv("XDG_CONFIG_HOME"); ok && xdg != "" {
		return xdg
	}
	if home, ok := env.LookupEnv("HOME"); ok && home != "" {
		return filepath.Join(home, ".config")
	}
	return ".config"
}

// ConfigHome applies the user config directory priority rules.
// Priority:
// 1. <xdg>/klotho - if exists, use it
// 2. <xdg>/agent-session - legacy, reported via usedLegacy
// 3. <xdg>/klotho - default for new installations
func ConfigHome(env platform.Environment) (dir string, usedLegacy bool) {
	base := XDGConfigHome(env)
	current := filepath.Join(base, configDirName)
	legacy := filepath.Join(base, legacyConfigDirName)

	if env.Exists(current) {
		return current, false
	}
	if env.Exists(legacy) {
		return legacy, true
	}
	return current, false
}

// UserConfigPath returns the override file for an agent inside a config home.
// Returns: <home>/agents/<agent>/config.conf
func UserConfigPath(configHome, agentID string) string {
	return filepath.Join(configHome, agentsDirName, agentID, configFileName)
}
