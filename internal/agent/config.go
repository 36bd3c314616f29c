// Package agent loads per-agent runtime configuration.
//
// Agent configs are shell-sourceable KEY=value files. They are parsed here
// rather than sourced so that a config can never run commands on the host:
// command substitution is rejected, plain variable references ($VAR, ${VAR})
// are kept verbatim for the shell inside the container to expand.
package agent

import (
	"fmt"
	"strings"
)

// Config keys recognised in config.conf files.
const (
	KeyName        = "AGENT_NAME"
	KeyDescription = "AGENT_DESCRIPTION"
	KeyInstallCmd  = "AGENT_INSTALL_CMD"
	KeyLaunchCmd   = "AGENT_LAUNCH_CMD"
	KeyShell       = "AGENT_SHELL"
	KeyEnvVars     = "AGENT_ENV_VARS"
)

// requiredKeys must be present and non-empty after all layers are merged.
var requiredKeys = []string{KeyName, KeyDescription, KeyInstallCmd, KeyLaunchCmd, KeyShell}

// ConfigMap is a parsed config layer.
type ConfigMap map[string]string

// Config is the resolved configuration for one agent.
type Config struct {
	Name        string
	Description string
	InstallCmd  string
	LaunchCmd   string
	Shell       string
	// EnvVars holds space-separated KEY=value pairs.
	EnvVars string
}

// ParseConfig parses KEY=value text.
//
// Blank lines and # comments are skipped. A line containing "$(" or a
// backtick fails the whole parse with ErrSecurityViolation. Values wrapped in
// one matching pair of double or single quotes have that pair removed; no
// escapes are processed. Lines without "=" are ignored.
func ParseConfig(content string) (ConfigMap, error) {
	config := ConfigMap{}

	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.Contains(line, "$(") || strings.Contains(line, "`") {
			return nil, fmt.Errorf("%w: line %d contains command substitution ($() or backticks)\n"+
				"config files may only contain KEY=value pairs and variable expansion ($VAR)",
				ErrSecurityViolation, i+1)
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		config[strings.TrimSpace(key)] = unquote(strings.TrimSpace(value))
	}

	return config, nil
}

// unquote strips exactly one outer pair of matching quotes.
func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	first, last := value[0], value[len(value)-1]
	if (first == '"' || first == '\'') && first == last {
		return value[1 : len(value)-1]
	}
	return value
}

// FromMap builds a Config from a merged ConfigMap.
// Returns ErrMissingField naming the first required key that is absent or empty.
func FromMap(m ConfigMap) (Config, error) {
	for _, key := range requiredKeys {
		if m[key] == "" {
			return Config{}, fmt.Errorf("%w: %s", ErrMissingField, key)
		}
	}

	return Config{
		Name:        m[KeyName],
		Description: m[KeyDescription],
		InstallCmd:  m[KeyInstallCmd],
		LaunchCmd:   m[KeyLaunchCmd],
		Shell:       m[KeyShell],
		EnvVars:     m[KeyEnvVars],
	}, nil
}

// Merge overlays layers in order; later layers win key by key.
func Merge(layers ...ConfigMap) ConfigMap {
	merged := ConfigMap{}
	for _, layer := range layers {
		for k, v := range layer {
			merged[k] = v
		}
	}
	return merged
}
