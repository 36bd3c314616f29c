package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_Basic(t *testing.T) {
	content := `
# Comment
AGENT_NAME="claude"
AGENT_DESCRIPTION="Anthropic Claude Code agent"
AGENT_SHELL="/usr/bin/fish"
`
	config, err := ParseConfig(content)
	require.NoError(t, err)
	assert.Equal(t, "claude", config["AGENT_NAME"])
	assert.Equal(t, "Anthropic Claude Code agent", config["AGENT_DESCRIPTION"])
	assert.Equal(t, "/usr/bin/fish", config["AGENT_SHELL"])
	assert.Len(t, config, 3)
}

func TestParseConfig_RejectsCommandSubstitution(t *testing.T) {
	content := "AGENT_NAME=\"claude\"\nAGENT_SHELL=\"$(whoami)\""

	config, err := ParseConfig(content)
	require.Error(t, err)
	assert.Nil(t, config)
	assert.ErrorIs(t, err, ErrSecurityViolation)
	assert.Contains(t, err.Error(), "command substitution")
}

func TestParseConfig_RejectsBackticks(t *testing.T) {
	content := "AGENT_NAME=\"test\"\nAGENT_SHELL=\"`whoami`\"\n"

	_, err := ParseConfig(content)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSecurityViolation)
	assert.Contains(t, err.Error(), "command substitution")
}

func TestParseConfig_RejectsSubstitutionAnywhereOnLine(t *testing.T) {
	inputs := []string{
		"AGENT_NAME=claude\nAGENT_DESCRIPTION=ok\nFOO=bar $(id) baz",
		"$(rm -rf /)",
		"no equals sign but `backtick`",
		"KEY='single $( quoted'",
		"   AGENT_SHELL = /bin/sh`",
	}
	for _, input := range inputs {
		_, err := ParseConfig(input)
		assert.ErrorIs(t, err, ErrSecurityViolation, "input %q", input)
	}
}

func TestParseConfig_CommentsMaySubstitute(t *testing.T) {
	content := "# run $(whoami) to find out\n  # `id` too\nAGENT_NAME=claude"

	config, err := ParseConfig(content)
	require.NoError(t, err)
	assert.Equal(t, "claude", config["AGENT_NAME"])
}

func TestParseConfig_VariableExpansionAllowed(t *testing.T) {
	content := `AGENT_ENV_VARS="PATH=/home/agent/.local/bin:$PATH SHELL=/usr/bin/fish"`

	config, err := ParseConfig(content)
	require.NoError(t, err)
	assert.Equal(t, "PATH=/home/agent/.local/bin:$PATH SHELL=/usr/bin/fish", config["AGENT_ENV_VARS"])

	config, err = ParseConfig(`AGENT_ENV_VARS="PATH=/x:$PATH"`)
	require.NoError(t, err)
	assert.Equal(t, "PATH=/x:$PATH", config["AGENT_ENV_VARS"])

	config, err = ParseConfig(`HOME_DIR=${HOME}/work`)
	require.NoError(t, err)
	assert.Equal(t, "${HOME}/work", config["HOME_DIR"])
}

func TestParseConfig_Quoting(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`K="value"`, "value"},
		{`K='value'`, "value"},
		{`K=value`, "value"},
		{`K=""`, ""},
		{`K="say 'hi'"`, "say 'hi'"},
		{`K='say "hi"'`, `say "hi"`},
		{`K=""nested""`, `"nested"`},
		{`K="mismatched'`, `"mismatched'`},
		{`K="`, `"`},
		{`K=  "padded"  `, "padded"},
		{`K="a=b=c"`, "a=b=c"},
		{`K="back\"slash"`, `back\"slash`},
	}
	for _, tt := range tests {
		config, err := ParseConfig(tt.line)
		require.NoError(t, err, tt.line)
		assert.Equal(t, tt.want, config["K"], tt.line)
	}
}

func TestParseConfig_SplitsOnFirstEquals(t *testing.T) {
	config, err := ParseConfig("  AGENT_ENV_VARS  =  A=1 B=2  ")
	require.NoError(t, err)
	assert.Equal(t, "A=1 B=2", config["AGENT_ENV_VARS"])
}

func TestParseConfig_IgnoresLinesWithoutEquals(t *testing.T) {
	config, err := ParseConfig("just some text\n\n\t\nAGENT_NAME=claude\nexport")
	require.NoError(t, err)
	assert.Equal(t, ConfigMap{"AGENT_NAME": "claude"}, config)
}

func TestParseConfig_LastValueWins(t *testing.T) {
	config, err := ParseConfig("AGENT_NAME=first\nAGENT_NAME=\"second\"")
	require.NoError(t, err)
	assert.Equal(t, "second", config["AGENT_NAME"])
}

func TestParseConfig_CRLF(t *testing.T) {
	config, err := ParseConfig("AGENT_NAME=\"claude\"\r\nAGENT_SHELL=/bin/bash\r\n")
	require.NoError(t, err)
	assert.Equal(t, "claude", config["AGENT_NAME"])
	assert.Equal(t, "/bin/bash", config["AGENT_SHELL"])
}

func TestFromMap_MissingField(t *testing.T) {
	m := ConfigMap{
		KeyName:        "claude",
		KeyDescription: "desc",
		KeyInstallCmd:  "install",
		KeyLaunchCmd:   "claude",
	}
	_, err := FromMap(m)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), KeyShell)
}

func TestFromMap_EnvVarsDefaultsEmpty(t *testing.T) {
	cfg, err := FromMap(ConfigMap{
		KeyName:        "claude",
		KeyDescription: "desc",
		KeyInstallCmd:  "install",
		KeyLaunchCmd:   "claude",
		KeyShell:       "/usr/bin/fish",
	})
	require.NoError(t, err)
	assert.Equal(t, Config{
		Name:        "claude",
		Description: "desc",
		InstallCmd:  "install",
		LaunchCmd:   "claude",
		Shell:       "/usr/bin/fish",
	}, cfg)
}

func TestMerge_LaterLayerWins(t *testing.T) {
	base := ConfigMap{"A": "base", "B": "base"}
	user := ConfigMap{"B": "user", "C": "user"}

	merged := Merge(base, user)
	assert.Equal(t, ConfigMap{"A": "base", "B": "user", "C": "user"}, merged)
	assert.Equal(t, "base", base["B"], "base layer must not be mutated")
}
