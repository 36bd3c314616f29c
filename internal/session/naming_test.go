package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Naming = SchemeNaming{}

func TestEncode_CurrentScheme(t *testing.T) {
	assert.Equal(t, "klotho-session-claude-default", NewNaming().Encode("claude", "default"))
	assert.Equal(t, "opencode-default", SchemeLegacy.Encode("opencode", "default"))
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	n := NewNaming()
	cases := []struct{ agent, session string }{
		{"claude", "default"},
		{"opencode", "work"},
		{"my-agent", "infinite-worlds"},
		{"a", "b"},
	}
	for _, c := range cases {
		name := n.Encode(c.agent, c.session)
		agent, err := n.Decode(name, c.session)
		require.NoError(t, err, name)
		assert.Equal(t, c.agent, agent, name)
	}
}

func TestDecode_LegacyFallback(t *testing.T) {
	agent, err := NewNaming().Decode("opencode-default", "default")
	require.NoError(t, err)
	assert.Equal(t, "opencode", agent)
}

func TestDecode_Fails(t *testing.T) {
	n := NewNaming()
	for _, name := range []string{"default", "opencode-other", "-default"} {
		_, err := n.Decode(name, "default")
		assert.ErrorIs(t, err, ErrUndecodableName, name)
	}
}

func TestDecode_CurrentPrefixWithoutAgentFallsBackToLegacy(t *testing.T) {
	agent, err := NewNaming().Decode("klotho-session-default", "default")
	require.NoError(t, err)
	assert.Equal(t, "klotho-session", agent)
}

func TestFindBySessionName_BothSchemes(t *testing.T) {
	n := NewNaming()

	name, ok := n.FindBySessionName([]string{"opencode-default", "klotho-session-claude-default"}, "default")
	require.True(t, ok)
	assert.Equal(t, "klotho-session-claude-default", name, "current scheme preferred")

	name, ok = n.FindBySessionName([]string{"klotho-session-claude-default", "opencode-default"}, "default")
	require.True(t, ok)
	assert.Equal(t, "klotho-session-claude-default", name)
}

func TestFindBySessionName_LegacyOnly(t *testing.T) {
	name, ok := NewNaming().FindBySessionName([]string{"postgres", "opencode-default"}, "default")
	require.True(t, ok)
	assert.Equal(t, "opencode-default", name)
}

func TestFindBySessionName_FirstMatchWins(t *testing.T) {
	names := []string{"klotho-session-claude-work", "klotho-session-opencode-work"}
	name, ok := NewNaming().FindBySessionName(names, "work")
	require.True(t, ok)
	assert.Equal(t, "klotho-session-claude-work", name)
}

func TestFindBySessionName_SuffixAmbiguity(t *testing.T) {
	// "b" is a suffix of session "a-b"; the listing order decides.
	name, ok := NewNaming().FindBySessionName([]string{"klotho-session-claude-a-b"}, "b")
	require.True(t, ok)
	assert.Equal(t, "klotho-session-claude-a-b", name)
}

func TestFindBySessionName_NoMatch(t *testing.T) {
	n := NewNaming()
	_, ok := n.FindBySessionName([]string{"klotho-session-claude-work", "default"}, "default")
	assert.False(t, ok)

	_, ok = n.FindBySessionName(nil, "default")
	assert.False(t, ok)
}

func TestDisplayInfo(t *testing.T) {
	tests := []struct {
		container   string
		wantSession string
		wantAgent   string
	}{
		{"klotho-session-claude-default", "default", "claude"},
		// The last hyphen decides, even when the session name has one.
		{"klotho-session-opencode-infinite-worlds", "worlds", "opencode-infinite"},
		{"opencode-default", "default", "opencode"},
		{"my-agent-work", "work", "my-agent"},
		{"standalone", "standalone", "unknown"},
	}
	n := NewNaming()
	for _, tt := range tests {
		session, agent := n.DisplayInfo(tt.container)
		assert.Equal(t, tt.wantSession, session, tt.container)
		assert.Equal(t, tt.wantAgent, agent, tt.container)
	}
}

func TestIsSessionContainer(t *testing.T) {
	n := NewNaming()
	assert.True(t, n.IsSessionContainer("klotho-session-claude-default"))
	assert.True(t, n.IsSessionContainer("opencode-default"))
	assert.False(t, n.IsSessionContainer("postgres"))
}

func TestScheme_String(t *testing.T) {
	assert.Equal(t, "current", SchemeCurrent.String())
	assert.Equal(t, "legacy", SchemeLegacy.String())
	assert.Equal(t, "Scheme(7)", Scheme(7).String())
}
