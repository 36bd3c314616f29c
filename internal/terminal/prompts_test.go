package terminal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPrompter(input string) (*Prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return NewPrompter(strings.NewReader(input), &out, true), &out
}

func TestChoose(t *testing.T) {
	p, out := newTestPrompter("7\nx\n2\n")

	choice, err := p.Choose("Select agent", []string{"claude", "opencode"}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, choice)
	assert.Contains(t, out.String(), "  1. claude\n  2. opencode\n")
	assert.Equal(t, 2, strings.Count(out.String(), "Please enter a number between 1 and 2"))
}

func TestChoose_Default(t *testing.T) {
	p, _ := newTestPrompter("\n")

	choice, err := p.Choose("Select agent", []string{"claude", "opencode"}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, choice)
}

func TestChoose_EOF(t *testing.T) {
	p, _ := newTestPrompter("")

	_, err := p.Choose("Select agent", []string{"claude"}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read input")
}

func TestChooseMany(t *testing.T) {
	p, out := newTestPrompter("5\n3, 1 3\n")

	selected, err := p.ChooseMany("Select agents", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, selected)
	assert.Contains(t, out.String(), "Please enter numbers between 1 and 3")
}

func TestChooseMany_All(t *testing.T) {
	p, _ := newTestPrompter("ALL\n")

	selected, err := p.ChooseMany("Select agents", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, selected)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input      string
		defaultYes bool
		want       bool
	}{
		{"y\n", false, true},
		{"YES\n", false, true},
		{"n\n", true, false},
		{"\n", false, false},
		{"\n", true, true},
		{"maybe\ny\n", false, true},
		{"y", false, true},
	}
	for _, tt := range tests {
		p, _ := newTestPrompter(tt.input)
		got, err := p.Confirm("Remove session 'default'?", tt.defaultYes)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestConfirm_PromptHint(t *testing.T) {
	p, out := newTestPrompter("\n")
	_, err := p.Confirm("Build now?", false)
	require.NoError(t, err)
	assert.Equal(t, "Build now? [y/N] ", out.String())
}

func TestNonInteractiveReturnsDefaults(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("y\n"), &out, false)

	ok, err := p.Confirm("Build now?", false)
	require.NoError(t, err)
	assert.False(t, ok)

	choice, err := p.Choose("Select agent", []string{"a", "b"}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, choice)

	selected, err := p.ChooseMany("Select agents", []string{"a", "b"})
	require.NoError(t, err)
	assert.Empty(t, selected)
	assert.Empty(t, out.String())
}
