package repo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeanhaley32/klotho/internal/platform/platformtest"
)

func newTestLocator(env *platformtest.Env, exe string, gitRoot string) *DefaultLocator {
	l := NewLocator(env)
	l.executable = func() (string, error) { return exe, nil }
	l.gitRoot = func(string) (string, error) {
		if gitRoot == "" {
			return "", errors.New("not a git repository")
		}
		return gitRoot, nil
	}
	return l
}

func TestSearchPaths(t *testing.T) {
	env := platformtest.New()
	env.Cwd = "/home/u/src/klotho/sub"
	env.Links["/usr/local/bin/klotho"] = "/opt/klotho/bin/klotho"

	l := newTestLocator(env, "/usr/local/bin/klotho", "/home/u/src/klotho")
	assert.Equal(t, []string{
		"/opt/klotho/bin",
		"/opt/klotho",
		"/opt",
		"/home/u/src/klotho/sub",
		"/home/u/src/klotho",
	}, l.SearchPaths())
}

func TestFindRoot_NextToExecutable(t *testing.T) {
	env := platformtest.New()
	env.Dirs["/opt/klotho/config/agents/claude"] = true
	env.Links["/opt/klotho/bin/klotho"] = "/opt/klotho/bin/klotho"

	root, ok := newTestLocator(env, "/opt/klotho/bin/klotho", "").FindRoot()
	assert.True(t, ok)
	assert.Equal(t, "/opt/klotho", root)
}

func TestFindRoot_GitRoot(t *testing.T) {
	env := platformtest.New()
	env.Cwd = "/src/klotho/internal"
	env.Dirs["/src/klotho/config/agents"] = true

	root, ok := newTestLocator(env, "/usr/bin/klotho", "/src/klotho").FindRoot()
	assert.True(t, ok)
	assert.Equal(t, "/src/klotho", root)
}

func TestFindRoot_NotInCheckout(t *testing.T) {
	_, ok := newTestLocator(platformtest.New(), "/usr/bin/klotho", "").FindRoot()
	assert.False(t, ok)
}
