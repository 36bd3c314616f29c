package container

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanhaley32/klotho/internal/platform/platformtest"
)

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

func TestDetectEngine_PrefersPodman(t *testing.T) {
	env := platformtest.New()
	env.Executables["podman"] = true
	env.Executables["docker"] = true

	var logs bytes.Buffer
	engine, err := DetectEngine(env, "", testLogger(&logs))
	require.NoError(t, err)
	assert.Equal(t, Podman, engine)
	assert.Empty(t, logs.String())
}

func TestDetectEngine_FallsBackToDocker(t *testing.T) {
	env := platformtest.New()
	env.Executables["docker"] = true

	var logs bytes.Buffer
	engine, err := DetectEngine(env, Auto, testLogger(&logs))
	require.NoError(t, err)
	assert.Equal(t, Docker, engine)
	assert.Contains(t, logs.String(), "Podman not found")
}

func TestDetectEngine_NoneAvailable(t *testing.T) {
	var logs bytes.Buffer
	_, err := DetectEngine(platformtest.New(), "auto", testLogger(&logs))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRuntimeUnavailable)
	assert.Contains(t, err.Error(), "install Podman (recommended) or Docker")
}

func TestDetectEngine_Forced(t *testing.T) {
	env := platformtest.New()
	env.Executables["podman"] = true
	env.Executables["docker"] = true

	var logs bytes.Buffer
	engine, err := DetectEngine(env, "docker", testLogger(&logs))
	require.NoError(t, err)
	assert.Equal(t, Docker, engine)
	assert.Contains(t, logs.String(), "Podman is recommended")

	engine, err = DetectEngine(env, "podman", testLogger(&logs))
	require.NoError(t, err)
	assert.Equal(t, Podman, engine)
}

func TestDetectEngine_ForcedMissing(t *testing.T) {
	env := platformtest.New()
	env.Executables["docker"] = true

	var logs bytes.Buffer
	_, err := DetectEngine(env, "podman", testLogger(&logs))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRuntimeUnavailable)
	assert.Contains(t, err.Error(), "podman not found")
}

func TestDetectEngine_Invalid(t *testing.T) {
	var logs bytes.Buffer
	_, err := DetectEngine(platformtest.New(), "invalid", testLogger(&logs))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRuntime)
	assert.Contains(t, err.Error(), "invalid runtime")
}
