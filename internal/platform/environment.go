package platform

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// probeTimeout bounds a single "<binary> --version" probe.
const probeTimeout = 10 * time.Second

// Environment is the view of the host that config resolution, runtime
// detection and mount assembly depend on. Production code uses OSEnvironment;
// tests substitute a fake so nothing touches the real process environment.
type Environment interface {
	// Getenv returns the value of an environment variable, or "" if unset.
	Getenv(key string) string

	// LookupEnv reports whether the variable is set, and its value.
	LookupEnv(key string) (string, bool)

	// Exists reports whether a path exists.
	Exists(path string) bool

	// ReadFile returns the contents of a file.
	ReadFile(path string) ([]byte, error)

	// Getwd returns the current working directory.
	Getwd() (string, error)

	// Canonicalize returns the absolute path with symlinks resolved.
	Canonicalize(path string) (string, error)

	// ProbeExecutable reports whether the named binary is on PATH and runs.
	ProbeExecutable(name string) bool
}

// OSEnvironment implements Environment against the real host.
type OSEnvironment struct{}

// NewOSEnvironment creates an Environment backed by the operating system.
func NewOSEnvironment() *OSEnvironment {
	return &OSEnvironment{}
}

func (OSEnvironment) Getenv(key string) string {
	return os.Getenv(key)
}

func (OSEnvironment) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

func (OSEnvironment) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSEnvironment) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OSEnvironment) Getwd() (string, error) {
	return os.Getwd()
}

func (OSEnvironment) Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// ProbeExecutable looks the binary up on PATH, checks it is executable and
// runs "<name> --version". A binary that exists but fails to report its
// version (e.g. a broken podman machine) counts as unavailable.
func (OSEnvironment) ProbeExecutable(name string) bool {
	path, err := exec.LookPath(name)
	if err != nil {
		return false
	}
	if err := unix.Access(path, unix.X_OK); err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, "--version")
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}
