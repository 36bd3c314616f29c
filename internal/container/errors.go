package container

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRuntimeUnavailable is returned when no usable container engine is installed.
var ErrRuntimeUnavailable = errors.New("container runtime unavailable")

// ErrRuntimeCommandFailed is returned when an engine command exits non-zero.
var ErrRuntimeCommandFailed = errors.New("container runtime command failed")

// ErrInvalidRuntime is returned for an unrecognised --runtime value.
var ErrInvalidRuntime = errors.New("invalid runtime")

// maxStderrExcerpt bounds how much engine stderr is carried in an error.
const maxStderrExcerpt = 2048

// CommandError describes a failed engine invocation.
type CommandError struct {
	// Op is a short description of what was attempted, e.g. "stop container".
	Op string
	// Args is the full command line.
	Args []string
	// Stderr is the trimmed standard error of the command.
	Stderr string
	// Err is the underlying exec error.
	Err error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("failed to %s (%s)", e.Op, strings.Join(e.Args, " "))
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the exec error.
func (e *CommandError) Unwrap() []error {
	return []error{ErrRuntimeCommandFailed, e.Err}
}

func excerpt(stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if len(stderr) > maxStderrExcerpt {
		stderr = stderr[len(stderr)-maxStderrExcerpt:]
	}
	return stderr
}
