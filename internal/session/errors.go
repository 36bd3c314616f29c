package session

import "errors"

// ErrSessionNotFound is returned when no container matches a session name.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnsafeOperation is returned when an operation would destroy a running session.
var ErrUnsafeOperation = errors.New("unsafe operation")

// ErrUndecodableName is returned when a container name fits no naming scheme.
var ErrUndecodableName = errors.New("cannot extract agent from container name")

// ErrImageMissing is returned when a session cannot start because its image
// has not been built and building was declined.
var ErrImageMissing = errors.New("agent image not built")
