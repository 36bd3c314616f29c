package constants

import "os"

// Session-related constants
const (
	// DefaultSessionName is used when a command is given no session name.
	DefaultSessionName = "default"

	// DefaultRuntime lets klotho pick podman or docker.
	DefaultRuntime = "auto"
)

// File permissions
const (
	// DirPermissions is the default permission mode for directories.
	DirPermissions os.FileMode = 0755

	// FilePermissions is the permission mode for extracted build files.
	FilePermissions os.FileMode = 0644

	// ScriptPermissions is the permission mode for extracted scripts.
	ScriptPermissions os.FileMode = 0755
)
