package constants

import "os"

const (
	// DefaultFilePermissions sets the permissions for files written by the CLI: (rw-r--r--).
	DefaultFilePermissions os.FileMode = 0o644

	// DefaultFolderPermissions sets the permissions for folders created for output files: (rwxr-xr-x).
	DefaultFolderPermissions os.FileMode = 0o755

	// PrivateFilePermissions is used for the config file, which may hold credentials: (rw-------).
	PrivateFilePermissions os.FileMode = 0o600
)
