package common

// File permission constants
const (
	// FilePermissionSecure is used for the config file
	FilePermissionSecure = 0600

	// FilePermissionNormal is used for non-sensitive files
	FilePermissionNormal = 0644

	// DirPermissionSecure is used for the config directory
	DirPermissionSecure = 0700

	// DirPermissionNormal is used for normal directories
	DirPermissionNormal = 0755
)
