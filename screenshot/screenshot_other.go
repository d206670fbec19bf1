//go:build !darwin

package screenshot

// HasPermission reports whether the process may capture the screen. Only
// macOS gates screen capture behind a user permission.
func HasPermission() bool {
	return true
}

// RequestPermission requests screen recording permission from the system.
func RequestPermission() {}
