//go:build !windows && !linux && !darwin

package clip

// New returns the no-op backend on platforms without clipboard support.
func New() Device {
	return newHeadless()
}
