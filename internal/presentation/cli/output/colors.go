package output

import (
	"os"
	"sync"
)

var (
	colorOnce    sync.Once
	colorEnabled bool
)

// IsColorSupported determines if color output should be enabled.
// It honors NO_COLOR and FORCE_COLOR and otherwise requires a terminal on stdout.
func IsColorSupported() bool {
	colorOnce.Do(func() {
		colorEnabled = detectColorSupport()
	})
	return colorEnabled
}

// ResetColorDetection clears the cached color detection result.
func ResetColorDetection() {
	colorOnce = sync.Once{}
}

// detectColorSupport checks environment variables and terminal capabilities.
func detectColorSupport() bool {
	// See https://no-color.org/
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	if _, exists := os.LookupEnv("FORCE_COLOR"); exists {
		return true
	}

	stat, err := os.Stdout.Stat()
	if err != nil || stat.Mode()&os.ModeCharDevice == 0 {
		return false
	}

	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}
