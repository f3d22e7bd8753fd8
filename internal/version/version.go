package version

import "fmt"

const (
	// Version is the current version of blogpilot
	Version = "0.1.0"
)

// GetVersion returns the current version string
func GetVersion() string {
	return fmt.Sprintf("blogpilot %s", Version)
}
