package common

import (
	"os"
	"path/filepath"
)

// GlobalOptions contains global flags that are available to all commands
type GlobalOptions struct {
	// ConfigFile is the YAML file holding the TestRail connection settings
	ConfigFile string

	// Output selects how command results are printed: json or yaml
	Output string

	// Verbose enables debug-level logging
	Verbose bool
}

// DefaultConfigFile returns ~/.config/goose-testrail/config.yaml, or config.yaml in the
// working directory when the home directory cannot be resolved.
func DefaultConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "goose-testrail", "config.yaml")
}

// DefaultGlobalOptions returns a new GlobalOptions with default values
func DefaultGlobalOptions() *GlobalOptions {
	return &GlobalOptions{
		ConfigFile: DefaultConfigFile(),
		Output:     "json",
		Verbose:    false,
	}
}
