package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader reads and parses a seed file
type Loader struct {
	filePath string
}

// NewLoader creates a new seed file loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Path returns the file the loader reads
func (l *Loader) Path() string { return l.filePath }

// Load reads the seed file. ${VAR} references are expanded from the
// environment before parsing.
func (l *Loader) Load() (File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return File{}, fmt.Errorf("failed to read seed file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var f File
	if err := yaml.Unmarshal([]byte(expanded), &f); err != nil {
		return File{}, fmt.Errorf("failed to parse seed yaml: %w", err)
	}
	return f, nil
}
