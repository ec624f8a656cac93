package smoketest

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Check kinds
const (
	KindExecutable = "executable"
	KindFile       = "file"
	KindCommand    = "command"
	KindHTTP       = "http"
	KindLookPath   = "lookpath"
)

//go:embed default.yaml
var defaultManifest []byte

var validate = validator.New()

// Check is one dependency the service needs in order to work
type Check struct {
	Name    string        `yaml:"name" validate:"required"`
	Kind    string        `yaml:"kind" validate:"required,oneof=executable file command http lookpath"`
	Path    string        `yaml:"path"`
	Command []string      `yaml:"command"`
	Expect  string        `yaml:"expect"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Manifest represents the checks.yaml structure
type Manifest struct {
	Checks []Check `yaml:"checks" validate:"required,min=1,dive"`
}

// DefaultManifest returns the built-in check suite
func DefaultManifest() (*Manifest, error) {
	return ParseManifest(defaultManifest)
}

// LoadManifest loads a manifest file from disk
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes and validates manifest YAML
func ParseManifest(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest file: %w", err)
	}

	if err := validate.Struct(&manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	for i, c := range manifest.Checks {
		if err := c.validateFields(); err != nil {
			return nil, fmt.Errorf("invalid manifest: check %d (%s): %w", i, c.Name, err)
		}
	}

	return &manifest, nil
}

// validateFields checks the per-kind fields the struct tags cannot express
func (c Check) validateFields() error {
	switch c.Kind {
	case KindExecutable, KindFile, KindLookPath:
		if c.Path == "" {
			return fmt.Errorf("%s check requires path", c.Kind)
		}
	case KindCommand:
		if len(c.Command) == 0 {
			return fmt.Errorf("command check requires command")
		}
	case KindHTTP:
		if c.URL == "" {
			return fmt.Errorf("http check requires url")
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}
