package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ProfileProvider for YAML profile files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML profile provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadProfile reads and validates the profile file
func (y *YAMLProvider) LoadProfile() (*ProfileData, error) {
	data, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}
	return ParseYAML(data)
}

// ParseYAML decodes a YAML profile document
func ParseYAML(data []byte) (*ProfileData, error) {
	var p ProfileData
	if err := yaml.UnmarshalStrict(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// IsReadOnly returns true since YAML files are not modified by the application
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
