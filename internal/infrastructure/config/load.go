package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Supported bundle file formats.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// FormatOf infers the file format from its extension.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
}

// Parse decodes a bundle file in the given format. It does not validate.
func Parse(data []byte, format string) (*File, error) {
	var file File
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
	return &file, nil
}

// LoadFile reads and decodes one bundle file.
func LoadFile(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	file, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// LoadBundle reads every file in order, merges them and validates the result.
func LoadBundle(paths ...string) (Elasticsearch, error) {
	fragments := make([]Elasticsearch, 0, len(paths))
	for _, path := range paths {
		file, err := LoadFile(path)
		if err != nil {
			return Elasticsearch{}, err
		}
		fragments = append(fragments, file.Elasticsearch)
	}

	merged := Merge(fragments...)
	if err := merged.Validate(); err != nil {
		return Elasticsearch{}, err
	}
	return merged, nil
}
