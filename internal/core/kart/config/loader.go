package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadJSON decodes a vehicle config from JSON on top of Default and validates it.
func LoadJSON(r io.Reader) (*VehicleConfig, error) {
	c := Default()
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return finish(&c)
}

// LoadYAML decodes a vehicle config from YAML on top of Default and validates it.
// Set a wheel to null to remove it from the layout.
func LoadYAML(r io.Reader) (*VehicleConfig, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return finish(&c)
}

// LoadFile picks the decoder from the file extension.
func LoadFile(path string) (*VehicleConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(f)
	case ".json":
		return LoadJSON(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func finish(c *VehicleConfig) (*VehicleConfig, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
