package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// LoadFile reads a TOML config file and merges it onto
// DefaultHighlightOptions. A missing file is not an error — callers that
// want a required config file should os.Stat first.
func LoadFile(path string) (HighlightOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultHighlightOptions(), nil
		}
		return HighlightOptions{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var o HighlightOptions
	if err := toml.Unmarshal(data, &o); err != nil {
		return HighlightOptions{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return Merge(o), nil
}
