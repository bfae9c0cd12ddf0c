// Package config resolves symbolic keys into concrete values: locator
// candidate lists, thresholds, output policy. Contexts are nested
// mappings built from a YAML document plus an environment overlay;
// resolution is dot-path traversal with alias expansion.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// loadDocument reads a configuration document into a nested mapping.
func loadDocument(path string) (map[string]any, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "" {
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	return v.AllSettings(), nil
}
