package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// toolConfig mirrors typebridge.toml.
type toolConfig struct {
	SourceMaps  bool           `toml:"sourceMaps"`
	Paths       pathsConfig    `toml:"paths"`
	Conventions conventions    `toml:"conventions"`
	TypeScript  map[string]any `toml:"typescript"`
	Build       buildConfig    `toml:"build"`
	Serve       serveConfig    `toml:"serve"`
}

type pathsConfig struct {
	Root   string `toml:"root"`
	Source string `toml:"source"`
	Output string `toml:"output"`
}

type conventions struct {
	Vendor string `toml:"vendor"`
}

type buildConfig struct {
	Cache string `toml:"cache"`
}

type serveConfig struct {
	Addr string `toml:"addr"`
}

// loadToolConfig reads path on top of the built-in defaults. A missing
// file just means defaults; a malformed one is an error.
func loadToolConfig(path string) (*toolConfig, error) {
	cfg := &toolConfig{
		SourceMaps: true,
		Paths: pathsConfig{
			Root:   ".",
			Source: "src",
			Output: "dist",
		},
		Conventions: conventions{
			Vendor: "**/vendor/**",
		},
		Serve: serveConfig{
			Addr: ":8081",
		},
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return cfg, nil
}
