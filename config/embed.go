// Package config provides the embedded default configuration for kyr.
package config

import (
	_ "embed"
)

// DefaultConfigYAML contains the embedded default configuration in YAML format.
// It is parsed when no configuration file exists and written by "kyr config create".
//
//go:embed config.default.yaml
var DefaultConfigYAML []byte

// FileName is the base name of the per-user configuration file.
const FileName = ".kyrrc"
