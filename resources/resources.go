// Package resources embeds the default scenario suites and configuration.
package resources

import (
	"embed"
)

// ScenarioDir is the directory of ScenarioFiles holding suite definitions.
const ScenarioDir = "scenarios"

//go:embed scenarios/*.yaml
var ScenarioFiles embed.FS

//go:embed config/default.yaml
var DefaultConfig []byte
