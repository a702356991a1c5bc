package config

// Source indicates where a configuration value came from.
type Source string

// Configuration sources, lowest precedence first.
const (
	SourceDefault Source = "default"
	// SourceGlobal is ~/.config/<dir>/config.yaml.
	SourceGlobal Source = "global"
	// SourceLocal is the repository's local config file.
	SourceLocal Source = "local"
	SourceEnv   Source = "env"
	SourceFlag  Source = "flag"
)
