// Package config handles configuration loading for colrun.
//
// Configuration is read from .colrun.yaml, colrun.yaml, .colrun.json or
// colrun.json in the working directory, merged over DefaultConfig.
// Command-line flags are applied on top by the CLI.
package config
