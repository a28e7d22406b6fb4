// Package cmd implements the colrun CLI commands using Cobra.
//
// Available commands:
//   - run: Execute selected collection items in order
//   - list: Show the items of a collection with their indices
//   - validate: Check collections against the collection schema
//   - env: Inspect and persist environments in the local store
//   - serve: Expose a collection over HTTP
//   - version: Show colrun version information
//
// Flags override the config file; COLRUN_* environment variables provide
// flag defaults.
package cmd
