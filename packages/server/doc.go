// Package server exposes a loaded collection over HTTP.
//
// It serves the collection metadata and the server-held environment, and runs
// selected items through a runner.Runner. Runs are serialised because the
// server environment is shared between requests.
package server
