// Package http builds resolved requests from collection definitions and
// sends them.
//
// It wraps the standard library's http package with:
//   - Configurable timeouts, redirects, proxy and TLS verification
//   - The Transport interface the runner depends on
//   - Request building with {{variable}} substitution
//   - Response helpers (status text, JSON-or-text body parsing)
package http
