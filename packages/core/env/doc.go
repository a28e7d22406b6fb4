// Package env holds the named-variable environment shared across a collection run.
//
// It provides functionality for:
//   - An ordered, key-unique variable store (Environment)
//   - Variable interpolation using {{variable}} syntax
//   - Loading and writing Postman environment documents
//   - Overlaying values from .env files
package env
