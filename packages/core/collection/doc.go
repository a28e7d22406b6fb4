// Package collection loads Postman-style collections into request definitions.
//
// It provides functionality for:
//   - Decoding Postman v2.x collection documents, flattening folders
//   - The URLSpec tagged variant (raw template or structured protocol/host/path)
//   - Selecting pre-request and test scripts by listener name
//   - Display metadata for selection UIs
//   - Validating documents against an embedded JSON schema
package collection
