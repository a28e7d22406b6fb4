// Package runner executes collection definitions against an environment.
//
// Items run strictly one after another. Each item runs its pre-request
// script, builds and sends its request, and on a 2xx response runs its test
// script. Environment changes made by one item are visible to every later
// item. A failing item produces an error result and never stops the batch.
package runner
