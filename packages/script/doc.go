// Package script runs pre-request and test scripts against an environment.
//
// Scripts see a deliberately small surface: get and set an environment
// variable, a few helpers under "_", console logging and, for test scripts,
// the response. The interpreter sits behind the Engine interface; JSEngine
// embeds goja and builds a fresh runtime for every execution.
package script
