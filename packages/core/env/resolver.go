package env

import (
	"regexp"
	"strings"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// Substitute replaces every {{name}} in text with the value of name in e.
// Unknown names are left exactly as written so they stay visible.
func Substitute(text string, e *Environment) string {
	return NewResolver(e).Resolve(text)
}

// Resolver resolves {{variable}} placeholders against an Environment.
// It keeps no state of its own, so mutations to the environment are
// visible to the next Resolve call.
type Resolver struct {
	env      *Environment
	warnFunc WarnFunc
}

func NewResolver(e *Environment) *Resolver {
	return &Resolver{env: e}
}

// SetWarnFunc sets a function to be called for each unresolved placeholder
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.warnFunc = fn
}

func (r *Resolver) warn(format string, args ...any) {
	if r.warnFunc != nil {
		r.warnFunc(format, args...)
	}
}

func (r *Resolver) Resolve(input string) string {
	if input == "" {
		return input
	}

	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-2])
		if val, ok := r.env.Get(name); ok {
			return val
		}

		r.warn("unresolved variable: %s", name)
		return match
	})
}

// Unresolved returns the placeholder names in input that have no value,
// in order of appearance.
func (r *Resolver) Unresolved(input string) []string {
	var names []string
	for _, m := range variablePattern.FindAllStringSubmatch(input, -1) {
		name := strings.TrimSpace(m[1])
		if _, ok := r.env.Get(name); !ok {
			names = append(names, name)
		}
	}
	return names
}
