package output

import (
	"strings"

	"github.com/abdul-hamid-achik/colrun/packages/core/env"
)

const maskFill = "••••"

var sensitiveKeywords = []string{"key", "token", "password", "secret"}

// IsSensitive reports whether a variable name looks like it holds a secret.
func IsSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// MaskValue hides the value of a sensitive variable. Values longer than 8
// characters keep their first and last 4; shorter ones are hidden entirely.
func MaskValue(key, value string) string {
	if value == "" || !IsSensitive(key) {
		return value
	}
	runes := []rune(value)
	if len(runes) <= 8 {
		return maskFill
	}
	return string(runes[:4]) + maskFill + string(runes[len(runes)-4:])
}

// MaskEnvironment returns a copy of e with sensitive values masked.
func MaskEnvironment(e *env.Environment) *env.Environment {
	if e == nil {
		return nil
	}
	masked := e.Clone()
	for i, v := range masked.Values {
		masked.Values[i].Value = MaskValue(v.Key, v.Value)
	}
	return masked
}
