package http

import (
	"net/http"
	"strings"

	"github.com/abdul-hamid-achik/colrun/packages/core/collection"
	"github.com/abdul-hamid-achik/colrun/packages/core/env"
)

// Request is a fully substituted request. It is not modified after BuildRequest.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method:  method,
		URL:     requestURL,
		Headers: make(map[string]string),
	}
}

func (r *Request) SetHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

func (r *Request) SetBody(body string) *Request {
	r.Body = body
	return r
}

// BuildRequest resolves def against the current state of e.
func BuildRequest(def *collection.Definition, e *env.Environment) *Request {
	return BuildRequestWithResolver(def, env.NewResolver(e))
}

// BuildRequestWithResolver is BuildRequest with a caller-supplied resolver,
// typically one carrying a warn callback for unresolved placeholders.
func BuildRequestWithResolver(def *collection.Definition, resolver *env.Resolver) *Request {
	r := NewRequest(def.DisplayMethod(), resolver.Resolve(def.URL.Template()))

	// Header names are case-insensitive; the last occurrence wins.
	for _, h := range def.Headers {
		if h.Disabled || h.Key == "" || h.Value == "" {
			continue
		}
		r.SetHeader(http.CanonicalHeaderKey(h.Key), resolver.Resolve(h.Value))
	}

	if def.Body != nil && strings.EqualFold(def.Body.Mode, collection.BodyModeRaw) && def.Body.Raw != "" {
		r.SetBody(resolver.Resolve(def.Body.Raw))
	}

	return r
}
