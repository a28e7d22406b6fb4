package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/colrun/packages/core/collection"
	"github.com/abdul-hamid-achik/colrun/packages/core/env"
)

func TestBuildRequestRawURL(t *testing.T) {
	e := env.FromMap("test", map[string]string{"host": "api.test"})
	def := &collection.Definition{URL: collection.RawURL("https://{{host}}/v1")}

	req := BuildRequest(def, e)

	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "https://api.test/v1", req.URL)
	assert.Empty(t, req.Headers)
	assert.Empty(t, req.Body)
}

func TestBuildRequestStructuredURL(t *testing.T) {
	e := env.FromMap("test", map[string]string{"version": "v2"})

	tests := []struct {
		name string
		url  collection.URLSpec
		want string
	}{
		{
			name: "default protocol",
			url:  collection.StructuredURL("", []string{"api", "example", "com"}, []string{"{{version}}", "users"}),
			want: "https://api.example.com/v2/users",
		},
		{
			name: "explicit protocol",
			url:  collection.StructuredURL("http", []string{"localhost:8080"}, []string{"ping"}),
			want: "http://localhost:8080/ping",
		},
		{
			name: "raw wins",
			url: collection.URLSpec{
				Kind: collection.URLStructured,
				Raw:  "https://raw.test/{{version}}",
				Host: []string{"ignored"},
				Path: []string{"ignored"},
			},
			want: "https://raw.test/v2",
		},
		{
			name: "missing path",
			url:  collection.StructuredURL("https", []string{"example", "com"}, nil),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := BuildRequest(&collection.Definition{URL: tt.url}, e)
			assert.Equal(t, tt.want, req.URL)
		})
	}
}

func TestBuildRequestHeaders(t *testing.T) {
	e := env.FromMap("test", map[string]string{"token": "secret"})
	def := &collection.Definition{
		Method: "post",
		URL:    collection.RawURL("https://x.test"),
		Headers: []collection.Header{
			{Key: "Authorization", Value: "Bearer {{token}}"},
			{Key: "X-Off", Value: "1", Disabled: true},
			{Key: "", Value: "no key"},
			{Key: "X-Empty", Value: ""},
			{Key: "X-Dup", Value: "first"},
			{Key: "X-Dup", Value: "second"},
		},
	}

	req := BuildRequest(def, e)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, map[string]string{
		"Authorization": "Bearer secret",
		"X-Dup":         "second",
	}, req.Headers)
}

func TestBuildRequestHeaderNamesIgnoreCase(t *testing.T) {
	def := &collection.Definition{
		URL: collection.RawURL("https://x.test"),
		Headers: []collection.Header{
			{Key: "X-Token", Value: "first"},
			{Key: "content-type", Value: "text/plain"},
			{Key: "x-token", Value: "last"},
			{Key: "CONTENT-TYPE", Value: "application/json"},
		},
	}

	for i := 0; i < 10; i++ {
		req := BuildRequest(def, env.New("test"))
		assert.Equal(t, map[string]string{
			"X-Token":      "last",
			"Content-Type": "application/json",
		}, req.Headers)
	}
}

func TestBuildRequestBody(t *testing.T) {
	e := env.FromMap("test", map[string]string{"name": "ada"})

	tests := []struct {
		name string
		body *collection.Body
		want string
	}{
		{"raw", &collection.Body{Mode: "raw", Raw: `{"name":"{{name}}"}`}, `{"name":"ada"}`},
		{"formdata ignored", &collection.Body{Mode: "formdata", Raw: "x"}, ""},
		{"empty raw", &collection.Body{Mode: "raw"}, ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := &collection.Definition{URL: collection.RawURL("https://x.test"), Body: tt.body}
			assert.Equal(t, tt.want, BuildRequest(def, e).Body)
		})
	}
}

func TestBuildRequestKeepsUnresolved(t *testing.T) {
	def := &collection.Definition{URL: collection.RawURL("{{base}}/ping")}

	var warned []string
	resolver := env.NewResolver(env.New("empty"))
	resolver.SetWarnFunc(func(format string, args ...any) {
		warned = append(warned, format)
	})

	req := BuildRequestWithResolver(def, resolver)

	assert.Equal(t, "{{base}}/ping", req.URL)
	require.NotEmpty(t, warned)
}

func TestBuildRequestIsPure(t *testing.T) {
	e := env.FromMap("test", map[string]string{"a": "1"})
	def := &collection.Definition{
		URL:     collection.RawURL("https://x.test/{{a}}"),
		Headers: []collection.Header{{Key: "H", Value: "{{a}}"}},
	}

	first := BuildRequest(def, e)
	second := BuildRequest(def, e)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, e.Len())
	assert.Equal(t, "https://x.test/{{a}}", def.URL.Raw)
}
