package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/colrun/packages/core/collection"
	"github.com/abdul-hamid-achik/colrun/packages/core/env"
	"github.com/abdul-hamid-achik/colrun/packages/core/runner"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"token":"abcdefghijklmnop"}`)
		case "/me":
			if r.Header.Get("Authorization") != "Bearer abcdefghijklmnop" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = io.WriteString(w, "me")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(backend.Close)
	return backend
}

func sampleCollection() *collection.Collection {
	return collection.New(
		collection.Info{Name: "Sample"},
		&collection.Definition{
			Name: "Login",
			URL:  collection.RawURL("{{base}}/login"),
			Events: []collection.Event{{
				Listen: collection.ListenTest,
				Script: collection.Script{Exec: `pm.environment.set("authToken", responseBody.token);`},
			}},
		},
		&collection.Definition{
			Name:    "Me",
			URL:     collection.RawURL("{{base}}/me"),
			Headers: []collection.Header{{Key: "Authorization", Value: "Bearer {{authToken}}"}},
		},
	)
}

func newTestServer(t *testing.T, base string, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	e := env.FromMap("local", map[string]string{"base": base})
	s, err := New(Dependencies{
		Logger:      hclog.NewNullLogger(),
		Runner:      runner.NewRunner(nil),
		Collection:  sampleCollection(),
		Environment: e,
		Addr:        "127.0.0.1:0",
	}, opts...)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestNewRequiresDependencies(t *testing.T) {
	tests := []struct {
		name string
		deps Dependencies
	}{
		{name: "no runner", deps: Dependencies{Collection: sampleCollection(), Addr: ":0"}},
		{name: "no collection", deps: Dependencies{Runner: runner.NewRunner(nil), Addr: ":0"}},
		{name: "no address", deps: Dependencies{Runner: runner.NewRunner(nil), Collection: sampleCollection()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.deps)
			require.ErrorIs(t, err, ErrMissingDependency)
		})
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, "http://unused", WithVersion("1.2.3"))

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]any](t, resp)
	assert.Equal(t, HealthStatusOK, body["status"])
	assert.Equal(t, "Sample", body["collection"])
	assert.Equal(t, "local", body["environment"])
	assert.Equal(t, "1.2.3", body["version"])
}

func TestCollection(t *testing.T) {
	_, ts := newTestServer(t, "http://unused")

	resp, err := http.Get(ts.URL + "/collection/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Info  collection.Info       `json:"info"`
		Items []collection.ItemInfo `json:"items"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Sample", body.Info.Name)
	require.Len(t, body.Items, 2)
	assert.Equal(t, "Me", body.Items[1].Name)
	assert.Equal(t, "{{base}}/me", body.Items[1].URL)
}

func TestEnvironmentMasking(t *testing.T) {
	tests := []struct {
		name   string
		reveal bool
		want   string
	}{
		{name: "masked by default", want: "sk_l••••1234"},
		{name: "revealed", reveal: true, want: "sk_live_abcd1234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ts := newTestServer(t, "http://unused", WithReveal(tt.reveal))
			s.environment.Set("apiKey", "sk_live_abcd1234")

			resp, err := http.Get(ts.URL + "/environment")
			require.NoError(t, err)
			defer resp.Body.Close()

			got := decode[env.Environment](t, resp)
			value, ok := got.Get("apiKey")
			require.True(t, ok)
			assert.Equal(t, tt.want, value)

			stored, _ := s.Environment().Get("apiKey")
			assert.Equal(t, "sk_live_abcd1234", stored)
		})
	}
}

func TestExecuteEmptySelection(t *testing.T) {
	_, ts := newTestServer(t, "http://unused")

	resp := postJSON(t, ts.URL+"/execute", map[string]any{"selectedIndices": []int{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decode[map[string]any](t, resp)
	assert.Contains(t, body["detail"], ErrNoSelection.Error())
}

func TestExecuteMissingSelection(t *testing.T) {
	_, ts := newTestServer(t, "http://unused")

	resp := postJSON(t, ts.URL+"/execute", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestExecuteUsesAndUpdatesServerEnvironment(t *testing.T) {
	backend := newBackend(t)
	s, ts := newTestServer(t, backend.URL)

	resp := postJSON(t, ts.URL+"/execute", map[string]any{"selectedIndices": []int{0, 1, 7}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decode[runner.BatchResult](t, resp)
	require.Len(t, result.Results, 3)
	assert.Equal(t, runner.StatusSuccess, result.Results[0].Status)
	assert.Equal(t, runner.StatusSuccess, result.Results[1].Status)
	assert.Equal(t, runner.KindNotFound, result.Results[2].ErrorKind)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)

	token, ok := result.Environment.Get("authToken")
	require.True(t, ok)
	assert.Equal(t, "abcdefghijklmnop", token)

	stored, ok := s.Environment().Get("authToken")
	require.True(t, ok)
	assert.Equal(t, "abcdefghijklmnop", stored)
}

func TestExecuteWithSuppliedEnvironment(t *testing.T) {
	backend := newBackend(t)
	s, ts := newTestServer(t, "http://unused")

	supplied := env.FromMap("request", map[string]string{"base": backend.URL})
	resp := postJSON(t, ts.URL+"/execute", map[string]any{
		"selectedIndices": []int{0},
		"environment":     supplied,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decode[runner.BatchResult](t, resp)
	require.Len(t, result.Results, 1)
	assert.Equal(t, runner.StatusSuccess, result.Results[0].Status)
	assert.Equal(t, "request", result.Environment.Name)

	_, ok := s.Environment().Get("authToken")
	assert.False(t, ok, "server environment must stay untouched")
}

func TestCORSPreflight(t *testing.T) {
	_, ts := newTestServer(t, "http://unused", WithCORSOrigins("http://localhost:8000", " http://127.0.0.1:8000 "))

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/execute", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://127.0.0.1:8000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://127.0.0.1:8000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestMapError(t *testing.T) {
	logger := hclog.NewNullLogger()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "no selection", err: ErrNoSelection, status: http.StatusBadRequest},
		{name: "wrapped no selection", err: fmt.Errorf("execute: %w", ErrNoSelection), status: http.StatusBadRequest},
		{name: "unknown", err: errors.New("boom"), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, mapError(logger, tt.err).GetStatus())
		})
	}
}

func TestErrorHandlerKeepsFrameworkStatus(t *testing.T) {
	handler := errorHandler(hclog.NewNullLogger())

	err := handler(nil, http.StatusUnprocessableEntity, "validation failed", &huma.ErrorDetail{Message: "expected array"})
	assert.Equal(t, http.StatusUnprocessableEntity, err.GetStatus())

	err = handler(nil, http.StatusInternalServerError, "unexpected error occurred", ErrNoSelection)
	assert.Equal(t, http.StatusBadRequest, err.GetStatus())
}

func TestStartStopsOnCancel(t *testing.T) {
	s, err := New(Dependencies{
		Runner:     runner.NewRunner(nil),
		Collection: sampleCollection(),
		Addr:       "127.0.0.1:0",
	}, WithShutdownTimeout(time.Second))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
