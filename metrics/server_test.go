package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, opts ...ServerOption) *Server {
	t.Helper()

	server := NewServer("127.0.0.1:0", opts...)
	require.NoError(t, server.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	})
	return server
}

func get(t *testing.T, server *Server, path string) (*http.Response, string) {
	t.Helper()

	resp, err := http.Get("http://" + server.Addr() + path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestNewServer_AddrBeforeStart(t *testing.T) {
	server := NewServer(":9999")

	assert.Equal(t, ":9999", server.Addr())
	assert.NoError(t, server.Err())
}

func TestServer_ServesDefaultRegistry(t *testing.T) {
	NewCollector("server-test").IncRunsStarted()
	server := startServer(t)

	resp, body := get(t, server, "/metrics")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.Contains(t, body, `polestar_search_runs_started_total{searcher="server-test"}`)
	assert.NoError(t, server.Err())
}

func TestServer_ServesCustomGatherer(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "app_custom_total", Help: "custom"})
	registry.MustRegister(counter)
	counter.Add(3)

	server := startServer(t, WithGatherer(registry))

	_, body := get(t, server, "/metrics")

	assert.Contains(t, body, "app_custom_total 3")
	assert.NotContains(t, body, "polestar_search_runs_started_total")
}

func TestServer_HealthzEndpoint(t *testing.T) {
	server := startServer(t)

	resp, body := get(t, server, "/healthz")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
}

func TestServer_StartTwiceFails(t *testing.T) {
	server := startServer(t)

	assert.ErrorIs(t, server.Start(), ErrServerStarted)
}

func TestServer_StartFailsWhenAddressInUse(t *testing.T) {
	first := startServer(t)

	second := NewServer(first.Addr())

	assert.Error(t, second.Start())
}

func TestServer_ShutdownStopsServing(t *testing.T) {
	server := NewServer("127.0.0.1:0")
	require.NoError(t, server.Start())
	addr := server.Addr()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))

	_, err := http.Get("http://" + addr + "/metrics")
	assert.Error(t, err)
	assert.NoError(t, server.Err())
}
