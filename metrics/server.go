package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ErrServerStarted is returned by Start when the server is already listening.
var ErrServerStarted = errors.New("metrics server already started")

// Server serves /metrics and a /healthz probe for processes that do not
// already expose an HTTP endpoint, such as the search CLI.
type Server struct {
	addr     string
	gatherer prometheus.Gatherer
	server   *http.Server
	errChan  chan error

	mu       sync.Mutex
	listener net.Listener
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithGatherer serves metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer creates a metrics server for addr, e.g. ":9090". Use ":0" to
// pick a free port and read it back with Addr after Start.
func NewServer(addr string, opts ...ServerOption) *Server {
	s := &Server{
		addr:     addr,
		gatherer: prometheus.DefaultGatherer,
		errChan:  make(chan error, 1),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start binds the address and serves in a goroutine. Bind failures are
// returned directly; later serve failures are reported by Err.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return ErrServerStarted
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errChan <- err
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Err returns a serve failure, or nil if none occurred. It does not block.
func (s *Server) Err() error {
	select {
	case err := <-s.errChan:
		return err
	default:
		return nil
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
