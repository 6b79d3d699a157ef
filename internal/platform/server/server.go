package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/netutil"
)

const (
	readTimeout       = 5 * time.Second
	readHeaderTimeout = 2 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	maxHeaderBytes    = 64 << 10 // 64 KB
)

// ErrNilServer is returned when the Server was not built with New.
var ErrNilServer = errors.New("server: http server must not be nil")

// ErrNilHandler is returned by Validate when no handler was supplied.
var ErrNilHandler = errors.New("server: handler must not be nil")

// Server owns one HTTP listener. Use New to create one.
type Server struct {
	http     *http.Server
	maxConns int

	readyOnce sync.Once
	ready     chan struct{}

	mu sync.Mutex
	ln net.Listener
}

// New returns a Server that will listen on addr and serve handler. When
// maxConns is positive, at most maxConns connections are accepted at once;
// further clients wait in the kernel backlog.
func New(addr string, handler http.Handler, maxConns int) *Server {
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
			MaxHeaderBytes:    maxHeaderBytes,
		},
		maxConns: maxConns,
		ready:    make(chan struct{}),
	}
}

// Validate checks that the server can be started.
func (s *Server) Validate() error {
	if s == nil || s.http == nil {
		return ErrNilServer
	}
	if s.http.Handler == nil {
		return ErrNilHandler
	}
	if _, err := net.ResolveTCPAddr("tcp", s.http.Addr); err != nil {
		return fmt.Errorf("resolve server addr %q: %w", s.http.Addr, err)
	}
	return nil
}

// Start listens on the configured address and serves until Stop is called.
// It returns nil after a graceful stop.
func (s *Server) Start() error {
	if err := s.Validate(); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}
	if s.maxConns > 0 {
		ln = netutil.LimitListener(ln, s.maxConns)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })

	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", s.http.Addr, err)
	}
	return nil
}

// Ready is closed once Start has bound its listener.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr reports the bound listener address, or the configured address before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.http.Addr
}

// Stop gracefully shuts the server down. See http.Server.Shutdown.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.http == nil {
		return ErrNilServer
	}
	if err := s.http.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
