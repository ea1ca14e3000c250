package httpapi

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"cruxcast/internal/pkg/logger"
)

// Server runs one http.Server over a group of listeners, one per
// configured address. An address that fails to bind is logged and skipped;
// the server keeps running on whatever did bind, and the rest of the
// process is unaffected even when nothing did.
type Server struct {
	srv       *http.Server
	log       *logger.Logger
	mu        sync.Mutex
	listeners []net.Listener
}

// NewServer creates a control server for the given handler.
func NewServer(handler http.Handler, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Server{
		srv: &http.Server{
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		log: log.WithComponent("server"),
	}
}

// Start binds each address and serves on the successful ones in the
// background. It returns the number of listeners that bound.
func (s *Server) Start(addrs []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, addr := range addrs {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			s.log.Error("listener bind failed, control endpoint unavailable on this address",
				"addr", addr,
				"error", err,
			)
			continue
		}
		s.listeners = append(s.listeners, ln)
		s.log.Info("control server listening", "addr", ln.Addr().String())

		go func(ln net.Listener) {
			if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
				s.log.Error("control server stopped", "addr", ln.Addr().String(), "error", err)
			}
		}(ln)
	}

	if len(s.listeners) == 0 {
		s.log.Warn("no control listener bound, server is down")
	}
	return len(s.listeners)
}

// Addrs returns the bound listener addresses.
func (s *Server) Addrs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.listeners))
	for _, ln := range s.listeners {
		out = append(out, ln.Addr().String())
	}
	return out
}

// Shutdown drains in-flight requests and closes every listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
