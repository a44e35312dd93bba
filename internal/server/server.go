// Package server accepts client connections and feeds their decoded
// event stream to the I/O log writer. One goroutine per connection;
// each connection owns at most one session at a time, so the writer's
// single-threaded-per-session contract holds by construction.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/ehrlich-b/iologd/internal/config"
	"github.com/ehrlich-b/iologd/internal/logger"
	"github.com/ehrlich-b/iologd/internal/store"
)

type Server struct {
	cfg   *config.Config
	store *store.Store
}

func New(cfg *config.Config, st *store.Store) *Server {
	return &Server{cfg: cfg, store: st}
}

// ListenAndServe listens on the configured socket or TCP address and
// serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	network, addr := s.cfg.Network()
	if network == "unix" {
		// Clean up stale socket.
		os.Remove(addr)
	}
	ln, err := net.Listen(network, addr)
	if err != nil {
		return fmt.Errorf("listen %s %s: %w", network, addr, err)
	}
	defer func() {
		if network == "unix" {
			os.Remove(addr)
		}
	}()
	logger.Info("listening", "network", network, "addr", ln.Addr().String())
	return s.Serve(ctx, ln)
}

// Serve accepts connections from ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.handleConn(ctx, conn)
	}
}

// limiter returns the per-connection byte-rate limiter, or nil when
// limiting is disabled.
func (s *Server) limiter() *rate.Limiter {
	if s.cfg.RateBytesPerSec <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(s.cfg.RateBytesPerSec), s.cfg.RateBurst)
}

// waitBytes blocks until the limiter admits n bytes, chunking requests
// larger than the burst so WaitN does not reject them.
func waitBytes(ctx context.Context, lim *rate.Limiter, n int) error {
	if lim == nil {
		return nil
	}
	burst := lim.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := lim.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

// netClosed reports whether err is the benign close-on-shutdown error.
func netClosed(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
