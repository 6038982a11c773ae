package inspect

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/km-arc/go-boot/framework/container"
	"github.com/km-arc/go-boot/framework/routing"
)

// Server runs the inspect endpoints on their own listener.
type Server struct {
	addr   string
	bound  string
	srv    *http.Server
	logger *zap.Logger
}

// NewServer creates a Server for app listening on addr.
func NewServer(addr string, app *container.Container) *Server {
	logger := app.Logger().Named("inspect")
	r := routing.New(logger)
	NewHandler(app).Routes(r)
	return &Server{
		addr:   addr,
		logger: logger,
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start listens on the configured address and serves in the background.
// It returns the bound address, which differs from the configured one when
// the port is 0.
func (s *Server) Start() (string, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", errors.Wrapf(err, "inspect: listen %s", s.addr)
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("inspect server stopped", zap.Error(err))
		}
	}()
	s.bound = ln.Addr().String()
	s.logger.Info("inspect server listening", zap.String("addr", s.bound))
	return s.bound, nil
}

// Addr returns the bound address once started, the configured one before.
func (s *Server) Addr() string {
	if s.bound != "" {
		return s.bound
	}
	return s.addr
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
