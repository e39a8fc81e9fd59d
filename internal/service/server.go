package service

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	s := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return &Server{httpServer: s, logger: logger}
}

// Start blocks serving on the configured address
func (s *Server) Start() error {
	s.logger.Info("Starting wisefido-vitalsim HTTP server", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Serve blocks serving on l
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("Starting wisefido-vitalsim HTTP server", zap.String("addr", l.Addr().String()))
	return s.httpServer.Serve(l)
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping wisefido-vitalsim HTTP server")
	return s.httpServer.Shutdown(ctx)
}
