// Package http contiene el servidor del agente local.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/stamper/internal/observability/logger"
)

// ShutdownGracePeriod es cuánto espera Run a que terminen los requests en vuelo.
const ShutdownGracePeriod = 5 * time.Second

// Server envuelve http.Server con arranque y apagado atados a un context.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Listen abre el listener en addr. Con ":0" Addr devuelve el puerto elegido.
func Listen(addr string, handler http.Handler) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		ln: ln,
		srv: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Addr devuelve la dirección real del listener.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Run sirve hasta que ctx se cancele y luego apaga de forma ordenada.
func (s *Server) Run(ctx context.Context) error {
	log := logger.FromWithFields(ctx, logger.Component("http"))
	s.srv.BaseContext = func(net.Listener) context.Context { return ctx }

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", logger.String("addr", s.Addr()))
		if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), ShutdownGracePeriod)
		defer cancel()
		if err := s.srv.Shutdown(sctx); err != nil {
			_ = s.srv.Close()
			return err
		}
		log.Info("server stopped")
		return nil
	})
	return g.Wait()
}
