package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"traffic-reporter/config"
)

type TrafficHttpServer struct {
	router    *Router
	muxRouter *mux.Router
	cfg       config.ServerConfig
	logger    *zap.Logger
}

func NewTrafficHttpServer(router *Router, muxRouter *mux.Router, cfg config.ServerConfig, logger *zap.Logger) *TrafficHttpServer {
	return &TrafficHttpServer{
		router:    router,
		muxRouter: muxRouter,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured shutdown timeout.
func (s *TrafficHttpServer) Run(ctx context.Context) error {
	s.router.RegisterRoutes()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.muxRouter,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("[TrafficHttpServer] starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("[TrafficHttpServer] shutting down the server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.logger.Info("[TrafficHttpServer] server exiting")
	return nil
}
