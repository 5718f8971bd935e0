// Package api exposes the resolver over HTTP. It is a thin wrapper around
// an echo router: it owns the routes, the JSON envelope and error mapping,
// and nothing else.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"teralink/internal/config"
	"teralink/internal/extract"
)

const shutdownTimeout = 10 * time.Second

// Server serves the welcome and resolve routes.
type Server struct {
	ec          *echo.Echo
	extractor   extract.Extractor
	addr        string
	resolvePath string
	log         zerolog.Logger
}

// NewServer constructs the echo router with all routes and middleware.
func NewServer(cfg *config.Config, extractor extract.Extractor, log zerolog.Logger) *Server {
	ec := echo.New()
	ec.HideBanner = true
	ec.HidePort = true
	ec.Server.ReadHeaderTimeout = 10 * time.Second

	s := &Server{
		ec:          ec,
		extractor:   extractor,
		addr:        cfg.ListenAddr(),
		resolvePath: cfg.Server.ResolvePath,
		log:         log,
	}

	ec.HTTPErrorHandler = s.handleError
	ec.OnAddRouteHandler = func(host string, route echo.Route, handler echo.HandlerFunc, middleware []echo.MiddlewareFunc) {
		log.Debug().Str("method", route.Method).Str("path", route.Path).Msg("registered route")
	}

	ec.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	ec.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info().
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
	ec.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Error().
				Err(err).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Bytes("stack", stack).
				Msg("panic recovered")
			return err
		},
	}))

	ec.GET("/", s.welcome)
	ec.GET(s.resolvePath, s.resolve)

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.ec
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Str("resolve_path", s.resolvePath).Msg("listening")
		errCh <- s.ec.Start(s.addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.ec.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
