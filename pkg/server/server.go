// Package server provides the HTTP transport for repoviewd.
//
// It implements a graceful HTTP server with Echo router carrying the MCP
// streamable endpoint, health check, and Prometheus metrics. Session
// bookkeeping for /mcp belongs to the SDK handler; authentication is a
// static bearer token checked by middleware. The file-access core never
// sees any of this.
package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repoviewd/internal/config"
	"github.com/fyrsmithlabs/repoviewd/internal/mcp"
)

// Server represents the HTTP server.
type Server struct {
	config *config.Config
	echo   *echo.Echo
	logger *zap.Logger
}

// HealthResponse is the JSON response for the /health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// NewServer creates the HTTP server carrying the given MCP server.
//
// Routes:
//   - GET /health — liveness, always unauthenticated
//   - GET /metrics — Prometheus metrics, always unauthenticated
//   - ANY /mcp — MCP streamable HTTP endpoint, bearer-token protected
//     when an auth token is configured
func NewServer(cfg *config.Config, mcpServer *mcp.Server, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	s := &Server{
		config: cfg,
		echo:   e,
		logger: logger,
	}

	s.registerRoutes(mcpServer)

	return s
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mcpServer *mcp.Server) {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	handler := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return mcpServer.Underlying()
	}, nil)

	mcpGroup := s.echo.Group("/mcp")
	if s.config.Server.AuthToken.IsSet() {
		mcpGroup.Use(s.bearerAuth)
	}
	mcpGroup.Any("", echo.WrapHandler(handler))
}

// bearerAuth rejects requests whose Authorization header does not carry the
// configured token. Comparison is constant-time.
func (s *Server) bearerAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := s.config.Server.AuthToken.Value()
		auth := c.Request().Header.Get(echo.HeaderAuthorization)

		const prefix = "Bearer "
		if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}
		if subtle.ConstantTimeCompare([]byte(auth[len(prefix):]), []byte(token)) != 1 {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		return next(c)
	}
}

// handleHealth handles GET /health requests.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: "repoviewd",
	})
}

// Start starts the HTTP server and blocks until the context is cancelled.
//
// Returns http.ErrServerClosed on graceful shutdown, or any other error
// encountered during startup or shutdown.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Server.Port)

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			s.config.Server.ShutdownTimeout.Duration(),
		)
		defer cancel()

		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}

		return http.ErrServerClosed
	}
}

// Echo returns the underlying Echo instance for registering additional
// routes in tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
