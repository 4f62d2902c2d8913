package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repoviewd/internal/sandbox"
)

// Server wires the sandbox service to MCP tool handlers.
type Server struct {
	mcp         *mcp.Server
	sandbox     *sandbox.Service
	metrics     *Metrics
	defaultGlob string
	logger      *zap.Logger
}

// Config configures the MCP server.
type Config struct {
	// Name is the server implementation name (default: "repoviewd").
	Name string

	// Version is the server version (default: "1.0.0").
	Version string

	// DefaultSearchGlob applies when a search call omits the glob.
	DefaultSearchGlob string

	// Logger for structured logging.
	Logger *zap.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:              "repoviewd",
		Version:           "1.0.0",
		DefaultSearchGlob: sandbox.DefaultSearchGlob,
		Logger:            zap.NewNop(),
	}
}

// NewServer creates an MCP server backed by the given sandbox service.
func NewServer(cfg *Config, svc *sandbox.Service) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if svc == nil {
		return nil, fmt.Errorf("sandbox service is required")
	}
	if cfg.Name == "" {
		cfg.Name = "repoviewd"
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	if cfg.DefaultSearchGlob == "" {
		cfg.DefaultSearchGlob = sandbox.DefaultSearchGlob
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		nil,
	)

	s := &Server{
		mcp:         mcpServer,
		sandbox:     svc,
		metrics:     NewMetrics(cfg.Logger),
		defaultGlob: cfg.DefaultSearchGlob,
		logger:      cfg.Logger,
	}

	s.registerTools()

	return s, nil
}

// Underlying returns the SDK server, for transports that bind it to HTTP.
func (s *Server) Underlying() *mcp.Server {
	return s.mcp
}

// Run starts the MCP server on the stdio transport.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio transport",
		zap.String("root", s.sandbox.Root()))
	transport := &mcp.StdioTransport{}
	if err := s.mcp.Run(ctx, transport); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}
