// Repoviewd exposes a sandboxed, read-only view of a single repository
// directory to MCP clients.
//
// By default it serves MCP over streamable HTTP together with health and
// metrics endpoints; with -stdio it serves the MCP stdio transport instead
// (logs go to stderr, stdout carries the protocol).
//
// Usage:
//
//	# Serve the current checkout over HTTP
//	repoviewd -root /src/myrepo
//
//	# Serve over stdio for a local MCP client
//	repoviewd -root /src/myrepo -stdio
//
//	# Configure via environment
//	REPOVIEWD_SERVER_PORT=9090 REPOVIEWD_REPO_ROOT=/src/myrepo repoviewd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repoviewd/internal/config"
	"github.com/fyrsmithlabs/repoviewd/internal/deny"
	"github.com/fyrsmithlabs/repoviewd/internal/logging"
	"github.com/fyrsmithlabs/repoviewd/internal/mcp"
	"github.com/fyrsmithlabs/repoviewd/internal/sandbox"
	"github.com/fyrsmithlabs/repoviewd/pkg/server"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var (
	flagConfig = flag.String("config", "", "path to YAML config file")
	flagRoot   = flag.String("root", "", "repository root to expose (overrides config)")
	flagStdio  = flag.Bool("stdio", false, "serve MCP over stdio instead of HTTP")
)

func main() {
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  repoviewd [flags]         Start the daemon\n")
			fmt.Fprintf(os.Stderr, "  repoviewd version         Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information.
func printVersion() {
	fmt.Printf("repoviewd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires configuration, logging, deny policy, the sandbox service, and
// the requested transport, then blocks until the context is cancelled.
func run(ctx context.Context) error {
	cfg, err := config.Load(*flagConfig)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if *flagRoot != "" {
		cfg.Repo.Root = *flagRoot
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger)
	}()

	logger.Info("starting repoviewd",
		zap.String("version", version),
		zap.String("root", cfg.Repo.Root),
		zap.Bool("stdio", *flagStdio))

	svc, err := initSandbox(cfg, logger)
	if err != nil {
		return err
	}

	mcpServer, err := mcp.NewServer(&mcp.Config{
		Name:              "repoviewd",
		Version:           version,
		DefaultSearchGlob: cfg.Repo.DefaultSearchGlob,
		Logger:            logger.Named("mcp"),
	}, svc)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if *flagStdio {
		return mcpServer.Run(ctx)
	}

	httpServer := server.NewServer(cfg, mcpServer, logger.Named("http"))
	return httpServer.Start(ctx)
}

// initSandbox builds the deny policy and the file-access service.
//
// The policy combines built-in rules, configured extras, and patterns
// parsed from ignore files found at the repository root. It is built once
// here; nothing mutates it afterwards.
func initSandbox(cfg *config.Config, logger *zap.Logger) (*sandbox.Service, error) {
	parser := deny.NewParser(cfg.Repo.IgnoreFiles)
	ignorePatterns, err := parser.ParseRoot(cfg.Repo.Root)
	if err != nil {
		return nil, fmt.Errorf("parsing ignore files: %w", err)
	}

	extra := make([]string, 0, len(cfg.Repo.DenyGlobs)+len(ignorePatterns))
	extra = append(extra, cfg.Repo.DenyGlobs...)
	extra = append(extra, ignorePatterns...)

	policy, err := deny.NewDefaultWith(extra, cfg.Repo.DenyFilePatterns)
	if err != nil {
		return nil, fmt.Errorf("building deny policy: %w", err)
	}

	logger.Info("deny policy built",
		zap.Int("rules", policy.Rules()),
		zap.Int("ignore_patterns", len(ignorePatterns)))

	svc, err := sandbox.NewService(cfg.Repo.Root, policy, sandbox.Caps{
		MaxFileSize:    cfg.Repo.MaxFileSize,
		MaxTreeEntries: cfg.Repo.MaxTreeEntries,
	}, logger.Named("sandbox"))
	if err != nil {
		return nil, fmt.Errorf("creating sandbox service: %w", err)
	}

	return svc, nil
}
