package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/mcp-pdf-autofill/internal/app"
	"github.com/a3tai/mcp-pdf-autofill/internal/config"
	"github.com/a3tai/mcp-pdf-autofill/internal/mcp"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion(os.Stdout)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// stdout is the protocol channel in stdio mode
	logger := app.NewLogger(cfg.LogLevel, os.Stderr)
	slog.SetDefault(logger)

	if version != "dev" {
		cfg.Version = version
	}
	logger.Debug("server.config", "config", cfg.String())

	pdfService, err := app.NewService(cfg, logger)
	if err != nil {
		logger.Error("server.init.failed", "error", err)
		os.Exit(1)
	}

	server, err := mcp.NewServer(cfg, pdfService, logger)
	if err != nil {
		logger.Error("server.init.failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := server.Run(ctx); err != nil {
		logger.Error("server.run.failed", "mode", cfg.Mode, "error", err)
		os.Exit(1)
	}
	logger.Info("server.stopped", "mode", cfg.Mode)
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP PDF Autofill\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
