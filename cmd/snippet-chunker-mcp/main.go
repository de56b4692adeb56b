// cmd/snippet-chunker-mcp/main.go
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/randalmurphy/snippet-chunker/internal/config"
	"github.com/randalmurphy/snippet-chunker/internal/mcp"
)

const (
	serverName    = "snippet-chunker-mcp"
	serverVersion = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:   "snippet-chunker-mcp",
	Short: "MCP server for snippet chunking",
	Long:  `An MCP (Model Context Protocol) server that exposes file selection and snippet chunking as tools.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long:  `Start the MCP server listening on stdin/stdout for JSON-RPC messages.`,
	RunE:  runServe,
}

var (
	logFile    string
	configPath string
)

func init() {
	serveCmd.Flags().StringVar(&logFile, "log-file", "", "Log file path (defaults to ~/.cache/snippet-chunker-mcp/server.log)")
	serveCmd.Flags().StringVar(&configPath, "config", "", "Global config file (defaults to ~/.config/snippet-chunker/config.yaml)")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	// Set up logging to file (NOT stdout - that's for MCP protocol)
	logger, cleanup, err := setupLogging()
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()

	logger.Info("starting MCP server", "name", serverName, "version", serverVersion)

	cfg, err := config.LoadConfig(globalConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	handler, err := mcp.NewHandler(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create handler: %w", err)
	}
	defer handler.Close()

	server := mcp.NewServer(serverName, serverVersion, handler, logger)

	// ServeStdio handles SIGINT/SIGTERM itself
	if err := server.ServeStdio(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func globalConfigPath() string {
	if configPath != "" {
		return configPath
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".snippet-chunker.yaml"
	}
	return filepath.Join(homeDir, ".config", "snippet-chunker", "config.yaml")
}

func setupLogging() (*slog.Logger, func(), error) {
	path := logFile
	if path == "" {
		// Default to ~/.cache/snippet-chunker-mcp/server.log
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			cacheDir = "/tmp"
		}
		logDir := filepath.Join(cacheDir, "snippet-chunker-mcp")
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		path = filepath.Join(logDir, "server.log")
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cleanup := func() {
		file.Close()
	}

	return logger, cleanup, nil
}
