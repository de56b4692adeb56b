// cmd/snippet-chunker/main.go
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphy/snippet-chunker/internal/config"
	"github.com/randalmurphy/snippet-chunker/internal/parser"
)

const version = "v0.1.0"

var rootCmd = &cobra.Command{
	Use:   "snippet-chunker",
	Short: "Split source trees into retrieval-sized snippets",
	Long: `Select the chunkable files in a directory and split each one into
line-range snippets, along syntax boundaries where a grammar is available
and in fixed line windows otherwise.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseLevel(logLevel)
		if err != nil {
			return err
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
		return nil
	},
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("snippet-chunker " + version)

		langs := make([]string, 0, len(parser.SupportedLanguages()))
		for _, lang := range parser.SupportedLanguages() {
			langs = append(langs, string(lang))
		}
		fmt.Println("grammars: " + strings.Join(langs, ", "))
	},
}

var (
	configPath string
	logLevel   string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Global config file (defaults to ~/.config/snippet-chunker/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: error, warn, info, debug")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "error":
		return slog.LevelError, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	}
	return 0, fmt.Errorf("invalid log level: %s", s)
}

func getGlobalConfigPath() string {
	if configPath != "" {
		return configPath
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory config
		return ".snippet-chunker.yaml"
	}
	return filepath.Join(homeDir, ".config", "snippet-chunker", "config.yaml")
}

func loadGlobalConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getGlobalConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load global config: %w", err)
	}
	return cfg, nil
}
