package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphy/snippet-chunker/internal/config"
	"github.com/randalmurphy/snippet-chunker/internal/indexer"
	"github.com/randalmurphy/snippet-chunker/internal/sync"
)

var watchCmd = &cobra.Command{
	Use:   "watch [repo-path...]",
	Short: "Re-chunk repositories when their HEAD changes",
	Long: `Run a background loop that polls each repository's git HEAD and
re-chunks it when a new commit appears. With Redis configured this keeps the
span cache warm for the MCP server.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

var watchInterval string

func init() {
	watchCmd.Flags().StringVar(&watchInterval, "interval", "60s", "Check interval (e.g., 30s, 5m)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	interval, err := time.ParseDuration(watchInterval)
	if err != nil {
		return fmt.Errorf("invalid interval: %w", err)
	}

	globalCfg, err := loadGlobalConfig()
	if err != nil {
		return err
	}

	logger := slog.Default()
	opts, cleanup := pipelineOptions(globalCfg, true)
	defer cleanup()

	var repos []sync.Repo
	for _, arg := range args {
		repoPath, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
		if info, err := os.Stat(repoPath); err != nil || !info.IsDir() {
			logger.Warn("repo path not found", "path", repoPath)
			continue
		}

		repoCfg, err := config.LoadRepoConfig(repoPath, globalCfg.Chunking)
		if err != nil {
			return fmt.Errorf("failed to load repo config for %s: %w", repoPath, err)
		}

		pipeline, err := indexer.NewPipeline(&repoCfg, opts...)
		if err != nil {
			return fmt.Errorf("invalid config for %s: %w", repoPath, err)
		}

		repos = append(repos, sync.Repo{
			Name:    repoPath,
			Path:    repoPath,
			Chunker: pipeline,
		})
	}

	if len(repos) == 0 {
		return fmt.Errorf("no valid repos found")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = sync.NewDaemon(repos, interval, logger).Run(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
