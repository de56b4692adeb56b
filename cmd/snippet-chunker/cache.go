// cmd/snippet-chunker/cache.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphy/snippet-chunker/internal/cache"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Drop every cached span list from Redis",
	Long: `Removes the spans cached by previous chunk runs. Entries are keyed by
file content and chunker settings, so this is only needed to reclaim memory
or after changing grammars.`,
	Args: cobra.NoArgs,
	RunE: runClearCache,
}

func init() {
	rootCmd.AddCommand(clearCacheCmd)
}

func runClearCache(cmd *cobra.Command, args []string) error {
	cfg, err := loadGlobalConfig()
	if err != nil {
		return err
	}

	if cfg.Storage.RedisURL == "" {
		fmt.Println("No Redis configured; nothing to clear.")
		return nil
	}

	redisCache, err := cache.NewRedisCache(cfg.Storage.RedisURL)
	if err != nil {
		return err
	}
	defer redisCache.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := redisCache.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	fmt.Println("Span cache cleared.")
	return nil
}
