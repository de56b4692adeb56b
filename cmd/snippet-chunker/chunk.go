// cmd/snippet-chunker/chunk.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/randalmurphy/snippet-chunker/internal/cache"
	"github.com/randalmurphy/snippet-chunker/internal/chunk"
	"github.com/randalmurphy/snippet-chunker/internal/config"
	"github.com/randalmurphy/snippet-chunker/internal/indexer"
	"github.com/randalmurphy/snippet-chunker/internal/metrics"
	"github.com/randalmurphy/snippet-chunker/internal/security"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [file-or-directory]",
	Short: "Split a file or directory into snippets",
	Long: `Split a file, or every selected file under a directory, into snippets.
Settings come from the global config overlaid with the snippet-chunker
section of the repository's .ai-devtools.yaml.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

var (
	chunkJSON    bool
	chunkContent bool
	chunkWorkers int
	chunkNoCache bool
	chunkRedact  bool
)

func init() {
	chunkCmd.Flags().BoolVar(&chunkJSON, "json", false, "Output as JSON")
	chunkCmd.Flags().BoolVar(&chunkContent, "content", false, "Include snippet text in the output")
	chunkCmd.Flags().IntVar(&chunkWorkers, "workers", 0, "Files chunked concurrently (0 uses the config value)")
	chunkCmd.Flags().BoolVar(&chunkNoCache, "no-cache", false, "Skip the Redis span cache")
	chunkCmd.Flags().BoolVar(&chunkRedact, "redact", false, "Mask credentials in snippet text")
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	absPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("path not found: %w", err)
	}

	globalCfg, err := loadGlobalConfig()
	if err != nil {
		return err
	}

	root := absPath
	if !info.IsDir() {
		root = config.FindRepoRoot(filepath.Dir(absPath))
	}

	chunkCfg, err := config.LoadRepoConfig(root, globalCfg.Chunking)
	if err != nil {
		return fmt.Errorf("failed to load repo config: %w", err)
	}

	opts, cleanup := pipelineOptions(globalCfg, !chunkNoCache)
	defer cleanup()
	if chunkWorkers > 0 {
		opts = append(opts, indexer.WithWorkers(chunkWorkers))
	}

	pipeline, err := indexer.NewPipeline(&chunkCfg, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var result *indexer.Result
	if info.IsDir() {
		result, err = pipeline.ChunkDirectory(ctx, absPath)
	} else {
		result, err = pipeline.Run(ctx, []string{absPath})
	}
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}

	var redactor *security.Redactor
	if chunkRedact {
		redactor = security.NewRedactor()
	}

	report := newChunkReport(root, result, chunkContent, redactor)
	if chunkJSON {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	printChunkReport(cmd.OutOrStdout(), report)
	return nil
}

// pipelineOptions wires the optional span cache and metrics log. The returned
// cleanup closes whatever was opened.
func pipelineOptions(cfg *config.Config, useCache bool) ([]indexer.Option, func()) {
	logger := slog.Default()
	opts := []indexer.Option{indexer.WithLogger(logger)}
	var closers []func() error

	if useCache && cfg.Storage.RedisURL != "" {
		spanCache, err := cache.NewRedisCache(cfg.Storage.RedisURL)
		if err != nil {
			logger.Warn("Redis cache unavailable, continuing without cache", "error", err)
		} else {
			opts = append(opts, indexer.WithCache(spanCache))
			closers = append(closers, spanCache.Close)
		}
	}

	metricsPath := cfg.MetricsPath()
	if err := os.MkdirAll(filepath.Dir(metricsPath), 0755); err == nil {
		if metricsLogger, err := metrics.NewLogger(metricsPath); err == nil {
			opts = append(opts, indexer.WithMetrics(metricsLogger))
			closers = append(closers, metricsLogger.Close)
		}
	}

	return opts, func() {
		for _, c := range closers {
			c()
		}
	}
}

type snippetOutput struct {
	ID       string `json:"id"`
	FilePath string `json:"file_path"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Content  string `json:"content,omitempty"`
	Redacted int    `json:"redacted,omitempty"`
}

type fileErrorOutput struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type chunkReport struct {
	Root       string            `json:"root"`
	Files      []string          `json:"files"`
	Snippets   []snippetOutput   `json:"snippets"`
	Errors     []fileErrorOutput `json:"errors,omitempty"`
	CacheHits  int               `json:"cache_hits"`
	DurationMs int64             `json:"duration_ms"`
}

func newChunkReport(root string, result *indexer.Result, withContent bool, redactor *security.Redactor) chunkReport {
	report := chunkReport{
		Root:       root,
		Files:      make([]string, len(result.Files)),
		Snippets:   make([]snippetOutput, len(result.Snippets)),
		CacheHits:  result.Stats.CacheHits,
		DurationMs: result.Stats.Duration.Milliseconds(),
	}

	for i, f := range result.Files {
		report.Files[i] = relativeTo(root, f)
	}
	for i, s := range result.Snippets {
		report.Snippets[i] = newSnippetOutput(root, s, withContent, redactor)
	}
	for _, fe := range result.Errors {
		report.Errors = append(report.Errors, fileErrorOutput{
			Path:  relativeTo(root, fe.Path),
			Error: fe.Err.Error(),
		})
	}
	return report
}

func newSnippetOutput(root string, s chunk.Snippet, withContent bool, redactor *security.Redactor) snippetOutput {
	out := snippetOutput{
		ID:       s.ID(),
		FilePath: relativeTo(root, s.FilePath),
		Start:    s.Start,
		End:      s.End,
	}
	if !withContent {
		return out
	}
	out.Content = s.Text()
	if redactor != nil {
		out.Content, out.Redacted = redactor.Redact(out.Content)
	}
	return out
}

func printChunkReport(w io.Writer, report chunkReport) {
	for _, s := range report.Snippets {
		fmt.Fprintf(w, "%s:%d-%d\n", s.FilePath, s.Start+1, s.End)
		if s.Content != "" {
			fmt.Fprintln(w, s.Content)
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintf(w, "\nChunked %d files into %d snippets", len(report.Files), len(report.Snippets))
	if report.CacheHits > 0 {
		fmt.Fprintf(w, " (%d from cache)", report.CacheHits)
	}
	fmt.Fprintf(w, " in %dms\n", report.DurationMs)

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "  Errors: %d\n", len(report.Errors))
		for _, e := range report.Errors {
			fmt.Fprintf(w, "    - %s: %s\n", e.Path, e.Error)
		}
	}
}

func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
