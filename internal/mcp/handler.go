package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/randalmurphy/snippet-chunker/internal/cache"
	"github.com/randalmurphy/snippet-chunker/internal/chunk"
	"github.com/randalmurphy/snippet-chunker/internal/config"
	"github.com/randalmurphy/snippet-chunker/internal/indexer"
	"github.com/randalmurphy/snippet-chunker/internal/metrics"
	"github.com/randalmurphy/snippet-chunker/internal/security"
)

const defaultDirectoryLimit = 200

// Handler implements the chunking tools.
type Handler struct {
	base     config.ChunkConfig
	cache    *cache.RedisCache
	metrics  *metrics.Logger
	redactor *security.Redactor
	logger   *slog.Logger
}

// NewHandler creates a new tool handler. Redis and the metrics log are
// optional; the handler runs without them when they are unavailable.
func NewHandler(cfg *config.Config, logger *slog.Logger) (*Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := cfg.Chunking.Validate(); err != nil {
		return nil, err
	}

	h := &Handler{
		base:     cfg.Chunking,
		redactor: security.NewRedactor(),
		logger:   logger,
	}

	if cfg.Storage.RedisURL != "" {
		spanCache, err := cache.NewRedisCache(cfg.Storage.RedisURL)
		if err != nil {
			logger.Warn("Redis cache unavailable, continuing without cache", "error", err)
		} else {
			h.cache = spanCache
		}
	}

	metricsPath := cfg.MetricsPath()
	if err := os.MkdirAll(filepath.Dir(metricsPath), 0755); err == nil {
		h.metrics, _ = metrics.NewLogger(metricsPath)
	}

	return h, nil
}

// Close releases resources held by the handler.
func (h *Handler) Close() error {
	if h.cache != nil {
		h.cache.Close()
	}
	if h.metrics != nil {
		h.metrics.Close()
	}
	return nil
}

func (h *Handler) pipeline(cfg config.ChunkConfig) (*indexer.Pipeline, error) {
	opts := []indexer.Option{indexer.WithLogger(h.logger)}
	if h.cache != nil {
		opts = append(opts, indexer.WithCache(h.cache))
	}
	if h.metrics != nil {
		opts = append(opts, indexer.WithMetrics(h.metrics))
	}
	return indexer.NewPipeline(&cfg, opts...)
}

type snippetView struct {
	ID         string `json:"id"`
	FilePath   string `json:"file_path"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Denotation string `json:"denotation"`
	Content    string `json:"content,omitempty"`
	Redactions int    `json:"redactions,omitempty"`
}

// newSnippetViews renders snippets for a tool response. Content is masked
// by redactor when it is non-nil.
func newSnippetViews(snippets []chunk.Snippet, withContent bool, redactor *security.Redactor) []snippetView {
	views := make([]snippetView, len(snippets))
	for i, s := range snippets {
		views[i] = snippetView{
			ID:         s.ID(),
			FilePath:   s.FilePath,
			Start:      s.Start,
			End:        s.End,
			Denotation: s.Denotation(),
		}
		if !withContent {
			continue
		}
		views[i].Content = s.Text()
		if redactor != nil {
			views[i].Content, views[i].Redactions = redactor.Redact(views[i].Content)
		}
	}
	return views
}

type fileFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type directoryResult struct {
	Root      string        `json:"root"`
	Files     int           `json:"files"`
	Snippets  int           `json:"snippets"`
	Truncated bool          `json:"truncated"`
	Failed    []fileFailure `json:"failed,omitempty"`
	Results   []snippetView `json:"results"`
}

func (h *Handler) handleChunkFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path is required"), nil
	}
	withContent := request.GetBool("include_content", true)
	redactor := h.redactorFor(request)

	// Same overlay chunk_directory applies, taken from the file's repository.
	cfg, err := config.LoadRepoConfig(config.FindRepoRoot(filepath.Dir(path)), h.base)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load repo config: %v", err)), nil
	}

	p, err := h.pipeline(cfg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	snippets, err := p.ChunkFile(ctx, path)
	if err != nil {
		h.logger.Error("chunk_file failed", "path", path, "error", err)
		h.logFailure("chunk_file", err)
		return mcp.NewToolResultError(fmt.Sprintf("chunk failed: %v", err)), nil
	}

	return jsonResult(newSnippetViews(snippets, withContent, redactor))
}

func (h *Handler) handleChunkDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path is required"), nil
	}
	withContent := request.GetBool("include_content", false)
	redactor := h.redactorFor(request)
	limit := request.GetInt("limit", defaultDirectoryLimit)

	cfg, err := config.LoadRepoConfig(root, h.base)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load repo config: %v", err)), nil
	}

	p, err := h.pipeline(cfg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := p.ChunkDirectory(ctx, root)
	if err != nil {
		h.logger.Error("chunk_directory failed", "path", root, "error", err)
		h.logFailure("chunk_directory", err)
		return mcp.NewToolResultError(fmt.Sprintf("chunk failed: %v", err)), nil
	}

	snippets := result.Snippets
	out := directoryResult{
		Root:     root,
		Files:    len(result.Files),
		Snippets: len(snippets),
	}
	if limit > 0 && len(snippets) > limit {
		snippets = snippets[:limit]
		out.Truncated = true
	}
	out.Results = newSnippetViews(snippets, withContent, redactor)

	for _, fe := range result.Errors {
		out.Failed = append(out.Failed, fileFailure{Path: fe.Path, Error: fe.Err.Error()})
	}

	return jsonResult(out)
}

func (h *Handler) handleListFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path is required"), nil
	}

	cfg, err := config.LoadRepoConfig(root, h.base)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load repo config: %v", err)), nil
	}

	p, err := h.pipeline(cfg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	files, err := p.SelectFiles(root)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if files == nil {
		files = []string{}
	}

	return jsonResult(files)
}

func (h *Handler) logFailure(tool string, err error) {
	if h.metrics != nil {
		h.metrics.LogError(tool, err.Error())
	}
}

// redactorFor returns the redactor unless the caller passed redact=false.
func (h *Handler) redactorFor(request mcp.CallToolRequest) *security.Redactor {
	if !request.GetBool("redact", true) {
		return nil
	}
	return h.redactor
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
