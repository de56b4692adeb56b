package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/randalmurphy/snippet-chunker/internal/cache"
	"github.com/randalmurphy/snippet-chunker/internal/chunk"
	"github.com/randalmurphy/snippet-chunker/internal/config"
	"github.com/randalmurphy/snippet-chunker/internal/metrics"
	"github.com/randalmurphy/snippet-chunker/internal/parser"
)

var (
	// ErrParseFailed marks a file in a recognized language that could not be parsed.
	ErrParseFailed = errors.New("parse failed")
	// ErrChunkPanic marks a file whose chunking panicked.
	ErrChunkPanic = errors.New("chunking panicked")
)

// SpanCache stores the spans computed for a file so unchanged files can skip
// parsing.
type SpanCache interface {
	GetSpans(ctx context.Context, key string) ([]chunk.Span, bool, error)
	SetSpans(ctx context.Context, key string, spans []chunk.Span) error
}

// MetricsSink receives run events.
type MetricsSink interface {
	LogChunkRun(stats metrics.RunStats)
	LogFileFailure(path, reason string)
}

type parseFunc func(ctx context.Context, lang parser.Language, source []byte) (parser.Node, error)

// Pipeline chunks a list of files concurrently and aggregates the snippets
// in input order.
type Pipeline struct {
	cfg     *config.ChunkConfig
	naive   *chunk.NaiveChunker
	workers int
	cache   SpanCache
	metrics MetricsSink
	logger  *slog.Logger
	parse   parseFunc
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets the number of files chunked concurrently.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithCache enables the span cache.
func WithCache(c SpanCache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithMetrics enables run metrics.
func WithMetrics(m MetricsSink) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// NewPipeline creates a pipeline for cfg.
func NewPipeline(cfg *config.ChunkConfig, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	naive, err := chunk.NewNaiveChunker(cfg.NaiveLineCount, cfg.NaiveOverlap)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:     cfg,
		naive:   naive,
		workers: cfg.EffectiveWorkers(),
		logger:  slog.Default(),
		parse:   parseSource,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// FileError records a file that produced no snippets because it could not
// be read, parsed or chunked.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Stats contains statistics from a pipeline run.
type Stats struct {
	Files     int
	Snippets  int
	Failed    int
	CacheHits int
	Duration  time.Duration
}

// Result is the output of a pipeline run.
type Result struct {
	// Snippets holds every snippet, grouped by file in input order.
	Snippets []chunk.Snippet
	// Files is the input file list.
	Files []string
	// PerFile[i] holds the snippets of Files[i].
	PerFile [][]chunk.Snippet
	Errors  []FileError
	Stats   Stats
}

type fileResult struct {
	snippets []chunk.Snippet
	err      error
	cacheHit bool
}

// Run chunks files with a bounded worker pool. A file that cannot be read or
// parsed contributes no snippets and a FileError; only cancellation of ctx
// fails the run.
func (p *Pipeline) Run(ctx context.Context, files []string) (*Result, error) {
	start := time.Now()
	results := make([]fileResult, len(files))

	var g errgroup.Group
	g.SetLimit(p.workers)

	for i, path := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = p.chunkFile(ctx, path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		Files:   files,
		PerFile: make([][]chunk.Snippet, len(files)),
	}
	for i, r := range results {
		result.PerFile[i] = r.snippets
		result.Snippets = append(result.Snippets, r.snippets...)
		if r.err != nil {
			result.Errors = append(result.Errors, FileError{Path: files[i], Err: r.err})
		}
		if r.cacheHit {
			result.Stats.CacheHits++
		}
	}

	result.Stats.Files = len(files)
	result.Stats.Snippets = len(result.Snippets)
	result.Stats.Failed = len(result.Errors)
	result.Stats.Duration = time.Since(start)

	p.logger.Info("chunked files",
		"files", result.Stats.Files,
		"snippets", result.Stats.Snippets,
		"failed", result.Stats.Failed,
		"cache_hits", result.Stats.CacheHits,
		"duration", result.Stats.Duration)

	if p.metrics != nil {
		p.metrics.LogChunkRun(metrics.RunStats{
			Files:     result.Stats.Files,
			Snippets:  result.Stats.Snippets,
			Failed:    result.Stats.Failed,
			CacheHits: result.Stats.CacheHits,
			Latency:   result.Stats.Duration,
		})
	}

	return result, nil
}

// ChunkDirectory selects the files under root and chunks them. A relative
// exclusion file is resolved against root.
func (p *Pipeline) ChunkDirectory(ctx context.Context, root string) (*Result, error) {
	files, err := p.SelectFiles(root)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, files)
}

// SelectFiles returns the files under root that the pipeline would chunk.
func (p *Pipeline) SelectFiles(root string) ([]string, error) {
	exclusionPath := p.cfg.ExclusionFile
	if exclusionPath != "" && !filepath.IsAbs(exclusionPath) {
		exclusionPath = filepath.Join(root, exclusionPath)
	}

	var exclusions []string
	if exclusionPath != "" {
		var err error
		exclusions, err = config.LoadExclusionList(exclusionPath)
		if err != nil {
			return nil, fmt.Errorf("load exclusion list: %w", err)
		}
	}

	files, err := NewWalker(p.cfg, exclusions).WithLogger(p.logger).Walk(root)
	if err != nil {
		return nil, fmt.Errorf("walk failed: %w", err)
	}
	return files, nil
}

// ChunkFile chunks a single file. Read, parse and chunking failures are
// returned as errors.
func (p *Pipeline) ChunkFile(ctx context.Context, path string) ([]chunk.Snippet, error) {
	r := p.chunkFile(ctx, path)
	return r.snippets, r.err
}

func (p *Pipeline) chunkFile(ctx context.Context, path string) (r fileResult) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("chunking panicked", "path", path, "panic", rec)
			p.recordFailure(path, fmt.Sprint(rec))
			r = fileResult{err: fmt.Errorf("%w: %v", ErrChunkPanic, rec)}
		}
	}()

	source, err := os.ReadFile(path)
	if err != nil {
		p.logger.Warn("failed to read file", "path", path, "error", err)
		p.recordFailure(path, err.Error())
		return fileResult{err: fmt.Errorf("read %s: %w", path, err)}
	}

	spans, hit, err := p.spans(ctx, path, source)
	if err != nil {
		return fileResult{err: err}
	}
	return fileResult{
		snippets: chunk.NewSnippets(string(source), path, spans),
		cacheHit: hit,
	}
}

// spans returns the line spans for one file, consulting the cache first.
func (p *Pipeline) spans(ctx context.Context, path string, source []byte) ([]chunk.Span, bool, error) {
	var key string
	if p.cache != nil {
		key = cache.SpanCacheKey(path, source, p.params())
		spans, ok, err := p.cache.GetSpans(ctx, key)
		if err != nil {
			p.logger.Debug("span cache read failed", "path", path, "error", err)
		} else if ok {
			return spans, true, nil
		}
	}

	spans, err := p.computeSpans(ctx, path, source)
	if err != nil {
		return nil, false, err
	}
	if p.cache != nil {
		if err := p.cache.SetSpans(ctx, key, spans); err != nil {
			p.logger.Debug("span cache write failed", "path", path, "error", err)
		}
	}
	return spans, false, nil
}

// computeSpans chunks source structurally when its language is recognized and
// by line windows otherwise. A parse failure is not retried with line windows.
func (p *Pipeline) computeSpans(ctx context.Context, path string, source []byte) ([]chunk.Span, error) {
	lang, recognized := parser.DetectLanguage(path)
	if !recognized {
		return p.naive.Chunk(string(source)), nil
	}

	root, err := p.parse(ctx, lang, source)
	if err != nil {
		p.logger.Warn("failed to parse file", "path", path, "language", lang, "error", err)
		p.recordFailure(path, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	return chunk.ChunkTree(root, source, p.cfg.MaxChars, p.cfg.Coalesce), nil
}

func (p *Pipeline) recordFailure(path, reason string) {
	if p.metrics != nil {
		p.metrics.LogFileFailure(path, reason)
	}
}

// params identifies the settings that affect computed spans.
func (p *Pipeline) params() string {
	return fmt.Sprintf("%d:%d:%d:%d", p.cfg.MaxChars, p.cfg.Coalesce, p.cfg.NaiveLineCount, p.cfg.NaiveOverlap)
}

func parseSource(ctx context.Context, lang parser.Language, source []byte) (parser.Node, error) {
	p, err := parser.NewParser(lang)
	if err != nil {
		return parser.Node{}, err
	}
	defer p.Close()

	return p.Parse(ctx, source)
}
