// Package indexer provides the file walker and chunking pipeline.
package indexer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/randalmurphy/snippet-chunker/internal/config"
)

// blacklistedDirs are never descended into, whatever the config says.
var blacklistedDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"venv":         {},
	".venv":        {},
	"build":        {},
	"patch":        {},
}

// Walker traverses a directory tree and selects files worth chunking.
type Walker struct {
	cfg    *config.ChunkConfig
	filter *fileFilter
	logger *slog.Logger
}

// NewWalker creates a walker for cfg. exclusions is the loaded exclusion list.
func NewWalker(cfg *config.ChunkConfig, exclusions []string) *Walker {
	return &Walker{
		cfg:    cfg,
		filter: newFileFilter(cfg, exclusions),
		logger: slog.Default(),
	}
}

// WithLogger sets the logger used for skipped entries.
func (w *Walker) WithLogger(logger *slog.Logger) *Walker {
	w.logger = logger
	return w
}

// Walk returns the absolute paths of every selected file under root, in
// depth-first lexical order.
func (w *Walker) Walk(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var files []string
	visited := make(map[string]struct{})
	stack := []string{absRoot}

	for len(stack) > 0 {
		path := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		info, err := os.Stat(path) // follows symlinks
		if err != nil {
			w.logger.Debug("skipping unreadable entry", "path", path, "error", err)
			continue
		}

		if !info.IsDir() {
			if w.accept(absRoot, path, info) {
				files = append(files, path)
			}
			continue
		}

		if path != absRoot {
			if _, ok := blacklistedDirs[filepath.Base(path)]; ok {
				continue
			}
		}

		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			w.logger.Debug("skipping unresolvable directory", "path", path, "error", err)
			continue
		}
		if _, seen := visited[real]; seen {
			w.logger.Debug("skipping visited directory", "path", path, "real_path", real)
			continue
		}
		visited[real] = struct{}{}

		entries, err := os.ReadDir(path)
		if err != nil {
			w.logger.Debug("skipping unreadable directory", "path", path, "error", err)
			continue
		}

		if len(entries) > w.cfg.DirFileThreshold {
			w.logger.Debug("skipping large directory", "path", path, "entries", len(entries))
			continue
		}

		// ReadDir sorts by name; push in reverse so entries pop in order.
		for _, entry := range slices.Backward(entries) {
			stack = append(stack, filepath.Join(path, entry.Name()))
		}
	}

	return files, nil
}

func (w *Walker) accept(root, path string, info os.FileInfo) bool {
	if !info.Mode().IsRegular() {
		return false
	}

	relPath, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	// Normalize to forward slashes for pattern matching
	relPath = filepath.ToSlash(relPath)

	if !w.filter.matches(relPath, info.Size()) {
		return false
	}

	binary, err := isBinaryFile(path)
	if err != nil {
		w.logger.Debug("skipping unreadable file", "path", path, "error", err)
		return false
	}
	return !binary
}
