// Package sync re-chunks watched repositories when their git HEAD moves.
package sync

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/randalmurphy/snippet-chunker/internal/indexer"
)

// DirectoryChunker chunks every selected file under a root.
type DirectoryChunker interface {
	ChunkDirectory(ctx context.Context, root string) (*indexer.Result, error)
}

// Repo is one watched repository and the pipeline configured for it.
type Repo struct {
	Name    string
	Path    string
	Chunker DirectoryChunker
}

// Daemon polls repositories and re-chunks those whose HEAD changed. With a
// span cache attached to the chunkers this keeps the cache warm.
type Daemon struct {
	repos    []Repo
	interval time.Duration
	logger   *slog.Logger
	heads    map[string]string // repo name -> last chunked HEAD
}

// NewDaemon creates a new sync daemon.
func NewDaemon(repos []Repo, interval time.Duration, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		repos:    repos,
		interval: interval,
		logger:   logger,
		heads:    make(map[string]string),
	}
}

// Run chunks every repository once, then again on each tick where HEAD has
// moved, until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info("starting sync daemon", "interval", d.interval, "repos", len(d.repos))

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.SyncAll(ctx)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon shutting down")
			return ctx.Err()
		case <-ticker.C:
			d.SyncAll(ctx)
		}
	}
}

// SyncAll checks each repository once. Failures are logged and do not stop
// the remaining repositories.
func (d *Daemon) SyncAll(ctx context.Context) {
	for _, repo := range d.repos {
		if ctx.Err() != nil {
			return
		}
		if _, err := d.syncRepo(ctx, repo); err != nil {
			d.logger.Error("sync failed", "repo", repo.Name, "error", err)
		}
	}
}

// syncRepo reports whether the repository was re-chunked.
func (d *Daemon) syncRepo(ctx context.Context, repo Repo) (bool, error) {
	currentHead, err := gitHead(repo.Path)
	if err != nil {
		return false, fmt.Errorf("failed to get HEAD: %w", err)
	}

	cachedHead := d.heads[repo.Name]
	if currentHead == cachedHead {
		d.logger.Debug("repo unchanged", "name", repo.Name)
		return false, nil
	}

	d.logger.Info("repo changed, chunking", "name", repo.Name, "old_head", truncateHash(cachedHead), "new_head", truncateHash(currentHead))

	result, err := repo.Chunker.ChunkDirectory(ctx, repo.Path)
	if err != nil {
		return false, fmt.Errorf("chunking failed: %w", err)
	}

	d.logger.Info("sync complete",
		"repo", repo.Name,
		"files", result.Stats.Files,
		"snippets", result.Stats.Snippets,
		"failed", result.Stats.Failed,
		"cache_hits", result.Stats.CacheHits,
	)

	d.heads[repo.Name] = currentHead
	return true, nil
}

// gitHead returns the current HEAD commit hash.
func gitHead(repoPath string) (string, error) {
	cmd := exec.Command("git", "-C", repoPath, "rev-parse", "HEAD")
	output, err := cmd.Output()
	if err == nil {
		return strings.TrimSpace(string(output)), nil
	}

	// Fallback: read .git/HEAD directly
	headData, err := os.ReadFile(filepath.Join(repoPath, ".git", "HEAD"))
	if err != nil {
		return "", err
	}

	content := strings.TrimSpace(string(headData))

	if ref, ok := strings.CutPrefix(content, "ref: "); ok {
		refData, err := os.ReadFile(filepath.Join(repoPath, ".git", ref))
		if err != nil {
			// Packed ref; hash the ref name instead
			h := sha256.Sum256([]byte(content))
			return fmt.Sprintf("%x", h[:8]), nil
		}
		return strings.TrimSpace(string(refData)), nil
	}

	// Detached HEAD
	return content, nil
}

func truncateHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
