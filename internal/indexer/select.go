package indexer

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/randalmurphy/snippet-chunker/internal/config"
)

// binarySniffLen is how much of a file is inspected for NUL bytes.
const binarySniffLen = 1024

// fileFilter applies the configured include/exclude rules to relative paths.
type fileFilter struct {
	includeDirs  []string
	excludeDirs  []string
	includeExts  []string
	excludeExts  []string
	exclusions   []string
	maxFileLimit int64
}

func newFileFilter(cfg *config.ChunkConfig, exclusions []string) *fileFilter {
	f := &fileFilter{
		excludeDirs:  cfg.ExcludeDirs,
		includeExts:  lowerAll(cfg.IncludeExts),
		excludeExts:  lowerAll(cfg.ExcludeExts),
		exclusions:   exclusions,
		maxFileLimit: cfg.MaxFileLimit,
	}
	for _, dir := range cfg.IncludeDirs {
		dir = strings.Trim(strings.TrimPrefix(dir, "./"), "/")
		if dir != "" {
			f.includeDirs = append(f.includeDirs, dir)
		}
	}
	return f
}

// matches reports whether relPath (slash separated, relative to the walk
// root) with the given size passes every filter.
func (f *fileFilter) matches(relPath string, size int64) bool {
	if size > f.maxFileLimit {
		return false
	}
	if !f.inIncludedDir(relPath) {
		return false
	}
	if f.inExcludedDir(relPath) {
		return false
	}

	lower := strings.ToLower(relPath)
	if len(f.includeExts) > 0 && !hasAnySuffix(lower, f.includeExts) {
		return false
	}
	if hasAnySuffix(lower, f.excludeExts) {
		return false
	}

	return !f.isExcluded(relPath)
}

func (f *fileFilter) inIncludedDir(relPath string) bool {
	if len(f.includeDirs) == 0 {
		return true
	}
	for _, dir := range f.includeDirs {
		if strings.HasPrefix(relPath, dir+"/") {
			return true
		}
	}
	return false
}

func (f *fileFilter) inExcludedDir(relPath string) bool {
	segments := strings.Split(relPath, "/")
	dirs := segments[:len(segments)-1]

	for _, pattern := range f.excludeDirs {
		if isPattern(pattern) {
			if matched, _ := doublestar.Match(pattern, relPath); matched {
				return true
			}
			continue
		}
		for _, segment := range dirs {
			if segment == pattern {
				return true
			}
		}
	}
	return false
}

func (f *fileFilter) isExcluded(relPath string) bool {
	for _, entry := range f.exclusions {
		if isPattern(entry) {
			if matched, _ := doublestar.Match(entry, relPath); matched {
				return true
			}
			continue
		}
		if strings.Contains(relPath, entry) {
			return true
		}
	}
	return false
}

// isPattern reports whether s contains glob metacharacters.
func isPattern(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

// isBinaryFile reports whether the head of the file contains a NUL byte.
func isBinaryFile(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	buf := make([]byte, binarySniffLen)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}
	return bytes.IndexByte(buf[:n], 0) >= 0, nil
}
