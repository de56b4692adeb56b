package indexer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphy/snippet-chunker/internal/config"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func relPaths(t *testing.T, root string, files []string) []string {
	t.Helper()
	absRoot, err := filepath.Abs(root)
	require.NoError(t, err)

	out := make([]string, len(files))
	for i, f := range files {
		rel, err := filepath.Rel(absRoot, f)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func walk(t *testing.T, cfg config.ChunkConfig, exclusions []string, root string) []string {
	t.Helper()
	files, err := NewWalker(&cfg, exclusions).Walk(root)
	require.NoError(t, err)
	return relPaths(t, root, files)
}

func TestWalker(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "test.py", "def hello():\n    return 'Hello'\n")
	writeFile(t, tmpDir, "test_hello.py", "def test_hello():\n    pass\n")
	writeFile(t, tmpDir, "__pycache__/test.pyc", "binary")

	files := walk(t, config.DefaultChunkConfig(), nil, tmpDir)

	// .pyc is not an included extension
	assert.Equal(t, []string{"test.py", "test_hello.py"}, files)
}

func TestWalkerReturnsAbsolutePaths(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "main.py", "x = 1\n")

	cfg := config.DefaultChunkConfig()
	files, err := NewWalker(&cfg, nil).Walk(tmpDir)
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.True(t, filepath.IsAbs(files[0]))
}

func TestWalkerLexicalOrder(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "b.py", "")
	writeFile(t, tmpDir, "a/z.py", "")
	writeFile(t, tmpDir, "a/b/c.py", "")
	writeFile(t, tmpDir, "c.md", "")

	files := walk(t, config.DefaultChunkConfig(), nil, tmpDir)

	assert.Equal(t, []string{"a/b/c.py", "a/z.py", "b.py", "c.md"}, files)
}

func TestWalkerBlacklist(t *testing.T) {
	tmpDir := t.TempDir()

	for _, dir := range []string{".git", "node_modules", "venv", ".venv", "build", "patch"} {
		writeFile(t, tmpDir, dir+"/file.py", "# excluded")
		writeFile(t, tmpDir, "src/"+dir+"/file.py", "# excluded")
	}
	writeFile(t, tmpDir, "main.py", "# included")

	cfg := config.DefaultChunkConfig()
	cfg.ExcludeDirs = nil

	files := walk(t, cfg, nil, tmpDir)
	assert.Equal(t, []string{"main.py"}, files)
}

func TestWalkerMaxFileLimit(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "small.py", "x = 1\n")
	writeFile(t, tmpDir, "large.py", strings.Repeat("x", 61_000))

	files := walk(t, config.DefaultChunkConfig(), nil, tmpDir)
	assert.Equal(t, []string{"small.py"}, files)
}

func TestWalkerExtensions(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "app.js", "")
	writeFile(t, tmpDir, "app.min.js", "")
	writeFile(t, tmpDir, "App.PY", "")
	writeFile(t, tmpDir, "main.go", "")

	files := walk(t, config.DefaultChunkConfig(), nil, tmpDir)
	assert.Equal(t, []string{"App.PY", "app.js"}, files)

	cfg := config.DefaultChunkConfig()
	cfg.IncludeExts = nil
	files = walk(t, cfg, nil, tmpDir)
	assert.Equal(t, []string{"App.PY", "app.js", "main.go"}, files)
}

func TestWalkerDirectoryFilters(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "src/app.py", "")
	writeFile(t, tmpDir, "src/generated/out.py", "")
	writeFile(t, tmpDir, "srcs/other.py", "")
	writeFile(t, tmpDir, "docs/guide.md", "")

	tests := []struct {
		name     string
		include  []string
		exclude  []string
		expected []string
	}{
		{
			name:     "include dir prefix",
			include:  []string{"src"},
			expected: []string{"src/app.py", "src/generated/out.py"},
		},
		{
			name:     "include dir with slashes",
			include:  []string{"./docs/"},
			expected: []string{"docs/guide.md"},
		},
		{
			name:     "exclude dir segment",
			exclude:  []string{"generated"},
			expected: []string{"docs/guide.md", "src/app.py", "srcs/other.py"},
		},
		{
			name:     "exclude dir pattern",
			exclude:  []string{"src*/**"},
			expected: []string{"docs/guide.md"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultChunkConfig()
			cfg.IncludeDirs = tt.include
			cfg.ExcludeDirs = tt.exclude

			assert.Equal(t, tt.expected, walk(t, cfg, nil, tmpDir))
		})
	}
}

func TestWalkerExclusionList(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "keep.py", "")
	writeFile(t, tmpDir, "legacy/old.py", "")
	writeFile(t, tmpDir, "tests/snap.txt", "")

	files := walk(t, config.DefaultChunkConfig(), []string{"legacy/", "**/*.txt"}, tmpDir)
	assert.Equal(t, []string{"keep.py"}, files)
}

func TestWalkerDirectoryThreshold(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "top.py", "")
	for i := 0; i < 6; i++ {
		writeFile(t, tmpDir, fmt.Sprintf("crowded/f%d.py", i), "")
	}
	writeFile(t, tmpDir, "sparse/a.py", "")

	cfg := config.DefaultChunkConfig()
	cfg.DirFileThreshold = 5

	files := walk(t, cfg, nil, tmpDir)
	assert.Equal(t, []string{"sparse/a.py", "top.py"}, files)
}

func TestWalkerSkipsBinaryFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "text.txt", "plain text\n")
	writeFile(t, tmpDir, "blob.txt", "abc\x00def")

	files := walk(t, config.DefaultChunkConfig(), nil, tmpDir)
	assert.Equal(t, []string{"text.txt"}, files)
}

func TestWalkerSymlinkCycle(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "pkg/mod.py", "")

	if err := os.Symlink(filepath.Join(tmpDir, "pkg"), filepath.Join(tmpDir, "pkg", "loop")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	files := walk(t, config.DefaultChunkConfig(), nil, tmpDir)
	assert.Equal(t, []string{"pkg/mod.py"}, files)
}

func TestWalkerRejectsFileRoot(t *testing.T) {
	path := writeFile(t, t.TempDir(), "main.py", "")

	cfg := config.DefaultChunkConfig()
	_, err := NewWalker(&cfg, nil).Walk(path)
	assert.Error(t, err)
}

func TestFileFilterExcludeExtWins(t *testing.T) {
	cfg := config.DefaultChunkConfig()
	cfg.IncludeExts = []string{".js"}
	cfg.ExcludeExts = []string{".min.js"}

	f := newFileFilter(&cfg, nil)
	assert.True(t, f.matches("lib/app.js", 10))
	assert.False(t, f.matches("lib/app.min.js", 10))
}
