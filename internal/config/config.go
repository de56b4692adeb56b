// internal/config/config.go
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// RepoConfigFile is the per-repository config file name.
const RepoConfigFile = ".ai-devtools.yaml"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds global configuration
type Config struct {
	Chunking ChunkConfig   `yaml:"chunking"`
	Storage  StorageConfig `yaml:"storage"`
	Logging  LoggingConfig `yaml:"logging"`
}

type StorageConfig struct {
	RedisURL string `yaml:"redis_url"` // empty disables the span cache
}

type LoggingConfig struct {
	Level      string `yaml:"level"` // error|warn|info|debug
	MetricsLog string `yaml:"metrics_log"`
}

// ChunkConfig controls file selection and chunking.
type ChunkConfig struct {
	IncludeDirs   []string `yaml:"include_dirs"`
	ExcludeDirs   []string `yaml:"exclude_dirs"`
	IncludeExts   []string `yaml:"include_exts"`
	ExcludeExts   []string `yaml:"exclude_exts"`
	MaxFileLimit  int64    `yaml:"max_file_limit"` // bytes
	ExclusionFile string   `yaml:"exclusion_file"`

	// DirFileThreshold skips directories with more immediate entries than this.
	DirFileThreshold int `yaml:"dir_file_threshold"`

	MaxChars       int `yaml:"max_chars"`
	Coalesce       int `yaml:"coalesce"`
	NaiveLineCount int `yaml:"naive_line_count"`
	NaiveOverlap   int `yaml:"naive_overlap"`

	// Workers is the pool size; 0 picks a quarter of the available CPUs.
	Workers int `yaml:"workers"`
}

// DefaultChunkConfig returns the selection and chunking defaults.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		IncludeDirs:      []string{},
		ExcludeDirs:      []string{".git", "node_modules", "venv"},
		IncludeExts:      []string{".cs", ".csharp", ".py", ".md", ".txt", ".ts", ".tsx", ".js", ".jsx", ".mjs"},
		ExcludeExts:      []string{".min.js", ".min.js.map", ".min.css", ".min.css.map"},
		MaxFileLimit:     60_000,
		ExclusionFile:    "exclusion.txt",
		DirFileThreshold: 240,
		MaxChars:         1500,
		Coalesce:         100,
		NaiveLineCount:   30,
		NaiveOverlap:     0,
	}
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Chunking: DefaultChunkConfig(),
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultMetricsPath returns where run metrics are written when no path is
// configured.
func DefaultMetricsPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".local", "share", "snippet-chunker", "metrics.jsonl")
}

// MetricsPath returns the configured metrics log, or the default location.
func (c *Config) MetricsPath() string {
	if c.Logging.MetricsLog != "" {
		return c.Logging.MetricsLog
	}
	return DefaultMetricsPath()
}

// Validate reports the first invalid setting.
func (c *ChunkConfig) Validate() error {
	switch {
	case c.MaxChars <= 0:
		return fmt.Errorf("%w: max_chars must be positive, got %d", ErrInvalidConfig, c.MaxChars)
	case c.Coalesce < 0:
		return fmt.Errorf("%w: coalesce must not be negative, got %d", ErrInvalidConfig, c.Coalesce)
	case c.NaiveLineCount <= 0:
		return fmt.Errorf("%w: naive_line_count must be positive, got %d", ErrInvalidConfig, c.NaiveLineCount)
	case c.NaiveOverlap < 0 || c.NaiveOverlap >= c.NaiveLineCount:
		return fmt.Errorf("%w: naive_overlap must be in [0, naive_line_count)", ErrInvalidConfig)
	case c.MaxFileLimit <= 0:
		return fmt.Errorf("%w: max_file_limit must be positive, got %d", ErrInvalidConfig, c.MaxFileLimit)
	case c.DirFileThreshold <= 0:
		return fmt.Errorf("%w: dir_file_threshold must be positive, got %d", ErrInvalidConfig, c.DirFileThreshold)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// EffectiveWorkers returns the worker pool size to use.
func (c *ChunkConfig) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return max(1, runtime.NumCPU()/4)
}

// LoadConfig loads config from file or returns defaults
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Chunking.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadRepoConfig overlays the snippet-chunker section of .ai-devtools.yaml in
// repoPath onto base. A missing file returns base unchanged.
func LoadRepoConfig(repoPath string, base ChunkConfig) (ChunkConfig, error) {
	path := filepath.Join(repoPath, RepoConfigFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return base, err
	}

	wrapper := struct {
		Chunking ChunkConfig `yaml:"snippet-chunker"`
	}{Chunking: base}

	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return base, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := wrapper.Chunking.Validate(); err != nil {
		return base, err
	}

	return wrapper.Chunking, nil
}

// FindRepoRoot returns the nearest directory at or above dir that holds
// .ai-devtools.yaml or a .git entry. When none is found, dir itself is
// returned.
func FindRepoRoot(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}

	for current := abs; ; {
		for _, marker := range []string{RepoConfigFile, ".git"} {
			if _, err := os.Stat(filepath.Join(current, marker)); err == nil {
				return current
			}
		}
		parent := filepath.Dir(current)
		if parent == current {
			return abs
		}
		current = parent
	}
}

// LoadExclusionList reads one path fragment per line. Blank lines and lines
// starting with # are ignored. A missing file yields an empty list.
func LoadExclusionList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	defer file.Close()

	exclusions := []string{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		exclusions = append(exclusions, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return exclusions, nil
}

// Marshal renders the chunking config as a repo config document.
func (c ChunkConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(map[string]ChunkConfig{"snippet-chunker": c})
}
