// cmd/snippet-chunker/init.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/randalmurphy/snippet-chunker/internal/config"
	"github.com/randalmurphy/snippet-chunker/internal/parser"
)

var initCmd = &cobra.Command{
	Use:   "init [repo-path]",
	Short: "Initialize chunking configuration for a repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	repoPath := args[0]

	// Resolve to absolute path
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	// Check if repo exists
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", absPath)
	}

	// Check for existing config
	configPath := filepath.Join(absPath, config.RepoConfigFile)
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config already exists at %s\n", configPath)
		return nil
	}

	cfg := config.DefaultChunkConfig()
	cfg.IncludeExts = detectIncludeExts(absPath, cfg.IncludeExts)

	data, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Review and customize the config file\n")
	fmt.Printf("  2. Run: snippet-chunker chunk %s\n", absPath)

	return nil
}

// detectIncludeExts extends base with the extensions of any supported
// language found near the top of the repository.
func detectIncludeExts(repoPath string, base []string) []string {
	exts := slices.Clone(base)

	for _, ext := range parser.SupportedExtensions() {
		if slices.Contains(exts, ext) {
			continue
		}
		if hasFiles(repoPath, "*"+ext) {
			exts = append(exts, ext)
		}
	}

	return exts
}

func hasFiles(dir string, pattern string) bool {
	matches, _ := filepath.Glob(filepath.Join(dir, pattern))
	if len(matches) > 0 {
		return true
	}
	// Check one level down
	matches, _ = filepath.Glob(filepath.Join(dir, "*", pattern))
	return len(matches) > 0
}
