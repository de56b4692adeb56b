// cmd/snippet-chunker/files.go
package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/randalmurphy/snippet-chunker/internal/config"
	"github.com/randalmurphy/snippet-chunker/internal/indexer"
)

var filesCmd = &cobra.Command{
	Use:   "files [directory]",
	Short: "List the files that would be chunked",
	Args:  cobra.ExactArgs(1),
	RunE:  runFiles,
}

var filesJSON bool

func init() {
	filesCmd.Flags().BoolVar(&filesJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(filesCmd)
}

func runFiles(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	globalCfg, err := loadGlobalConfig()
	if err != nil {
		return err
	}

	chunkCfg, err := config.LoadRepoConfig(root, globalCfg.Chunking)
	if err != nil {
		return fmt.Errorf("failed to load repo config: %w", err)
	}

	pipeline, err := indexer.NewPipeline(&chunkCfg)
	if err != nil {
		return err
	}

	files, err := pipeline.SelectFiles(root)
	if err != nil {
		return err
	}

	rel := make([]string, len(files))
	for i, f := range files {
		rel[i] = relativeTo(root, f)
	}

	if filesJSON {
		return writeJSON(cmd.OutOrStdout(), rel)
	}
	for _, f := range rel {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
	return nil
}
