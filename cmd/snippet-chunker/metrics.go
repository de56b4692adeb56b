package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphy/snippet-chunker/internal/metrics"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Analyze chunking metrics",
	Long:  `Summarize chunk runs and file failures from the metrics log.`,
	RunE:  runMetrics,
}

var (
	metricsSince  string
	metricsFailed bool
	metricsJSON   bool
)

func init() {
	metricsCmd.Flags().StringVar(&metricsSince, "last", "7d", "Time period (e.g., 1h, 24h, 7d, 30d)")
	metricsCmd.Flags().BoolVar(&metricsFailed, "failed", false, "Show only files that failed to chunk")
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	// Parse duration
	duration, err := parseDuration(metricsSince)
	if err != nil {
		return fmt.Errorf("invalid time period: %w", err)
	}

	cfg, err := loadGlobalConfig()
	if err != nil {
		return err
	}
	metricsPath := cfg.MetricsPath()

	if _, err := os.Stat(metricsPath); os.IsNotExist(err) {
		fmt.Println("No metrics data found. Run 'snippet-chunker chunk <path>' to generate metrics.")
		return nil
	}

	analyzer := metrics.NewAnalyzer(metricsPath)

	if metricsFailed {
		files, err := analyzer.GetFailedFiles(duration)
		if err != nil {
			return err
		}

		if metricsJSON {
			data, _ := json.MarshalIndent(files, "", "  ")
			fmt.Println(string(data))
		} else {
			fmt.Printf("Failed files (last %s):\n\n", metricsSince)
			if len(files) == 0 {
				fmt.Println("  No failures found.")
			}
			for _, f := range files {
				fmt.Printf("  - %s (%d times)\n", f.File, f.Count)
			}
		}
		return nil
	}

	summary, err := analyzer.Analyze(duration)
	if err != nil {
		return err
	}

	if metricsJSON {
		data, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("Metrics Summary (last %s):\n\n", metricsSince)
		fmt.Printf("  Chunk runs:     %d\n", summary.TotalRuns)
		fmt.Printf("  Files chunked:  %d\n", summary.FilesChunked)
		fmt.Printf("  Snippets:       %d\n", summary.SnippetsTotal)
		fmt.Printf("  Cache hits:     %d\n", summary.CacheHits)
		fmt.Printf("  Avg latency:    %dms\n", summary.AvgLatencyMs)
		fmt.Printf("  File failures:  %d\n", summary.FileFailures)
		if len(summary.TopFailures) > 0 {
			fmt.Println()
			fmt.Println("  Most frequent failures:")
			for _, f := range summary.TopFailures {
				fmt.Printf("    - %s (%d times)\n", f.File, f.Count)
			}
		}
	}

	return nil
}

func parseDuration(s string) (time.Duration, error) {
	// Handle day suffix
	if len(s) > 0 && s[len(s)-1] == 'd' {
		days := s[:len(s)-1]
		var d int
		if _, err := fmt.Sscanf(days, "%d", &d); err == nil {
			return time.Duration(d) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}
