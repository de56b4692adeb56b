package metrics

import (
	"bufio"
	"encoding/json"
	"os"
	"sort"
	"time"
)

// Analyzer processes metrics logs.
type Analyzer struct {
	logPath string
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(logPath string) *Analyzer {
	return &Analyzer{logPath: logPath}
}

// Summary contains aggregated metrics.
type Summary struct {
	Period        string      `json:"period"`
	TotalRuns     int         `json:"total_runs"`
	FilesChunked  int         `json:"files_chunked"`
	SnippetsTotal int         `json:"snippets_total"`
	FileFailures  int         `json:"file_failures"`
	CacheHits     int         `json:"cache_hits"`
	AvgLatencyMs  int64       `json:"avg_latency_ms"`
	TopFailures   []FileCount `json:"top_failures"`
}

// FileCount represents a file with its failure count.
type FileCount struct {
	File  string `json:"file"`
	Count int    `json:"count"`
}

// Analyze processes logs for a time period.
func (a *Analyzer) Analyze(since time.Duration) (*Summary, error) {
	summary := &Summary{Period: since.String()}

	failureCounts := make(map[string]int)
	var totalLatency int64

	err := a.scan(since, func(event map[string]any) {
		switch event["event"] {
		case EventChunkRun:
			summary.TotalRuns++
			summary.FilesChunked += intField(event, "files")
			summary.SnippetsTotal += intField(event, "snippets")
			summary.CacheHits += intField(event, "cache_hits")
			totalLatency += int64(intField(event, "latency_ms"))

		case EventFileFailed:
			summary.FileFailures++
			if file, ok := event["file"].(string); ok {
				failureCounts[file]++
			}
		}
	})
	if err != nil {
		return nil, err
	}

	if summary.TotalRuns > 0 {
		summary.AvgLatencyMs = totalLatency / int64(summary.TotalRuns)
	}

	top := sortCounts(failureCounts)
	if len(top) > 10 {
		top = top[:10]
	}
	summary.TopFailures = top

	return summary, nil
}

// GetFailedFiles returns every file that failed within the period, most
// frequent first.
func (a *Analyzer) GetFailedFiles(since time.Duration) ([]FileCount, error) {
	counts := make(map[string]int)

	err := a.scan(since, func(event map[string]any) {
		if event["event"] != EventFileFailed {
			return
		}
		file, _ := event["file"].(string)
		counts[file]++
	})
	if err != nil {
		return nil, err
	}

	return sortCounts(counts), nil
}

// scan calls fn for every well-formed event newer than since.
func (a *Analyzer) scan(since time.Duration, fn func(map[string]any)) error {
	file, err := os.Open(a.logPath)
	if err != nil {
		return err
	}
	defer file.Close()

	cutoff := time.Now().Add(-since)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var event map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}

		tsStr, ok := event["ts"].(string)
		if !ok {
			continue
		}
		ts, err := time.Parse(time.RFC3339, tsStr)
		if err != nil || ts.Before(cutoff) {
			continue
		}

		fn(event)
	}
	return scanner.Err()
}

func intField(event map[string]any, key string) int {
	v, _ := event[key].(float64)
	return int(v)
}

func sortCounts(counts map[string]int) []FileCount {
	var result []FileCount
	for f, c := range counts {
		result = append(result, FileCount{File: f, Count: c})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].File < result[j].File
	})

	return result
}
