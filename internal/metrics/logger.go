// Package metrics provides JSONL event logging for analytics.
package metrics

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Event names written to the log.
const (
	EventChunkRun   = "chunk_run"
	EventFileFailed = "file_failed"
	EventError      = "error"
)

// Logger writes metrics events to JSONL file.
type Logger struct {
	file *os.File
	mu   sync.Mutex
}

// NewLogger creates a new metrics logger.
func NewLogger(path string) (*Logger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &Logger{file: file}, nil
}

// Close closes the log file.
func (l *Logger) Close() error {
	return l.file.Close()
}

func (l *Logger) log(event string, data map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339),
		"event": event,
	}
	for k, v := range data {
		e[k] = v
	}

	line, _ := json.Marshal(e)
	l.file.Write(line)
	l.file.Write([]byte("\n"))
}

// RunStats summarizes one pipeline run.
type RunStats struct {
	Files     int
	Snippets  int
	Failed    int
	CacheHits int
	Latency   time.Duration
}

// LogChunkRun logs a completed pipeline run.
func (l *Logger) LogChunkRun(stats RunStats) {
	l.log(EventChunkRun, map[string]any{
		"files":      stats.Files,
		"snippets":   stats.Snippets,
		"failed":     stats.Failed,
		"cache_hits": stats.CacheHits,
		"latency_ms": stats.Latency.Milliseconds(),
	})
}

// LogFileFailure logs a file that produced no snippets because of an error.
func (l *Logger) LogFileFailure(path, reason string) {
	l.log(EventFileFailed, map[string]any{
		"file":   path,
		"reason": reason,
	})
}

// LogError logs an error event.
func (l *Logger) LogError(operation, message string) {
	l.log(EventError, map[string]any{
		"operation": operation,
		"message":   message,
	})
}
