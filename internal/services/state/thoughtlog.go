package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/promoparse/internal/models"
)

// FileThoughtLog appends thought events to a JSONL file, one JSON object
// per line. The file is append-only; records are never rewritten.
type FileThoughtLog struct {
	path string
}

// NewFileThoughtLog creates the thought log for a job at
// <outputDir>/job_<jobID>_thoughts.jsonl.
func NewFileThoughtLog(outputDir, jobID string) (*FileThoughtLog, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}
	return &FileThoughtLog{
		path: filepath.Join(outputDir, fmt.Sprintf("job_%s_thoughts.jsonl", jobID)),
	}, nil
}

// Append writes one event as a single JSON line.
func (l *FileThoughtLog) Append(event models.ThoughtEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal thought event: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open thought log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append thought event: %w", err)
	}
	return nil
}

// Path returns the thought log file path.
func (l *FileThoughtLog) Path() string {
	return l.path
}
