package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/promoparse/internal/models"
)

// FileSink persists job state as a pretty-printed JSON file that the
// dashboard polls. Every write replaces the whole file.
type FileSink struct {
	path string
}

// NewFileSink creates the state file sink for a job. The file lives at
// <outputDir>/job_<jobID>_state.json.
func NewFileSink(outputDir, jobID string) (*FileSink, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}
	return &FileSink{
		path: filepath.Join(outputDir, fmt.Sprintf("job_%s_state.json", jobID)),
	}, nil
}

// Write overwrites the state file with the given snapshot.
func (s *FileSink) Write(state *models.JobState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal job state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write job state file: %w", err)
	}
	return nil
}

// Location returns the state file path.
func (s *FileSink) Location() string {
	return s.path
}
