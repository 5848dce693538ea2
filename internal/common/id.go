package common

import (
	"strings"

	"github.com/google/uuid"
)

// NewJobID generates a unique job ID with the "job_" prefix
// Format: job_<uuid>
func NewJobID() string {
	return "job_" + uuid.New().String()
}

// NewThoughtID generates a short unique ID for a thought event
// Format: t_<8 hex chars>
func NewThoughtID() string {
	return "t_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}
