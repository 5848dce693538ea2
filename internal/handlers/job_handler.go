// -----------------------------------------------------------------------
// Job Handler - submission and dashboard queries
// -----------------------------------------------------------------------

package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/promoparse/internal/interfaces"
	"github.com/ternarybob/promoparse/internal/models"
)

// JobSubmitter starts a presentation job and returns its ID.
type JobSubmitter interface {
	Submit(ctx context.Context, url string, features *models.JobFeatures, requestedBy string) (string, error)
}

// JobHandler serves job submission and the dashboard's job queries.
type JobHandler struct {
	submitter JobSubmitter
	index     interfaces.JobIndex
	outputDir string
	logger    arbor.ILogger
}

// NewJobHandler creates a job handler.
func NewJobHandler(submitter JobSubmitter, index interfaces.JobIndex, outputDir string, logger arbor.ILogger) *JobHandler {
	return &JobHandler{
		submitter: submitter,
		index:     index,
		outputDir: outputDir,
		logger:    logger,
	}
}

type createJobRequest struct {
	URL         string              `json:"url"`
	Features    *models.JobFeatures `json:"features"`
	RequestedBy string              `json:"requested_by"`
}

// JobsHandler handles POST /api/jobs (submit) and GET /api/jobs (list).
func (h *JobHandler) JobsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createJob(w, r)
	case http.MethodGet:
		h.listJobs(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *JobHandler) createJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.URL == "" {
		WriteError(w, http.StatusBadRequest, "url is required")
		return
	}

	jobID, err := h.submitter.Submit(r.Context(), req.URL, req.Features, req.RequestedBy)
	if err != nil {
		h.logger.Error().Err(err).Str("url", req.URL).Msg("Job submission failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": string(models.StatusQueued),
	})
}

func (h *JobHandler) listJobs(w http.ResponseWriter, r *http.Request) {
	opts := &interfaces.JobIndexOptions{
		Status:   models.WorkflowStatus(r.URL.Query().Get("status")),
		Platform: r.URL.Query().Get("platform"),
		Limit:    QueryInt(r, "limit", 50),
		Offset:   QueryInt(r, "offset", 0),
	}

	jobs, err := h.index.List(r.Context(), opts)
	if err != nil {
		h.logger.Error().Err(err).Msg("Job listing failed")
		WriteError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}
	if jobs == nil {
		jobs = []*models.JobState{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// JobRoutes handles GET /api/jobs/{id} and GET /api/jobs/{id}/thoughts.
func (h *JobHandler) JobRoutes(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		h.getJob(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "thoughts":
		h.getThoughts(w, parts[0])
	default:
		WriteError(w, http.StatusNotFound, "not found")
	}
}

func (h *JobHandler) getJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.index.Get(r.Context(), jobID)
	if err != nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("job not found: %s", jobID))
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// getThoughts streams the job's append-only event log back as an array.
func (h *JobHandler) getThoughts(w http.ResponseWriter, jobID string) {
	path := filepath.Join(h.outputDir, fmt.Sprintf("job_%s_thoughts.jsonl", jobID))
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			WriteJSON(w, http.StatusOK, map[string]interface{}{"events": []models.ThoughtEvent{}})
			return
		}
		WriteError(w, http.StatusInternalServerError, "failed to read thought log")
		return
	}
	defer file.Close()

	events := []models.ThoughtEvent{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event models.ThoughtEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			h.logger.Warn().Err(err).Str("job_id", jobID).Msg("Skipping malformed thought log line")
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to read thought log")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}
