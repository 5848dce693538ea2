package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/promoparse/internal/interfaces"
	"github.com/ternarybob/promoparse/internal/models"
)

type fakeSubmitter struct {
	jobID   string
	err     error
	lastURL string
}

func (f *fakeSubmitter) Submit(_ context.Context, url string, _ *models.JobFeatures, _ string) (string, error) {
	f.lastURL = url
	return f.jobID, f.err
}

type fakeIndex struct {
	jobs map[string]*models.JobState
}

func (f *fakeIndex) Upsert(_ context.Context, state *models.JobState) error {
	f.jobs[state.JobID] = state
	return nil
}

func (f *fakeIndex) Get(_ context.Context, jobID string) (*models.JobState, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job not found: %s", jobID)
	}
	return job, nil
}

func (f *fakeIndex) List(_ context.Context, opts *interfaces.JobIndexOptions) ([]*models.JobState, error) {
	var out []*models.JobState
	for _, job := range f.jobs {
		if opts != nil && opts.Status != "" && job.Status != opts.Status {
			continue
		}
		out = append(out, job)
	}
	return out, nil
}

func (f *fakeIndex) Delete(_ context.Context, jobID string) error {
	delete(f.jobs, jobID)
	return nil
}

func newJobHandler(t *testing.T) (*JobHandler, *fakeSubmitter, *fakeIndex, string) {
	t.Helper()
	submitter := &fakeSubmitter{jobID: "job_abc123"}
	index := &fakeIndex{jobs: map[string]*models.JobState{}}
	outputDir := t.TempDir()
	return NewJobHandler(submitter, index, outputDir, arbor.NewLogger()), submitter, index, outputDir
}

func TestCreateJob(t *testing.T) {
	handler, submitter, _, _ := newJobHandler(t)

	body := `{"url":"https://www.viewpresentation.com/66907679185","features":{"crm_upload":true}}`
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.JobsHandler(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "job_abc123", resp["job_id"])
	assert.Equal(t, "queued", resp["status"])
	assert.Equal(t, "https://www.viewpresentation.com/66907679185", submitter.lastURL)
}

func TestCreateJob_MissingURL(t *testing.T) {
	handler, _, _, _ := newJobHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.JobsHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListJobs(t *testing.T) {
	handler, _, index, _ := newJobHandler(t)
	index.jobs["job-1"] = models.NewJobState("job-1", models.PlatformESP, models.JobFeatures{})
	done := models.NewJobState("job-2", models.PlatformSAGE, models.JobFeatures{})
	done.Status = models.StatusCompleted
	index.jobs["job-2"] = done

	req := httptest.NewRequest(http.MethodGet, "/api/jobs?status=completed", nil)
	rec := httptest.NewRecorder()
	handler.JobsHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Jobs  []models.JobState `json:"jobs"`
		Count int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "job-2", resp.Jobs[0].JobID)
}

func TestGetJob(t *testing.T) {
	handler, _, index, _ := newJobHandler(t)
	index.jobs["job-1"] = models.NewJobState("job-1", models.PlatformESP, models.JobFeatures{})

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/job-1", nil)
	rec := httptest.NewRecorder()
	handler.JobRoutes(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var job models.JobState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, "job-1", job.JobID)

	req = httptest.NewRequest(http.MethodGet, "/api/jobs/nope", nil)
	rec = httptest.NewRecorder()
	handler.JobRoutes(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetThoughts(t *testing.T) {
	handler, _, _, outputDir := newJobHandler(t)

	lines := `{"id":"t1","timestamp":"2026-01-01T00:00:00Z","job_id":"job-1","agent":"pipeline","event_type":"decision","content":"Detected SAGE presentation"}
{"id":"t2","timestamp":"2026-01-01T00:00:01Z","job_id":"job-1","agent":"extractor","event_type":"result","content":"12 products"}
`
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "job_job-1_thoughts.jsonl"), []byte(lines), 0644))

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/job-1/thoughts", nil)
	rec := httptest.NewRecorder()
	handler.JobRoutes(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Events []models.ThoughtEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 2)
	assert.Equal(t, "t1", resp.Events[0].ID)
	assert.Equal(t, "extractor", resp.Events[1].Agent)
}

func TestGetThoughts_NoLog(t *testing.T) {
	handler, _, _, _ := newJobHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/unknown/thoughts", nil)
	rec := httptest.NewRecorder()
	handler.JobRoutes(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"events":[]}`, rec.Body.String())
}
