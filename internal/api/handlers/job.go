package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tubescript/backend/internal/job"
	"github.com/tubescript/backend/internal/transcript"
	"github.com/tubescript/backend/internal/translate"
)

type JobHandler struct {
	queue *job.JobQueue
}

func NewJobHandler(queue *job.JobQueue) *JobHandler {
	return &JobHandler{queue: queue}
}

type translateJobRequest struct {
	Video     string   `json:"video"`
	Target    string   `json:"target"`
	Languages []string `json:"languages"`
}

// EnqueueTranslate queues a full transcript translation. video accepts a
// URL or a bare id.
func (h *JobHandler) EnqueueTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateJobRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	videoID, err := transcript.ExtractVideoID(req.Video)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	target, err := translate.NormalizeLang(req.Target)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	j, err := h.queue.Enqueue(job.JobTranslateTranscript, videoID, job.TranslateTranscriptParams{
		TargetLang: target,
		Languages:  req.Languages,
	})
	if err != nil {
		jsonError(w, "failed to queue job", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, j, http.StatusAccepted)
}

// ListJobs returns all jobs
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.queue.ListJobs()
	if err != nil {
		jsonError(w, "failed to list jobs: "+err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, jobs, http.StatusOK)
}

// ActiveJobs returns pending and running jobs only.
func (h *JobHandler) ActiveJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.queue.ListJobs()
	if err != nil {
		jsonError(w, "failed to list jobs: "+err.Error(), http.StatusInternalServerError)
		return
	}
	active := make([]*job.Job, 0, len(jobs))
	for _, j := range jobs {
		if j.Status == job.StatusPending || j.Status == job.StatusRunning {
			active = append(active, j)
		}
	}
	jsonResponse(w, active, http.StatusOK)
}

// GetJob returns a single job by ID
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	j, err := h.queue.GetJob(chi.URLParam(r, "id"))
	if err != nil {
		jobError(w, err)
		return
	}
	jsonResponse(w, j, http.StatusOK)
}

// CancelJob cancels a pending or running job
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	if err := h.queue.CancelJob(chi.URLParam(r, "id")); err != nil {
		jobError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RetryJob re-queues a failed or cancelled job
func (h *JobHandler) RetryJob(w http.ResponseWriter, r *http.Request) {
	j, err := h.queue.RetryJob(chi.URLParam(r, "id"))
	if err != nil {
		jobError(w, err)
		return
	}
	jsonResponse(w, j, http.StatusOK)
}

func jobError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, job.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, job.ErrNotRetryable):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		jsonError(w, "job operation failed: "+err.Error(), http.StatusInternalServerError)
	}
}
