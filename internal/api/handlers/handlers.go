package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/medreport/internal/api/middleware"
	bq "github.com/dvloznov/medreport/internal/bigquery"
	"github.com/dvloznov/medreport/internal/jobs"
)

// Uploader stores an uploaded file as a pending document.
type Uploader interface {
	Upload(ctx context.Context, filename string, data []byte) (*bq.DocumentRow, error)
}

// DocumentsHandler handles document-related endpoints.
type DocumentsHandler struct {
	repo      bq.DocumentRepository
	uploader  Uploader
	publisher jobs.Publisher
	maxBytes  int64
	log       zerolog.Logger
}

// NewDocumentsHandler creates a new documents handler.
func NewDocumentsHandler(repo bq.DocumentRepository, uploader Uploader, publisher jobs.Publisher, maxBytes int64, log zerolog.Logger) *DocumentsHandler {
	return &DocumentsHandler{
		repo:      repo,
		uploader:  uploader,
		publisher: publisher,
		maxBytes:  maxBytes,
		log:       log,
	}
}

// ListDocuments handles GET /api/documents
func (h *DocumentsHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	log := requestLog(r, h.log)

	documents, err := h.repo.ListAllDocuments(r.Context())
	if err != nil {
		writeErr(w, log, "Failed to list documents", err)
		return
	}
	if documents == nil {
		documents = []*bq.DocumentRow{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"documents": documents,
		"count":     len(documents),
	})
}

// UploadDocument handles POST /api/documents/upload
func (h *DocumentsHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	log := requestLog(r, h.log)

	if err := parseForm(w, r, h.maxBytes); err != nil {
		writeErr(w, log, "Invalid upload", err)
		return
	}
	file, err := formFile(r, "file", ".docx", ".pdf")
	if err != nil {
		writeErr(w, log, "Invalid upload", err)
		return
	}

	doc, err := h.uploader.Upload(r.Context(), file.Name, file.Data)
	if err != nil {
		writeErr(w, log, "Failed to upload document", err)
		return
	}

	log.Info().
		Str("document_id", doc.DocumentID).
		Str("gcs_uri", doc.GCSURI).
		Int("bytes", len(file.Data)).
		Msg("File uploaded")

	middleware.WriteJSON(w, http.StatusCreated, doc)
}

// EnqueueProcessing handles POST /api/documents/process
func (h *DocumentsHandler) EnqueueProcessing(w http.ResponseWriter, r *http.Request) {
	log := requestLog(r, h.log)

	var req struct {
		DocumentID string `json:"document_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.DocumentID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "document_id is required")
		return
	}

	ctx := r.Context()
	doc, err := h.repo.GetDocument(ctx, req.DocumentID)
	if err != nil {
		writeErr(w, log, "Failed to load document", err)
		return
	}

	job, err := jobs.ForDocument(doc)
	if err != nil {
		writeErr(w, log, "Failed to enqueue job", err)
		return
	}
	if err := h.publisher.Publish(ctx, job); err != nil {
		writeErr(w, log, "Failed to enqueue job", err)
		return
	}

	log.Info().
		Str("job_id", job.JobID).
		Str("document_id", doc.DocumentID).
		Str("job_type", string(job.Type)).
		Msg("Job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":      job.JobID,
		"document_id": doc.DocumentID,
		"type":        string(job.Type),
		"status":      string(job.Status),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	log := requestLog(r, h.log).With().Str("job_id", jobID).Logger()

	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		writeErr(w, log, "Failed to get job", err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		DocumentID: query.Get("document_id"),
		Status:     jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		writeErr(w, requestLog(r, h.log), "Failed to list jobs", err)
		return
	}
	if jobsList == nil {
		jobsList = []*jobs.DocumentJob{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// MethodNotAllowed rejects requests with the wrong method.
func MethodNotAllowed(w http.ResponseWriter) {
	middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
