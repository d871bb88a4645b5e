package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/slide-explainer/internal/api/shared"
	"github.com/phrazzld/slide-explainer/internal/platform/logger"
	"github.com/phrazzld/slide-explainer/internal/service"
)

// Multipart form field names
const (
	FormFieldFile  = "file"
	FormFieldEmail = "email"
)

const (
	// multipartMemory is how much of an upload is buffered in memory before
	// spilling to temporary files.
	multipartMemory = 8 << 20

	// formOverhead allows for multipart boundaries and the other form fields.
	formOverhead = 1 << 20
)

// JobHandler handles job intake and status requests
type JobHandler struct {
	jobService     service.JobService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewJobHandler creates a new JobHandler. maxUploadBytes limits the size of
// uploaded documents; zero disables the limit.
func NewJobHandler(jobService service.JobService, maxUploadBytes int64, logger *slog.Logger) *JobHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobHandler{
		jobService:     jobService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With("component", "job_handler"),
	}
}

// SubmitJob handles POST /api/jobs requests
func (h *JobHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+formOverhead)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			HandleAPIError(w, r, err, "")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(FormFieldFile)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Missing file", err)
		return
	}
	defer file.Close()

	req := SubmitJobRequest{
		FileName: header.Filename,
		Email:    r.FormValue(FormFieldEmail),
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	job, err := h.jobService.Submit(r.Context(), service.SubmitRequest{
		SourceName: req.FileName,
		OwnerEmail: req.Email,
		Content:    file,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("job accepted", "job_id", job.ID, "source_name", job.SourceName)

	// 202 Accepted since processing happens asynchronously
	shared.RespondWithJSON(w, r, http.StatusAccepted, jobToResponse(job))
}

// GetJob handles GET /api/jobs/{id} requests
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		// An id that cannot be parsed was never issued.
		shared.RespondWithJSON(w, r, http.StatusNotFound, NotFoundResponse())
		return
	}

	job, err := h.jobService.Status(r.Context(), id)
	if err != nil {
		h.respondStatusError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(job))
}

// GetLatestJob handles GET /api/jobs/latest?email=&name= requests
func (h *JobHandler) GetLatestJob(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := LatestJobRequest{
		Name:  query.Get("name"),
		Email: query.Get("email"),
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	job, err := h.jobService.LatestStatus(r.Context(), req.Email, req.Name)
	if err != nil {
		h.respondStatusError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, jobToResponse(job))
}

func (h *JobHandler) respondStatusError(w http.ResponseWriter, r *http.Request, err error) {
	if MapErrorToStatusCode(err) == http.StatusNotFound {
		shared.RespondWithJSON(w, r, http.StatusNotFound, NotFoundResponse())
		return
	}
	HandleAPIError(w, r, err, "")
}
