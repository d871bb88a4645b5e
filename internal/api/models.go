package api

import (
	"time"

	"github.com/phrazzld/slide-explainer/internal/domain"
)

// StatusNotFound is the status reported for jobs that do not exist.
const StatusNotFound = "not found"

// SubmitJobRequest holds the form fields of an upload.
type SubmitJobRequest struct {
	FileName string `validate:"required,max=255"`
	Email    string `validate:"omitempty,email,max=254"`
}

// LatestJobRequest holds the query parameters of a latest-job lookup.
type LatestJobRequest struct {
	Name  string `validate:"required,max=255"`
	Email string `validate:"omitempty,email,max=254"`
}

// ExplanationResponse is the explanation of one text block.
type ExplanationResponse struct {
	SlideIndex int    `json:"slide_index"`
	Text       string `json:"text"`
	Failed     bool   `json:"failed,omitempty"`
}

// JobResponse is the status of a job. Explanations is keyed by block
// position and is only present once the job is done.
type JobResponse struct {
	ID           string                      `json:"id"`
	SourceName   string                      `json:"source_name"`
	OwnerEmail   string                      `json:"owner_email,omitempty"`
	Status       string                      `json:"status"`
	CreatedAt    *time.Time                  `json:"created_at"`
	FinishedAt   *time.Time                  `json:"finished_at"`
	Topic        string                      `json:"topic,omitempty"`
	Explanations map[int]ExplanationResponse `json:"explanations"`
}

// NotFoundResponse is the body returned for unknown jobs.
func NotFoundResponse() JobResponse {
	return JobResponse{Status: StatusNotFound}
}

// jobToResponse converts a domain.Job to a JobResponse
func jobToResponse(job *domain.Job) JobResponse {
	created := job.CreatedAt
	resp := JobResponse{
		ID:         job.ID.String(),
		SourceName: job.SourceName,
		OwnerEmail: job.OwnerEmail,
		Status:     string(job.Status),
		CreatedAt:  &created,
		FinishedAt: job.FinishedAt,
	}

	if job.Result != nil {
		resp.Topic = job.Result.Topic
		resp.Explanations = make(map[int]ExplanationResponse, len(job.Result.Blocks))
		for pos, b := range job.Result.Blocks {
			resp.Explanations[pos] = ExplanationResponse{
				SlideIndex: b.SlideIndex,
				Text:       b.Text,
				Failed:     b.Failed,
			}
		}
	}

	return resp
}
