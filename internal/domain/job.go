package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a job. It is a closed set:
// a job is either waiting to be processed or finished.
type JobStatus string

// Possible job status values
const (
	JobStatusPending JobStatus = "pending"
	JobStatusDone    JobStatus = "done"
)

// Validation errors for Job
var (
	ErrEmptyJobID           = errors.New("job ID cannot be empty")
	ErrEmptySourceName      = errors.New("job source name cannot be empty")
	ErrMissingFinishTime    = errors.New("done job must have a finish time")
	ErrUnexpectedFinishTime = errors.New("pending job cannot have a finish time")
	ErrUnexpectedResult     = errors.New("pending job cannot have a result")
)

// IsValid reports whether s is one of the known job statuses.
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusDone:
		return true
	default:
		return false
	}
}

// ParseJobStatus converts a stored status string into a JobStatus.
func ParseJobStatus(s string) (JobStatus, error) {
	status := JobStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidJobStatus, s)
	}
	return status, nil
}

// Job is one submitted document tracked from intake until its explanations
// have been generated. FinishedAt is set if and only if Status is done, and
// Result is only present on done jobs.
type Job struct {
	ID         uuid.UUID          `json:"id"`
	SourceName string             `json:"source_name"`
	OwnerEmail string             `json:"owner_email,omitempty"`
	Status     JobStatus          `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
	Result     *ExplanationResult `json:"result,omitempty"`
}

// NewJob creates a pending job for the named document. ownerEmail may be
// empty for anonymous submissions. Directory components are stripped from
// sourceName so only the original file name is kept.
func NewJob(sourceName, ownerEmail string) (*Job, error) {
	name := strings.TrimSpace(sourceName)
	if name != "" {
		name = filepath.Base(filepath.ToSlash(name))
		if name == "." || name == "/" {
			name = ""
		}
	}

	job := &Job{
		ID:         uuid.New(),
		SourceName: name,
		OwnerEmail: NormalizeEmail(ownerEmail),
		Status:     JobStatusPending,
		// Stores keep microsecond precision; truncating here keeps round trips exact.
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the Job has valid data and satisfies the lifecycle invariants.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if j.SourceName == "" {
		return ErrEmptySourceName
	}

	if j.OwnerEmail != "" {
		if err := ValidateEmail(j.OwnerEmail); err != nil {
			return err
		}
	}

	if !j.Status.IsValid() {
		return ErrInvalidJobStatus
	}

	switch j.Status {
	case JobStatusDone:
		if j.FinishedAt == nil {
			return ErrMissingFinishTime
		}
	case JobStatusPending:
		if j.FinishedAt != nil {
			return ErrUnexpectedFinishTime
		}
		if j.Result != nil {
			return ErrUnexpectedResult
		}
	}

	return nil
}

// IsDone reports whether the job has finished processing.
func (j *Job) IsDone() bool {
	return j.Status == JobStatusDone
}

// MarkDone moves a pending job to done, recording when it finished and its
// result. A done job never changes again, so calling MarkDone on one returns
// ErrInvalidTransition and leaves it untouched.
func (j *Job) MarkDone(finishedAt time.Time, result ExplanationResult) error {
	if j.IsDone() {
		return ErrInvalidTransition
	}

	finished := finishedAt.UTC().Truncate(time.Microsecond)
	j.Status = JobStatusDone
	j.FinishedAt = &finished
	j.Result = &result
	return nil
}

// DocumentKey is the name under which the uploaded document is stored:
// the job ID followed by the lower-cased extension of the source name.
func (j *Job) DocumentKey() string {
	return j.ID.String() + strings.ToLower(filepath.Ext(j.SourceName))
}

// ResultKey is the name of the result artifact written for a done job.
func (j *Job) ResultKey() string {
	return j.ID.String() + ".json"
}
