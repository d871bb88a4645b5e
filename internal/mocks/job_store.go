package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/slide-explainer/internal/domain"
	"github.com/phrazzld/slide-explainer/internal/store"
)

// MockJobStore is an in-memory store.JobStore. It is safe for concurrent use.
type MockJobStore struct {
	// Function fields for customizable behavior
	CreateFn                   func(ctx context.Context, job *domain.Job) error
	GetByIDFn                  func(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	FindPendingFn              func(ctx context.Context) ([]*domain.Job, error)
	FindLatestByOwnerAndNameFn func(ctx context.Context, ownerEmail, sourceName string) (*domain.Job, error)
	MarkDoneFn                 func(ctx context.Context, id uuid.UUID, finishedAt time.Time, result domain.ExplanationResult) error

	mu     sync.Mutex
	jobs   map[uuid.UUID]*domain.Job
	owners map[string]*domain.Owner

	// MarkDoneCalls counts every MarkDone call, including no-ops.
	MarkDoneCalls int
}

// NewMockJobStore creates an empty in-memory store.
func NewMockJobStore() *MockJobStore {
	return &MockJobStore{
		jobs:   make(map[uuid.UUID]*domain.Job),
		owners: make(map[string]*domain.Owner),
	}
}

var _ store.JobStore = (*MockJobStore)(nil)

// WithTx returns the same store; the mock has no transactions.
func (m *MockJobStore) WithTx(*sql.Tx) store.JobStore {
	return m
}

// Create implements store.JobStore
func (m *MockJobStore) Create(ctx context.Context, job *domain.Job) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, job)
	}
	if err := job.Validate(); err != nil {
		return err
	}
	if job.IsDone() {
		return fmt.Errorf("%w: new jobs must be pending", store.ErrInvalidEntity)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[job.ID]; ok {
		return store.ErrJobExists
	}
	if job.OwnerEmail != "" {
		if _, ok := m.owners[job.OwnerEmail]; !ok {
			owner, err := domain.NewOwner(job.OwnerEmail)
			if err != nil {
				return err
			}
			m.owners[owner.Email] = owner
		}
	}

	m.jobs[job.ID] = copyJob(job)
	return nil
}

// GetByID implements store.JobStore
func (m *MockJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	return copyJob(job), nil
}

// FindPending implements store.JobStore
func (m *MockJobStore) FindPending(ctx context.Context) ([]*domain.Job, error) {
	if m.FindPendingFn != nil {
		return m.FindPendingFn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pending := make([]*domain.Job, 0)
	for _, job := range m.jobs {
		if job.Status == domain.JobStatusPending {
			pending = append(pending, copyJob(job))
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].ID.String() < pending[j].ID.String()
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

// FindLatestByOwnerAndName implements store.JobStore
func (m *MockJobStore) FindLatestByOwnerAndName(ctx context.Context, ownerEmail, sourceName string) (*domain.Job, error) {
	if m.FindLatestByOwnerAndNameFn != nil {
		return m.FindLatestByOwnerAndNameFn(ctx, ownerEmail, sourceName)
	}

	email := domain.NormalizeEmail(ownerEmail)

	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *domain.Job
	for _, job := range m.jobs {
		if job.OwnerEmail != email || job.SourceName != sourceName {
			continue
		}
		if latest == nil || job.CreatedAt.After(latest.CreatedAt) ||
			(job.CreatedAt.Equal(latest.CreatedAt) && job.ID.String() > latest.ID.String()) {
			latest = job
		}
	}
	if latest == nil {
		return nil, store.ErrJobNotFound
	}
	return copyJob(latest), nil
}

// MarkDone implements store.JobStore
func (m *MockJobStore) MarkDone(ctx context.Context, id uuid.UUID, finishedAt time.Time, result domain.ExplanationResult) error {
	m.mu.Lock()
	m.MarkDoneCalls++
	m.mu.Unlock()

	if m.MarkDoneFn != nil {
		return m.MarkDoneFn(ctx, id, finishedAt, result)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return store.ErrJobNotFound
	}
	if job.IsDone() {
		return nil
	}
	return job.MarkDone(finishedAt, copyResult(result))
}

// Owners returns an OwnerStore view over the same data.
func (m *MockJobStore) Owners() *MockOwnerStore {
	return &MockOwnerStore{jobs: m}
}

// Jobs returns a snapshot of every stored job, in no particular order.
func (m *MockJobStore) Jobs() []*domain.Job {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*domain.Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		out = append(out, copyJob(job))
	}
	return out
}

// MockOwnerStore is the store.OwnerStore view of a MockJobStore.
type MockOwnerStore struct {
	jobs *MockJobStore
}

var _ store.OwnerStore = (*MockOwnerStore)(nil)

// WithTx returns the same store.
func (o *MockOwnerStore) WithTx(*sql.Tx) store.OwnerStore {
	return o
}

// GetByEmail implements store.OwnerStore
func (o *MockOwnerStore) GetByEmail(_ context.Context, email string) (*domain.Owner, error) {
	o.jobs.mu.Lock()
	defer o.jobs.mu.Unlock()

	owner, ok := o.jobs.owners[domain.NormalizeEmail(email)]
	if !ok {
		return nil, store.ErrOwnerNotFound
	}
	cp := *owner
	return &cp, nil
}

// Delete implements store.OwnerStore, removing the owner's jobs as well.
func (o *MockOwnerStore) Delete(_ context.Context, email string) error {
	email = domain.NormalizeEmail(email)

	o.jobs.mu.Lock()
	defer o.jobs.mu.Unlock()

	if _, ok := o.jobs.owners[email]; !ok {
		return store.ErrOwnerNotFound
	}
	delete(o.jobs.owners, email)
	for id, job := range o.jobs.jobs {
		if job.OwnerEmail == email {
			delete(o.jobs.jobs, id)
		}
	}
	return nil
}

func copyJob(j *domain.Job) *domain.Job {
	cp := *j
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		cp.FinishedAt = &t
	}
	if j.Result != nil {
		r := copyResult(*j.Result)
		cp.Result = &r
	}
	return &cp
}

func copyResult(r domain.ExplanationResult) domain.ExplanationResult {
	cp := domain.NewExplanationResult(r.Topic, len(r.Blocks))
	for pos, b := range r.Blocks {
		cp.Blocks[pos] = b
	}
	return cp
}
