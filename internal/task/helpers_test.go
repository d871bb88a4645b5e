package task_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phrazzld/slide-explainer/internal/document"
	"github.com/phrazzld/slide-explainer/internal/document/documenttest"
	"github.com/phrazzld/slide-explainer/internal/domain"
	"github.com/phrazzld/slide-explainer/internal/fanout"
	"github.com/phrazzld/slide-explainer/internal/generation"
	"github.com/phrazzld/slide-explainer/internal/mocks"
	"github.com/phrazzld/slide-explainer/internal/platform/filestore"
	"github.com/phrazzld/slide-explainer/internal/task"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedGenerator names every document "Biology", fails the block whose
// text is "Beta" with a transient error and explains everything else.
func scriptedGenerator() *mocks.MockGenerator {
	return &mocks.MockGenerator{
		GenerateFn: func(_ context.Context, req generation.Request) (string, error) {
			if strings.Contains(req.SystemPrompt, "main topic") {
				return "Biology", nil
			}
			if strings.Contains(req.UserPrompt, "content:Beta,") {
				return "", generation.ErrRemoteTransient
			}
			return "explained", nil
		},
	}
}

type fixture struct {
	jobs    *mocks.MockJobStore
	uploads *filestore.Store
	outputs *filestore.Store
	gen     *mocks.MockGenerator
	factory *task.ExplanationTaskFactory
}

func newFixture(t *testing.T, gen *mocks.MockGenerator) *fixture {
	t.Helper()

	dir := t.TempDir()
	uploads, err := filestore.New(filepath.Join(dir, "uploads"))
	require.NoError(t, err)
	outputs, err := filestore.New(filepath.Join(dir, "outputs"))
	require.NoError(t, err)

	logger := newTestLogger()
	explainer, err := generation.NewExplainer(gen, generation.DefaultExplainerConfig(), logger)
	require.NoError(t, err)

	jobs := mocks.NewMockJobStore()
	pipeline := task.NewPipeline(explainer, fanout.NewEngine(explainer, fanout.WithLogger(logger)))

	return &fixture{
		jobs:    jobs,
		uploads: uploads,
		outputs: outputs,
		gen:     gen,
		factory: task.NewExplanationTaskFactory(document.NewSource(uploads), pipeline, outputs, jobs, logger),
	}
}

// createJob registers a pending job without uploading its document.
func (f *fixture) createJob(t *testing.T, name string) *domain.Job {
	t.Helper()

	job, err := domain.NewJob(name, "")
	require.NoError(t, err)
	require.NoError(t, f.jobs.Create(context.Background(), job))
	return job
}

func (f *fixture) upload(t *testing.T, job *domain.Job, slides ...[]string) {
	t.Helper()

	_, err := f.uploads.Save(context.Background(), job.DocumentKey(),
		bytes.NewReader(documenttest.BuildPPTX(slides...)), 0)
	require.NoError(t, err)
}

func (f *fixture) submit(t *testing.T, name string, slides ...[]string) *domain.Job {
	t.Helper()

	job := f.createJob(t, name)
	f.upload(t, job, slides...)
	return job
}
