// Package client talks to a running explainer server over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/slide-explainer/internal/api"
	"github.com/phrazzld/slide-explainer/internal/domain"
	"github.com/sethvargo/go-retry"
)

var (
	// ErrJobNotFound is returned when the server does not know the job.
	ErrJobNotFound = errors.New("job not found")

	// ErrUnexpectedResponse is returned for any other unsuccessful response.
	ErrUnexpectedResponse = errors.New("unexpected response from server")

	// ErrRequestFailed is returned when no response was received.
	ErrRequestFailed = errors.New("request failed")
)

// StatusError describes an unsuccessful response. It matches
// ErrUnexpectedResponse with errors.Is.
type StatusError struct {
	Code    int
	Message string
	TraceID string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s (trace %s)", ErrUnexpectedResponse, e.Code, e.Message, e.TraceID)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedResponse
}

// Temporary reports whether the server may succeed on a later attempt.
func (e *StatusError) Temporary() bool {
	return e.Code >= http.StatusInternalServerError
}

// DefaultPollInterval is how often Wait asks for the status of a job.
const DefaultPollInterval = 2 * time.Second

// Client calls the explainer API.
type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	pollInterval time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithPollInterval sets how often Wait polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	c := &Client{
		baseURL:      u,
		httpClient:   &http.Client{Timeout: 5 * time.Minute},
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SubmitFile uploads the document at path.
func (c *Client) SubmitFile(ctx context.Context, path, email string) (*api.JobResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return c.Submit(ctx, filepath.Base(path), f, email)
}

// Submit uploads a document read from r under the given file name.
func (c *Client) Submit(ctx context.Context, name string, r io.Reader, email string) (*api.JobResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile(api.FormFieldFile, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if email != "" {
		if err := mw.WriteField(api.FormFieldEmail, email); err != nil {
			return nil, fmt.Errorf("failed to write email field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/jobs", nil), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.doJob(req, http.StatusAccepted)
}

// Status returns the status of the job with the given ID.
func (c *Client) Status(ctx context.Context, id uuid.UUID) (*api.JobResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/jobs/"+id.String(), nil), nil)
	if err != nil {
		return nil, err
	}
	return c.doJob(req, http.StatusOK)
}

// Latest returns the newest job submitted for email and file name.
func (c *Client) Latest(ctx context.Context, email, name string) (*api.JobResponse, error) {
	query := url.Values{}
	query.Set("name", name)
	if email != "" {
		query.Set("email", email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/jobs/latest", query), nil)
	if err != nil {
		return nil, err
	}
	return c.doJob(req, http.StatusOK)
}

// Wait polls the job until it is done or ctx ends. Transport errors and 5xx
// responses are retried; any other error is returned immediately.
func (c *Client) Wait(ctx context.Context, id uuid.UUID) (*api.JobResponse, error) {
	return retry.DoValue(ctx, retry.NewConstant(c.pollInterval), func(ctx context.Context) (*api.JobResponse, error) {
		job, err := c.Status(ctx, id)
		switch {
		case err != nil && isTransient(err):
			return nil, retry.RetryableError(err)
		case err != nil:
			return nil, err
		case job.Status != string(domain.JobStatusDone):
			return nil, retry.RetryableError(fmt.Errorf("job %s is %s", id, job.Status))
		}
		return job, nil
	})
}

func isTransient(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return errors.Is(err, ErrRequestFailed)
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) doJob(req *http.Request, wantStatus int) (*api.JobResponse, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRequestFailed, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrJobNotFound
	}

	if resp.StatusCode != wantStatus {
		var errResp struct {
			Error   string `json:"error"`
			TraceID string `json:"trace_id"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&errResp)
		return nil, &StatusError{Code: resp.StatusCode, Message: errResp.Error, TraceID: errResp.TraceID}
	}

	var job api.JobResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &job, nil
}
