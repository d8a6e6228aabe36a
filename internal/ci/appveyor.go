package ci

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AndreyAkinshin/kitci/internal/testresult"
)

// maxResponseBytes bounds how much of an API response is read.
const maxResponseBytes = 1 << 20

type (
	// TestRecord is one test case as reported to the CI test API.
	TestRecord struct {
		Name           string
		Classification string // "Describe:Context"
		Outcome        testresult.Outcome
		Duration       time.Duration
		Message        string
	}

	// ArtifactStore pushes build artifacts. Push is best-effort from the
	// caller's point of view: errors are logged, never propagated.
	ArtifactStore interface {
		Push(ctx context.Context, path string) error
	}

	// TestReporter reports individual test cases to the CI.
	TestReporter interface {
		ReportTest(ctx context.Context, rec TestRecord) error
	}

	// VariableSetter sets CI build variables.
	VariableSetter interface {
		SetVariable(ctx context.Context, name, value string) error
	}

	// Client talks to the AppVeyor build worker API.
	Client struct {
		httpClient *http.Client
		baseURL    string
		jobID      string
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)

	// NoopStore discards artifacts. Used outside CI.
	NoopStore struct{}

	addTestRequest struct {
		TestName             string `json:"testName"`
		TestFramework        string `json:"testFramework"`
		FileName             string `json:"fileName"`
		Outcome              string `json:"outcome"`
		DurationMilliseconds int64  `json:"durationMilliseconds"`
		ErrorMessage         string `json:"ErrorMessage,omitempty"`
	}

	variableRequest struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}

	artifactRequest struct {
		Path     string `json:"path"`
		FileName string `json:"fileName"`
		Name     string `json:"name,omitempty"`
		Type     string `json:"type,omitempty"`
	}

	artifactFinishRequest struct {
		FileName string `json:"fileName"`
		Size     int64  `json:"size"`
	}
)

// TestFramework is the framework name sent with every test record.
const TestFramework = "Pester"

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// NewClient creates a Client for the worker API at baseURL.
func NewClient(baseURL, jobID string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		jobID:      jobID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetVariable sets a build variable visible to later build steps.
func (c *Client) SetVariable(ctx context.Context, name, value string) error {
	_, err := c.postJSON(ctx, "/api/build/variables", variableRequest{Name: name, Value: value})
	return err
}

// ReportTest adds a test case to the build's test tab.
func (c *Client) ReportTest(ctx context.Context, rec TestRecord) error {
	_, err := c.postJSON(ctx, "/api/tests", addTestRequest{
		TestName:             rec.Name,
		TestFramework:        TestFramework,
		FileName:             rec.Classification,
		Outcome:              string(rec.Outcome),
		DurationMilliseconds: rec.Duration.Milliseconds(),
		ErrorMessage:         rec.Message,
	})
	return err
}

// Push uploads a file as a build artifact: the API returns an upload URL,
// the content is PUT there, then the upload is finalized.
func (c *Client) Push(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read artifact: %w", err)
	}
	name := filepath.Base(path)

	body, err := c.postJSON(ctx, "/api/artifacts", artifactRequest{Path: path, FileName: name, Name: name})
	if err != nil {
		return err
	}
	var uploadURL string
	if err := json.Unmarshal(body, &uploadURL); err != nil || uploadURL == "" {
		return fmt.Errorf("artifact API returned no upload URL for %s", name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	if _, err := c.do(req); err != nil {
		return fmt.Errorf("failed to upload %s: %w", name, err)
	}

	_, err = c.sendJSON(ctx, http.MethodPut, "/api/artifacts", artifactFinishRequest{FileName: name, Size: int64(len(data))})
	return err
}

// UploadResults posts a result document as multipart form data to
// resultsURL; "{job_id}" in the URL is replaced with the job id.
func (c *Client) UploadResults(ctx context.Context, resultsURL, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open results: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, f); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	target := strings.ReplaceAll(resultsURL, "{job_id}", c.jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	_, err = c.do(req)
	return err
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.sendJSON(ctx, http.MethodPost, path, payload)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: HTTP %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// Push does nothing.
func (NoopStore) Push(context.Context, string) error {
	return nil
}
