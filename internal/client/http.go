package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alfredjeanlab/taskdeps/internal/model"
)

// HTTPClient implements TasksClient using the taskdeps HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ TasksClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

func taskPath(id string, rest ...string) string {
	p := "/v1/tasks/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

// --- Task CRUD ---

func (c *HTTPClient) CreateTask(ctx context.Context, req *CreateTaskRequest) (*model.Task, error) {
	var task model.Task
	if err := c.doJSON(ctx, http.MethodPost, "/v1/tasks", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *HTTPClient) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := c.doJSON(ctx, http.MethodGet, taskPath(id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *HTTPClient) ListTasks(ctx context.Context) ([]*model.Task, error) {
	var tasks []*model.Task
	if err := c.doJSON(ctx, http.MethodGet, "/v1/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *HTTPClient) UpdateTask(ctx context.Context, id string, req *UpdateTaskRequest) (*UpdateTaskResponse, error) {
	var resp UpdateTaskResponse
	if err := c.doJSON(ctx, http.MethodPatch, taskPath(id), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) DeleteTask(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

// --- Dependencies ---

func (c *HTTPClient) AddDependency(ctx context.Context, req *AddDependencyRequest) (*AddDependencyResponse, error) {
	var resp AddDependencyResponse
	if err := c.doJSON(ctx, http.MethodPost, taskPath(req.TaskID, "dependencies"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) RemoveDependency(ctx context.Context, taskID, dependsOnID string) error {
	return c.doJSON(ctx, http.MethodDelete, taskPath(taskID, "dependencies", url.PathEscape(dependsOnID)), nil, nil)
}

func (c *HTTPClient) GetDependencies(ctx context.Context, taskID string) ([]*model.Dependency, error) {
	var deps []*model.Dependency
	if err := c.doJSON(ctx, http.MethodGet, taskPath(taskID, "dependencies"), nil, &deps); err != nil {
		return nil, err
	}
	return deps, nil
}

func (c *HTTPClient) GetDependents(ctx context.Context, taskID string) ([]*model.Dependency, error) {
	var deps []*model.Dependency
	if err := c.doJSON(ctx, http.MethodGet, taskPath(taskID, "dependents"), nil, &deps); err != nil {
		return nil, err
	}
	return deps, nil
}

func (c *HTTPClient) CheckCycle(ctx context.Context, taskID, dependsOnID string) (*CycleCheck, error) {
	q := url.Values{"depends_on_id": {dependsOnID}}
	var check CycleCheck
	if err := c.doJSON(ctx, http.MethodGet, taskPath(taskID, "cycle")+"?"+q.Encode(), nil, &check); err != nil {
		return nil, err
	}
	return &check, nil
}

// --- Events ---

func (c *HTTPClient) GetEvents(ctx context.Context, taskID string) ([]*model.Event, error) {
	var evts []*model.Event
	if err := c.doJSON(ctx, http.MethodGet, taskPath(taskID, "events"), nil, &evts); err != nil {
		return nil, err
	}
	return evts, nil
}

// --- Graph ---

func (c *HTTPClient) GetGraph(ctx context.Context, limit int) (*model.GraphResponse, error) {
	path := "/v1/graph"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var g model.GraphResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (c *HTTPClient) GetStats(ctx context.Context) (*model.GraphStats, error) {
	var stats model.GraphStats
	if err := c.doJSON(ctx, http.MethodGet, "/v1/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// doJSON sends a request with an optional JSON body and decodes the JSON
// response into result. Status codes >= 400 become *APIError.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string   `json:"error"`
			Path  []string `json:"path"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error, Path: errResp.Path}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
