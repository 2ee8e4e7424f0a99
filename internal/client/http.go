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

	"github.com/alfredjeanlab/devsim/internal/model"
)

// defaultTimeout bounds a single request. Chat replies can take a while.
const defaultTimeout = 60 * time.Second

// HTTPClient implements DevsimClient using the devsim HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:5000").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

func projectPath(id int64) string {
	return "/project/" + strconv.FormatInt(id, 10)
}

// --- Projects ---

func (c *HTTPClient) ListProjects(ctx context.Context) ([]*model.Project, error) {
	var resp struct {
		Projects []*model.Project `json:"projects"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/projects", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

func (c *HTTPClient) CreateProject(ctx context.Context, req *CreateProjectRequest) (*model.Project, error) {
	var p model.Project
	if err := c.doJSON(ctx, http.MethodPost, "/projects", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// --- Graph ---

func (c *HTTPClient) GetGraph(ctx context.Context, projectID int64) (*model.ProjectGraph, error) {
	var pg model.ProjectGraph
	if err := c.doJSON(ctx, http.MethodGet, projectPath(projectID), nil, &pg); err != nil {
		return nil, err
	}
	return &pg, nil
}

// ReplaceGraph saves a full graph. Dropped is derived from the number of
// edges sent versus the number the server stored.
func (c *HTTPClient) ReplaceGraph(ctx context.Context, projectID int64, nodes []model.NodeSpec, edges []model.EdgeSpec) (*model.ReplaceResult, error) {
	if nodes == nil {
		nodes = []model.NodeSpec{}
	}
	if edges == nil {
		edges = []model.EdgeSpec{}
	}
	var resp ReplaceGraphResponse
	body := &ReplaceGraphRequest{Nodes: nodes, Edges: edges}
	if err := c.doJSON(ctx, http.MethodPut, projectPath(projectID), body, &resp); err != nil {
		return nil, err
	}
	return &model.ReplaceResult{
		Nodes:   resp.Nodes,
		Edges:   resp.Edges,
		Dropped: len(edges) - len(resp.Edges),
	}, nil
}

// --- Chat ---

func (c *HTTPClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	var reply ChatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/chat", req, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

func (c *HTTPClient) Conversation(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	var resp ConversationResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/conversation/"+url.PathEscape(conversationID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Conversation, nil
}

func (c *HTTPClient) DeleteConversation(ctx context.Context, conversationID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/conversation/"+url.PathEscape(conversationID), nil, nil)
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("HTTP %d: %s (%s)", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
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

	// 204 No Content: success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error, Details: errResp.Details}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
