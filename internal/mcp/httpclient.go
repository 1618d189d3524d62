package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/fitcoach/internal/dashboard"
	"github.com/claude/fitcoach/internal/session"
)

// HTTPClient implements Workout by calling the fitcoach control API.
// Used for remote MCP mode where the binary runs locally (stdio) but the
// session lives in the daemon (possibly reached over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies Workout.
var _ Workout = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// RemoteError is a non-2xx answer from the control API.
type RemoteError struct {
	Path       string
	StatusCode int
	Kind       string
	Message    string
	Retryable  bool
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("httpclient: %s returned %d: %s", e.Path, e.StatusCode, e.Message)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, params url.Values, in any) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("httpclient: marshal %s: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		re := &RemoteError{Path: path, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var eb struct {
			Error     string `json:"error"`
			Kind      string `json:"kind"`
			Retryable bool   `json:"retryable"`
		}
		if json.Unmarshal(data, &eb) == nil && eb.Error != "" {
			re.Message, re.Kind, re.Retryable = eb.Error, eb.Kind, eb.Retryable
		}
		return nil, re
	}
	return data, nil
}

func call[T any](ctx context.Context, c *HTTPClient, method, path string, params url.Values, in any) (T, error) {
	var out T
	body, err := c.do(ctx, method, path, params, in)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return out, nil
}

func (c *HTTPClient) Snapshot(ctx context.Context) (session.Snapshot, error) {
	return call[session.Snapshot](ctx, c, http.MethodGet, "/api/v1/session", nil, nil)
}

func (c *HTTPClient) Load(ctx context.Context, forceRefresh bool) (session.Snapshot, error) {
	return call[session.Snapshot](ctx, c, http.MethodPost, "/api/v1/session/load", nil, map[string]bool{"forceRefresh": forceRefresh})
}

func (c *HTTPClient) Start(ctx context.Context) (session.Snapshot, error) {
	return call[session.Snapshot](ctx, c, http.MethodPost, "/api/v1/session/start", nil, nil)
}

func (c *HTTPClient) TogglePause(ctx context.Context) (bool, error) {
	out, err := call[struct {
		Paused bool `json:"paused"`
	}](ctx, c, http.MethodPost, "/api/v1/session/pause", nil, nil)
	return out.Paused, err
}

func (c *HTTPClient) LogSet(ctx context.Context, reps int, weight float64) (int, error) {
	out, err := call[struct {
		SetsLogged int `json:"setsLogged"`
	}](ctx, c, http.MethodPost, "/api/v1/session/sets", nil, map[string]any{"reps": reps, "weight": weight})
	return out.SetsLogged, err
}

func (c *HTTPClient) UpdateProgress(ctx context.Context, u session.ProgressUpdate) error {
	_, err := c.do(ctx, http.MethodPatch, "/api/v1/session/progress", nil, u)
	return err
}

func (c *HTTPClient) CompleteExercise(ctx context.Context) (session.Snapshot, error) {
	return call[session.Snapshot](ctx, c, http.MethodPost, "/api/v1/session/complete", nil, nil)
}

func (c *HTTPClient) SkipExercise(ctx context.Context) (session.Snapshot, error) {
	return call[session.Snapshot](ctx, c, http.MethodPost, "/api/v1/session/skip", nil, nil)
}

func (c *HTTPClient) FinishDay(ctx context.Context) (session.Snapshot, error) {
	return call[session.Snapshot](ctx, c, http.MethodPost, "/api/v1/session/finish", nil, nil)
}

func (c *HTTPClient) Regenerate(ctx context.Context) (session.Snapshot, error) {
	out, err := call[struct {
		PlanID    string           `json:"planId"`
		LoadError string           `json:"loadError"`
		Session   session.Snapshot `json:"session"`
	}](ctx, c, http.MethodPost, "/api/v1/plan/regenerate", nil, nil)
	if err != nil {
		return session.Snapshot{}, err
	}
	if out.LoadError != "" {
		return out.Session, fmt.Errorf("plan %s regenerated: %s", out.PlanID, out.LoadError)
	}
	return out.Session, nil
}

func (c *HTTPClient) Rest(ctx context.Context, action string) (session.RestView, error) {
	switch action {
	case RestStart, RestPause, RestReset, RestCancel:
	default:
		return session.RestView{}, fmt.Errorf("unknown rest action %q", action)
	}
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/session/rest/"+action, nil, nil); err != nil {
		return session.RestView{}, err
	}
	snap, err := c.Snapshot(ctx)
	return snap.Rest, err
}

func (c *HTTPClient) Dashboard(ctx context.Context, q dashboard.Query) (*dashboard.Overview, error) {
	params := url.Values{}
	if q.Range != "" {
		params.Set("range", q.Range)
	}
	if q.StartDate != "" {
		params.Set("startDate", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("endDate", q.EndDate)
	}
	if q.GroupBy != "" {
		params.Set("groupBy", q.GroupBy)
	}
	ov, err := call[dashboard.Overview](ctx, c, http.MethodGet, "/api/v1/dashboard", params, nil)
	if err != nil {
		return nil, err
	}
	return &ov, nil
}
