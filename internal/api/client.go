// Package api is the thin HTTP JSON client for the remote coaching backend.
// Plan generation, exercise data and all dashboard computation live server-side;
// this package only shapes requests and decodes responses.
package api

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

	"github.com/claude/fitcoach/internal/models"
	"github.com/google/uuid"
)

// Client calls the coaching backend's REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a Client targeting baseURL. A non-nil transport replaces
// http.DefaultTransport (used to plug in request metrics).
func NewClient(baseURL, token string, timeout time.Duration, transport http.RoundTripper) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Error is returned for non-2xx responses and for envelopes with success=false.
type Error struct {
	Path       string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("api: %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("api: %s returned %d: %s", e.Path, e.StatusCode, e.Message)
}

// NotFound reports whether the backend answered 404.
func (e *Error) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, in any) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("api: marshal %s: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("api: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Path: path, StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	return data, nil
}

// errorMessage pulls a message out of an error envelope, falling back to the raw body.
func errorMessage(body []byte) string {
	var env models.Envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	return strings.TrimSpace(string(body))
}

// decode unwraps a {success, data} envelope into T.
func decode[T any](path string, body []byte) (T, error) {
	var env models.Envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		var zero T
		return zero, fmt.Errorf("api: decode %s: %w", path, err)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		if msg == "" {
			msg = "request unsuccessful"
		}
		return env.Data, &Error{Path: path, Message: msg}
	}
	return env.Data, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, params, nil)
}

func (c *Client) post(ctx context.Context, path string, in any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, nil, in)
}

// GetActivePlan fetches the active plan with nested days, blocks and exercises.
func (c *Client) GetActivePlan(ctx context.Context) (*models.Plan, error) {
	const path = "/workout-plans/active"
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	plan, err := decode[models.Plan](path, body)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// RegeneratePlan asks the backend to rebuild the active plan.
func (c *Client) RegeneratePlan(ctx context.Context) (*models.Plan, error) {
	const path = "/workout-plans/regenerate"
	body, err := c.post(ctx, path, struct{}{})
	if err != nil {
		return nil, err
	}
	plan, err := decode[models.Plan](path, body)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// CreateExerciseLog persists a completed exercise's sets, duration and notes.
func (c *Client) CreateExerciseLog(ctx context.Context, req models.ExerciseLogRequest) (*models.ExerciseLog, error) {
	const path = "/exercise-logs"
	body, err := c.post(ctx, path, req)
	if err != nil {
		return nil, err
	}
	log, err := decode[models.ExerciseLog](path, body)
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// CompletePlanDay flags a plan day as finished.
func (c *Client) CompletePlanDay(ctx context.Context, planDayID string) error {
	const path = "/workout-plans/days/complete"
	body, err := c.post(ctx, path, models.CompletePlanDayRequest{PlanDayID: planDayID})
	if err != nil {
		return err
	}
	_, err = decode[json.RawMessage](path, body)
	return err
}

// SkipExercise records a skip for an exercise. No set data is sent.
func (c *Client) SkipExercise(ctx context.Context, workoutID, exerciseID string) error {
	const path = "/workout-plans/skip-exercise"
	body, err := c.post(ctx, path, models.SkipExerciseRequest{WorkoutID: workoutID, ExerciseID: exerciseID})
	if err != nil {
		return err
	}
	_, err = decode[json.RawMessage](path, body)
	return err
}
