package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/claude/fitcoach/internal/api"
	"github.com/claude/fitcoach/internal/dashboard"
	"github.com/claude/fitcoach/internal/metrics"
	"github.com/claude/fitcoach/internal/models"
	"github.com/claude/fitcoach/internal/session"
)

var testNow = time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

type idleTicker struct{ c chan time.Time }

func (t idleTicker) C() <-chan time.Time { return t.c }
func (t idleTicker) Stop()               {}

// backend is an in-memory stand-in for the coaching API.
type backend struct {
	mu        sync.Mutex
	logStatus int
	logs      []models.ExerciseLogRequest
	dayCalls  int
	profile   api.ProfilePayload
	planCalls int
}

func intPtr(v int) *int { return &v }

func (b *backend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, status int, data any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(map[string]any{"success": status < 300, "data": data}); err != nil {
			t.Error(err)
		}
	}
	plan := models.Plan{
		ID: "plan-1",
		PlanDays: []models.PlanDay{{
			ID:   "day-1",
			Date: "2025-03-14T00:00:00.000Z",
			Blocks: []models.Block{{
				Name: "Main",
				Type: "traditional",
				Exercises: []models.BlockExercise{
					{ID: "pde-1", Sets: intPtr(2), Reps: intPtr(10), Exercise: models.Exercise{Name: "Squat"}},
					{ID: "pde-2", Sets: intPtr(2), Reps: intPtr(8), Exercise: models.Exercise{Name: "Row"}},
				},
			}},
		}},
	}
	mux.HandleFunc("GET /workout-plans/active", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.planCalls++
		b.mu.Unlock()
		reply(w, http.StatusOK, plan)
	})
	mux.HandleFunc("POST /workout-plans/regenerate", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, plan)
	})
	mux.HandleFunc("POST /exercise-logs", func(w http.ResponseWriter, r *http.Request) {
		var req models.ExerciseLogRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
		}
		b.mu.Lock()
		status := b.logStatus
		if status == 0 {
			status = http.StatusCreated
			b.logs = append(b.logs, req)
		}
		b.mu.Unlock()
		reply(w, status, map[string]string{"id": "log-1", "planDayExerciseId": req.PlanDayExerciseID})
	})
	mux.HandleFunc("POST /workout-plans/days/complete", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.dayCalls++
		b.mu.Unlock()
		reply(w, http.StatusOK, nil)
	})
	mux.HandleFunc("POST /workout-plans/skip-exercise", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, nil)
	})
	mux.HandleFunc("GET /profile", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		reply(w, http.StatusOK, b.profile)
	})
	mux.HandleFunc("PUT /profile", func(w http.ResponseWriter, r *http.Request) {
		var p api.ProfilePayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Error(err)
		}
		b.mu.Lock()
		b.profile = p
		b.mu.Unlock()
		reply(w, http.StatusOK, p)
	})
	mux.HandleFunc("GET /dashboard/weight-accuracy", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, models.WeightAccuracy{AccuracyRate: 0.9})
	})
	mux.HandleFunc("GET /dashboard/consistency", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, models.Consistency{Scheduled: 3, Completed: 3})
	})
	mux.HandleFunc("GET /dashboard/volume", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusInternalServerError, nil)
	})
	mux.HandleFunc("GET /dashboard/workout-types", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, models.WorkoutTypeDistribution{Total: 3})
	})
	return mux
}

type testEnv struct {
	srv     *Server
	backend *backend
	ctrl    *session.Controller
	metrics *metrics.Manager
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	b := &backend{profile: api.ProfilePayload{Name: "Sam", FitnessLevel: "BEGINNER", Goal: "STRENGTH", Intensity: "LOW", Environment: "GYM"}}
	ts := httptest.NewServer(b.handler(t))
	t.Cleanup(ts.Close)

	client := api.NewClient(ts.URL, "tok", 5*time.Second, nil)
	log := discardLogger()
	ctrl := session.New(client, log, session.Options{
		Now:       func() time.Time { return testNow },
		Location:  time.UTC,
		NewTicker: func(time.Duration) session.Ticker { return idleTicker{c: make(chan time.Time)} },
	})
	t.Cleanup(ctrl.Close)

	m, reg := metrics.NewTestManagerAndRegistry()
	opts.Metrics = m
	opts.Registry = reg
	srv := New(ctrl, client, dashboard.New(client, log, time.UTC), log, opts)
	return &testEnv{srv: srv, backend: b, ctrl: ctrl, metrics: m}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decodeTo[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode error: %v (body %q)", err, rec.Body.String())
	}
	return v
}

// TestWorkoutFlow drives a full workout through the control API.
func TestWorkoutFlow(t *testing.T) {
	e := newTestEnv(t, Options{})

	rec := e.do(t, http.MethodPost, "/api/v1/session/load", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("load status = %d, body %s", rec.Code, rec.Body.String())
	}
	snap := decodeTo[session.Snapshot](t, rec)
	if snap.Total != 2 || snap.Date != "2025-03-14" {
		t.Fatalf("snapshot = %+v", snap)
	}

	if rec := e.do(t, http.MethodPost, "/api/v1/session/start", ""); rec.Code != http.StatusOK {
		t.Fatalf("start status = %d", rec.Code)
	}

	for _, name := range []string{"Squat", "Row"} {
		for i := 0; i < 2; i++ {
			rec := e.do(t, http.MethodPost, "/api/v1/session/sets", `{"reps":10,"weight":40}`)
			if rec.Code != http.StatusOK {
				t.Fatalf("%s set %d status = %d", name, i, rec.Code)
			}
		}
		if rec := e.do(t, http.MethodPost, "/api/v1/session/complete", ""); rec.Code != http.StatusOK {
			t.Fatalf("complete %s status = %d body %s", name, rec.Code, rec.Body.String())
		}
	}

	snap = decodeTo[session.Snapshot](t, e.do(t, http.MethodGet, "/api/v1/session", ""))
	if snap.DayState != models.DayCompleted {
		t.Errorf("day state = %s, want completed", snap.DayState)
	}
	if len(e.backend.logs) != 2 || e.backend.dayCalls != 1 {
		t.Errorf("logs = %d, day calls = %d; want 2, 1", len(e.backend.logs), e.backend.dayCalls)
	}
	if got := e.backend.logs[0].Sets; len(got) != 2 || got[0].Reps != 10 {
		t.Errorf("submitted sets = %+v", got)
	}
}

func TestCompleteWithoutSets(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.do(t, http.MethodPost, "/api/v1/session/load", "")
	e.do(t, http.MethodPost, "/api/v1/session/start", "")

	rec := e.do(t, http.MethodPost, "/api/v1/session/complete", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := decodeTo[errorBody](t, rec)
	if body.Kind != "validation" || body.Retryable {
		t.Errorf("body = %+v", body)
	}
}

func TestStartBeforeLoad(t *testing.T) {
	e := newTestEnv(t, Options{})
	rec := e.do(t, http.MethodPost, "/api/v1/session/start", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestRemoteFailureIsRetryable(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.backend.logStatus = http.StatusInternalServerError
	e.do(t, http.MethodPost, "/api/v1/session/load", "")
	e.do(t, http.MethodPost, "/api/v1/session/start", "")
	e.do(t, http.MethodPost, "/api/v1/session/sets", `{"reps":5,"weight":20}`)

	rec := e.do(t, http.MethodPost, "/api/v1/session/complete", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if body := decodeTo[errorBody](t, rec); !body.Retryable {
		t.Error("remote failure should be retryable")
	}
	if snap := e.ctrl.Snapshot(); snap.Cursor != 0 {
		t.Errorf("cursor = %d, want 0", snap.Cursor)
	}
}

func TestLogSetValidation(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.do(t, http.MethodPost, "/api/v1/session/load", "")
	e.do(t, http.MethodPost, "/api/v1/session/start", "")

	if rec := e.do(t, http.MethodPost, "/api/v1/session/sets", `{"reps":0,"weight":20}`); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("zero reps status = %d, want 422", rec.Code)
	}
	if rec := e.do(t, http.MethodPost, "/api/v1/session/sets", `not json`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON status = %d, want 400", rec.Code)
	}
}

func TestLifecycleAndRegenerate(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.do(t, http.MethodPost, "/api/v1/session/load", "")

	lc := decodeTo[map[string]any](t, e.do(t, http.MethodGet, "/api/v1/session/lifecycle", ""))
	if lc["inProgress"] != false {
		t.Errorf("inProgress = %v, want false", lc["inProgress"])
	}

	e.do(t, http.MethodPost, "/api/v1/session/start", "")
	lc = decodeTo[map[string]any](t, e.do(t, http.MethodGet, "/api/v1/session/lifecycle", ""))
	if lc["inProgress"] != true {
		t.Errorf("inProgress = %v, want true", lc["inProgress"])
	}

	if rec := e.do(t, http.MethodPost, "/api/v1/plan/regenerate", ""); rec.Code != http.StatusConflict {
		t.Errorf("regenerate during workout status = %d, want 409", rec.Code)
	}

	e.do(t, http.MethodDelete, "/api/v1/session", "")
	rec := e.do(t, http.MethodPost, "/api/v1/plan/regenerate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("regenerate status = %d body %s", rec.Code, rec.Body.String())
	}
	if e.backend.planCalls != 1 {
		t.Errorf("plan fetches = %d, want 1 (regenerated plan replaces the cache)", e.backend.planCalls)
	}
	resp := decodeTo[map[string]any](t, rec)
	if resp["planId"] == "" || resp["loadError"] != nil {
		t.Errorf("regenerate response = %v", resp)
	}
	if snap, _ := resp["session"].(map[string]any); snap["loaded"] != true {
		t.Errorf("session after regenerate = %v", resp["session"])
	}
}

func TestRestEndpoints(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.do(t, http.MethodPost, "/api/v1/session/load", "")
	e.do(t, http.MethodPost, "/api/v1/session/start", "")

	// The plan has no rest time and there is no default.
	if rec := e.do(t, http.MethodPost, "/api/v1/session/rest/start", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("rest start status = %d, want 422", rec.Code)
	}
	if rec := e.do(t, http.MethodPost, "/api/v1/session/rest/pause", ""); rec.Code != http.StatusConflict {
		t.Errorf("rest pause status = %d, want 409", rec.Code)
	}
	if rec := e.do(t, http.MethodPost, "/api/v1/session/rest/cancel", ""); rec.Code != http.StatusOK {
		t.Errorf("rest cancel status = %d, want 200", rec.Code)
	}
}

func TestDashboardPartial(t *testing.T) {
	e := newTestEnv(t, Options{})
	rec := e.do(t, http.MethodGet, "/api/v1/dashboard?range=1w", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	ov := decodeTo[dashboard.Overview](t, rec)
	if ov.StartDate != "2025-03-07" || ov.EndDate != "2025-03-14" {
		t.Errorf("window = %s..%s", ov.StartDate, ov.EndDate)
	}
	if ov.WeightAccuracy == nil || ov.Consistency == nil || ov.WorkoutTypes == nil {
		t.Error("healthy cards missing")
	}
	if ov.Volume != nil || ov.Errors[dashboard.CardVolume] == "" {
		t.Errorf("volume card should carry an error: %+v", ov.Errors)
	}

	if rec := e.do(t, http.MethodGet, "/api/v1/dashboard?range=10y", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid range status = %d, want 400", rec.Code)
	}
}

func TestProfile(t *testing.T) {
	e := newTestEnv(t, Options{})

	p := decodeTo[api.ProfilePayload](t, e.do(t, http.MethodGet, "/api/v1/profile", ""))
	if p.Name != "Sam" {
		t.Errorf("name = %q", p.Name)
	}

	rec := e.do(t, http.MethodPut, "/api/v1/profile",
		`{"name":"Sam","fitnessLevel":"intermediate","goal":"build-muscle","intensity":"High","environment":"home"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d body %s", rec.Code, rec.Body.String())
	}
	if e.backend.profile.Goal != "BUILD_MUSCLE" || e.backend.profile.FitnessLevel != "INTERMEDIATE" {
		t.Errorf("backend received %+v, want canonical enum strings", e.backend.profile)
	}

	rec = e.do(t, http.MethodPut, "/api/v1/profile",
		`{"name":"Sam","fitnessLevel":"ELITE","goal":"STRENGTH","intensity":"LOW","environment":"GYM"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown enum status = %d, want 422", rec.Code)
	}
}

// TestHandleMe verifies the /api/v1/me endpoint returns the dev user
// identity when no Tailscale middleware is active.
func TestHandleMe(t *testing.T) {
	e := newTestEnv(t, Options{})
	info := decodeTo[UserInfo](t, e.do(t, http.MethodGet, "/api/v1/me", ""))
	if info.Login != "local" {
		t.Errorf("login = %q, want %q", info.Login, "local")
	}
}

func TestAPIKeyRequired(t *testing.T) {
	e := newTestEnv(t, Options{APIKey: "k"})
	if rec := e.do(t, http.MethodGet, "/api/v1/session", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.Header.Set("X-API-Key", "k")
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status with key = %d, want 200", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.do(t, http.MethodGet, "/api/v1/session", "")

	rec := e.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "fitcoach_test_request") {
		t.Error("request counter missing from /metrics output")
	}
}
