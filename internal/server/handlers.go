package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/claude/fitcoach/internal/api"
	"github.com/claude/fitcoach/internal/dashboard"
	"github.com/claude/fitcoach/internal/models"
	"github.com/claude/fitcoach/internal/session"
)

type errorBody struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeSessionError maps a session error kind to an HTTP status.
func writeSessionError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := session.KindOf(err)
	switch kind {
	case session.KindValidation:
		status = http.StatusUnprocessableEntity
	case session.KindNotFound:
		status = http.StatusNotFound
	case session.KindState:
		status = http.StatusConflict
	case session.KindRemote:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorBody{
		Error:     err.Error(),
		Kind:      string(kind),
		Retryable: kind == session.KindRemote,
	})
}

// writeRemoteError reports a backend failure outside the session.
func writeRemoteError(w http.ResponseWriter, err error) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.NotFound() {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error(), Kind: string(session.KindNotFound)})
		return
	}
	writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error(), Kind: string(session.KindRemote), Retryable: true})
}

// decodeBody decodes an optional JSON body into v. An empty body is not an error.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleLifecycle(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := session.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "no session in request context"})
		return
	}
	snap := ctrl.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"inProgress": ctrl.InProgress(),
		"sessionId":  snap.SessionID,
		"dayState":   snap.DayState,
	})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ForceRefresh bool `json:"forceRefresh"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON: " + err.Error()})
		return
	}
	if err := s.ctrl.Load(r.Context(), req.ForceRefresh); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Start(); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	paused, err := s.ctrl.TogglePause()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"paused": paused})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	var u session.ProgressUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON: " + err.Error()})
		return
	}
	if err := s.ctrl.UpdateProgress(u); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleLogSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reps   int     `json:"reps"`
		Weight float64 `json:"weight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON: " + err.Error()})
		return
	}
	if req.Reps <= 0 || req.Weight < 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "reps must be positive and weight non-negative", Kind: string(session.KindValidation)})
		return
	}
	n, err := s.ctrl.LogSet(req.Reps, req.Weight)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"setsLogged": n})
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.CompleteExercise(r.Context()); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.SkipExercise(r.Context()); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.FinishDay(r.Context()); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleRestStart(w http.ResponseWriter, r *http.Request) {
	secs, err := s.ctrl.StartRestTimer()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"seconds": secs})
}

func (s *Server) handleRestPause(w http.ResponseWriter, r *http.Request) {
	state, err := s.ctrl.ToggleRestTimerPause()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]models.RestState{"state": state})
}

func (s *Server) handleRestReset(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.ResetRestTimer(); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot().Rest)
}

func (s *Server) handleRestCancel(w http.ResponseWriter, r *http.Request) {
	s.ctrl.CancelRestTimer()
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot().Rest)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.ctrl.Reset()
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

// handleRegenerate asks the backend for a fresh plan and reloads today's
// session from it. Refused while a workout is running.
func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	plan, err := s.ctrl.Regenerate(r.Context())
	if plan == nil {
		writeSessionError(w, err)
		return
	}

	resp := map[string]any{"planId": plan.ID, "days": len(plan.PlanDays)}
	if err != nil {
		resp["loadError"] = err.Error()
	}
	resp["session"] = s.ctrl.Snapshot()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ov, err := s.dash.Load(r.Context(), dashboard.Query{
		Range:     q.Get("range"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
		GroupBy:   q.Get("groupBy"),
	})
	if ov == nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Kind: string(session.KindValidation)})
		return
	}
	// Partial failures are reported per card inside the overview.
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.remote.GetProfile(r.Context())
	if err != nil {
		writeRemoteError(w, err)
		return
	}
	if _, err := api.FromPayload(*p); err != nil {
		s.log.Warn("backend profile has unmapped values", "error", err)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error(), Kind: string(session.KindRemote)})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handlePutProfile validates enum fields and sends them in canonical form.
func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var in api.ProfilePayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON: " + err.Error()})
		return
	}
	prof, err := api.FromPayload(in)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Kind: string(session.KindValidation)})
		return
	}
	canonical, err := api.ToPayload(prof)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Kind: string(session.KindValidation)})
		return
	}
	out, err := s.remote.UpdateProfile(r.Context(), canonical)
	if err != nil {
		writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
