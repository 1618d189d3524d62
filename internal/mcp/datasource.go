package mcp

import (
	"context"
	"fmt"

	"github.com/claude/fitcoach/internal/dashboard"
	"github.com/claude/fitcoach/internal/session"
)

// Workout abstracts the session for MCP tools. Local drives an in-process
// controller; HTTPClient drives a running fitcoach daemon over its control API.
type Workout interface {
	Snapshot(ctx context.Context) (session.Snapshot, error)
	Load(ctx context.Context, forceRefresh bool) (session.Snapshot, error)
	Start(ctx context.Context) (session.Snapshot, error)
	TogglePause(ctx context.Context) (bool, error)
	LogSet(ctx context.Context, reps int, weight float64) (int, error)
	UpdateProgress(ctx context.Context, u session.ProgressUpdate) error
	CompleteExercise(ctx context.Context) (session.Snapshot, error)
	SkipExercise(ctx context.Context) (session.Snapshot, error)
	FinishDay(ctx context.Context) (session.Snapshot, error)
	Regenerate(ctx context.Context) (session.Snapshot, error)
	Rest(ctx context.Context, action string) (session.RestView, error)
	Dashboard(ctx context.Context, q dashboard.Query) (*dashboard.Overview, error)
}

// Rest actions accepted by Workout.Rest.
const (
	RestStart  = "start"
	RestPause  = "pause"
	RestReset  = "reset"
	RestCancel = "cancel"
)

// Local implements Workout over an in-process controller.
type Local struct {
	ctrl *session.Controller
	dash *dashboard.Service
}

// Compile-time check: *Local satisfies Workout.
var _ Workout = (*Local)(nil)

func NewLocal(ctrl *session.Controller, dash *dashboard.Service) *Local {
	return &Local{ctrl: ctrl, dash: dash}
}

func (l *Local) Snapshot(ctx context.Context) (session.Snapshot, error) {
	return l.ctrl.Snapshot(), nil
}

func (l *Local) Load(ctx context.Context, forceRefresh bool) (session.Snapshot, error) {
	if err := l.ctrl.Load(ctx, forceRefresh); err != nil {
		return session.Snapshot{}, err
	}
	return l.ctrl.Snapshot(), nil
}

func (l *Local) Start(ctx context.Context) (session.Snapshot, error) {
	if err := l.ctrl.Start(); err != nil {
		return session.Snapshot{}, err
	}
	return l.ctrl.Snapshot(), nil
}

func (l *Local) TogglePause(ctx context.Context) (bool, error) {
	return l.ctrl.TogglePause()
}

func (l *Local) LogSet(ctx context.Context, reps int, weight float64) (int, error) {
	return l.ctrl.LogSet(reps, weight)
}

func (l *Local) UpdateProgress(ctx context.Context, u session.ProgressUpdate) error {
	return l.ctrl.UpdateProgress(u)
}

func (l *Local) CompleteExercise(ctx context.Context) (session.Snapshot, error) {
	if err := l.ctrl.CompleteExercise(ctx); err != nil {
		return session.Snapshot{}, err
	}
	return l.ctrl.Snapshot(), nil
}

func (l *Local) SkipExercise(ctx context.Context) (session.Snapshot, error) {
	if err := l.ctrl.SkipExercise(ctx); err != nil {
		return session.Snapshot{}, err
	}
	return l.ctrl.Snapshot(), nil
}

func (l *Local) FinishDay(ctx context.Context) (session.Snapshot, error) {
	if err := l.ctrl.FinishDay(ctx); err != nil {
		return session.Snapshot{}, err
	}
	return l.ctrl.Snapshot(), nil
}

// Regenerate replaces the active plan. The returned error may describe a
// missing workout for today even though the plan was replaced.
func (l *Local) Regenerate(ctx context.Context) (session.Snapshot, error) {
	plan, err := l.ctrl.Regenerate(ctx)
	if plan == nil {
		return session.Snapshot{}, err
	}
	return l.ctrl.Snapshot(), err
}

func (l *Local) Rest(ctx context.Context, action string) (session.RestView, error) {
	var err error
	switch action {
	case RestStart:
		_, err = l.ctrl.StartRestTimer()
	case RestPause:
		_, err = l.ctrl.ToggleRestTimerPause()
	case RestReset:
		err = l.ctrl.ResetRestTimer()
	case RestCancel:
		l.ctrl.CancelRestTimer()
	default:
		return session.RestView{}, &session.Error{Kind: session.KindValidation, Op: "rest", Err: fmt.Errorf("unknown rest action %q", action)}
	}
	if err != nil {
		return session.RestView{}, err
	}
	return l.ctrl.Snapshot().Rest, nil
}

func (l *Local) Dashboard(ctx context.Context, q dashboard.Query) (*dashboard.Overview, error) {
	return l.dash.Load(ctx, q)
}
