package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/fitcoach/internal/dashboard"
	"github.com/claude/fitcoach/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolGetWorkoutSession = mcp.NewTool("get_workout_session",
	mcp.WithDescription("Current workout session: today's exercises with status and logged sets, the cursor, clocks, rest timer and day state."),
)

var toolLoadWorkout = mcp.NewTool("load_workout",
	mcp.WithDescription("Load today's workout from the active plan. Fails if no workout is scheduled today. Reports when today's workout is already complete."),
	mcp.WithBoolean("force_refresh", mcp.Description("Refetch the plan instead of using the cached copy. Defaults to false.")),
)

var toolStartWorkout = mcp.NewTool("start_workout",
	mcp.WithDescription("Start the loaded workout. Starts the workout and exercise clocks."),
)

var toolTogglePause = mcp.NewTool("toggle_pause",
	mcp.WithDescription("Pause or resume the workout clocks. Returns the new paused flag."),
)

var toolLogSet = mcp.NewTool("log_set",
	mcp.WithDescription("Record a completed set for the current exercise."),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Repetitions performed (positive integer)")),
	mcp.WithNumber("weight", mcp.Description("Weight used. Defaults to 0 for bodyweight exercises.")),
)

var toolUpdateProgress = mcp.NewTool("update_progress",
	mcp.WithDescription("Update the current exercise's record. Only the given fields change; the last write wins. Notes are sent with the exercise log on completion."),
	mcp.WithString("notes", mcp.Description("Free-text notes, replacing any existing notes")),
	mcp.WithNumber("rounds", mcp.Description("Rounds completed so far (circuit and rounds blocks)")),
	mcp.WithNumber("weight", mcp.Description("Working weight")),
	mcp.WithNumber("duration", mcp.Description("Seconds completed for timed exercises")),
)

var toolCompleteExercise = mcp.NewTool("complete_exercise",
	mcp.WithDescription("Submit the current exercise's logged sets and advance. Requires at least one logged set. Completing the last exercise completes the day."),
)

var toolSkipExercise = mcp.NewTool("skip_exercise",
	mcp.WithDescription("Skip the current exercise without logging sets and advance."),
)

var toolFinishWorkout = mcp.NewTool("finish_workout",
	mcp.WithDescription("Retry marking the day complete after every exercise is done but the completion call failed."),
)

var toolRegeneratePlan = mcp.NewTool("regenerate_plan",
	mcp.WithDescription("Ask the coach backend for a new active plan and load today's workout from it. Refused while a workout is in progress."),
)

var toolRestTimer = mcp.NewTool("rest_timer",
	mcp.WithDescription("Control the rest countdown for the current exercise."),
	mcp.WithString("action", mcp.Required(), mcp.Description("start, pause (toggles), reset or cancel"), mcp.Enum(RestStart, RestPause, RestReset, RestCancel)),
)

var toolGetDashboard = mcp.NewTool("get_dashboard",
	mcp.WithDescription("Progress dashboard: weight accuracy, consistency, volume and workout-type distribution. Cards that fail to load are listed under errors."),
	mcp.WithString("range", mcp.Description("Relative range ending today. Defaults to 1m."), mcp.Enum("1w", "1m", "3m", "6m", "1y")),
	mcp.WithString("start", mcp.Description("Explicit start date (YYYY-MM-DD). Requires end.")),
	mcp.WithString("end", mcp.Description("Explicit end date (YYYY-MM-DD). Requires start.")),
	mcp.WithString("group_by", mcp.Description("Series bucket size"), mcp.Enum("day", "week", "month")),
)

// --- Tool handlers ---

// toolError renders a failed operation, marking remote failures retryable.
func (h *handlers) toolError(op string, err error) *mcp.CallToolResult {
	h.log.Warn("mcp "+op, "error", err)
	retry := ""
	var se *session.Error
	var re *RemoteError
	switch {
	case errors.As(err, &se) && se.Retryable():
		retry = " (retryable)"
	case errors.As(err, &re) && re.Retryable:
		retry = " (retryable)"
	}
	return mcp.NewToolResultError(op + " failed: " + err.Error() + retry)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkoutSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.ds.Snapshot(ctx)
	if err != nil {
		return h.toolError("get_workout_session", err), nil
	}
	return jsonResult(snap)
}

func (h *handlers) loadWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.ds.Load(ctx, req.GetBool("force_refresh", false))
	if err != nil {
		return h.toolError("load_workout", err), nil
	}
	return jsonResult(snap)
}

func (h *handlers) startWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.ds.Start(ctx)
	if err != nil {
		return h.toolError("start_workout", err), nil
	}
	return jsonResult(snap)
}

func (h *handlers) togglePause(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paused, err := h.ds.TogglePause(ctx)
	if err != nil {
		return h.toolError("toggle_pause", err), nil
	}
	return jsonResult(map[string]bool{"paused": paused})
}

func (h *handlers) logSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reps, err := req.RequireFloat("reps")
	if err != nil {
		return mcp.NewToolResultError("reps parameter is required"), nil
	}
	if reps < 1 || reps != float64(int(reps)) {
		return mcp.NewToolResultError("reps must be a positive integer"), nil
	}
	weight := req.GetFloat("weight", 0)
	if weight < 0 {
		return mcp.NewToolResultError("weight must not be negative"), nil
	}

	n, err := h.ds.LogSet(ctx, int(reps), weight)
	if err != nil {
		return h.toolError("log_set", err), nil
	}
	return jsonResult(map[string]int{"setsLogged": n})
}

func (h *handlers) updateProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	var u session.ProgressUpdate
	if v, ok := args["notes"].(string); ok {
		u.Notes = &v
	}
	if v, ok := args["rounds"].(float64); ok {
		if v < 0 || v != float64(int(v)) {
			return mcp.NewToolResultError("rounds must be a non-negative integer"), nil
		}
		n := int(v)
		u.Rounds = &n
	}
	if v, ok := args["weight"].(float64); ok {
		if v < 0 {
			return mcp.NewToolResultError("weight must not be negative"), nil
		}
		u.Weight = &v
	}
	if v, ok := args["duration"].(float64); ok {
		if v < 0 {
			return mcp.NewToolResultError("duration must not be negative"), nil
		}
		n := int(v)
		u.Duration = &n
	}
	if u.Notes == nil && u.Rounds == nil && u.Weight == nil && u.Duration == nil {
		return mcp.NewToolResultError("give at least one of notes, rounds, weight, duration"), nil
	}

	if err := h.ds.UpdateProgress(ctx, u); err != nil {
		return h.toolError("update_progress", err), nil
	}
	return mcp.NewToolResultText("progress updated"), nil
}

func (h *handlers) completeExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.ds.CompleteExercise(ctx)
	if err != nil {
		return h.toolError("complete_exercise", err), nil
	}
	return jsonResult(snap)
}

func (h *handlers) skipExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.ds.SkipExercise(ctx)
	if err != nil {
		return h.toolError("skip_exercise", err), nil
	}
	return jsonResult(snap)
}

func (h *handlers) finishWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.ds.FinishDay(ctx)
	if err != nil {
		return h.toolError("finish_workout", err), nil
	}
	return jsonResult(snap)
}

func (h *handlers) regeneratePlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.ds.Regenerate(ctx)
	if err != nil && snap.SessionID == "" {
		return h.toolError("regenerate_plan", err), nil
	}
	// A replaced plan without a workout today still reports the new session.
	return jsonResult(snap)
}

func (h *handlers) restTimer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action, err := req.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError("action parameter is required"), nil
	}
	rest, err := h.ds.Rest(ctx, action)
	if err != nil {
		return h.toolError("rest_timer", err), nil
	}
	return jsonResult(rest)
}

func (h *handlers) getDashboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ov, err := h.ds.Dashboard(ctx, dashboard.Query{
		Range:     req.GetString("range", ""),
		StartDate: req.GetString("start", ""),
		EndDate:   req.GetString("end", ""),
		GroupBy:   req.GetString("group_by", ""),
	})
	if ov == nil {
		if err == nil {
			err = fmt.Errorf("empty dashboard")
		}
		return h.toolError("get_dashboard", err), nil
	}
	// Partial failures are listed per card in ov.Errors.
	return jsonResult(ov)
}
