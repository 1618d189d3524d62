// Package session drives a user through today's planned workout.
//
// A Controller holds the flattened exercise list for today's plan day, a
// cursor, per-exercise progress, a workout/exercise clock and an optional
// rest countdown. Exercises are processed strictly in block order; each one
// moves pending → current → completed|skipped and never goes back. Remote
// calls (exercise logs, skips, day completion) are made without holding the
// controller lock, and a failed call leaves the cursor where it was.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/fitcoach/internal/api"
	"github.com/claude/fitcoach/internal/dates"
	"github.com/claude/fitcoach/internal/models"
	"github.com/google/uuid"
)

// Backend is the remote API surface the controller needs.
type Backend interface {
	GetActivePlan(ctx context.Context) (*models.Plan, error)
	CreateExerciseLog(ctx context.Context, req models.ExerciseLogRequest) (*models.ExerciseLog, error)
	CompletePlanDay(ctx context.Context, planDayID string) error
	SkipExercise(ctx context.Context, workoutID, exerciseID string) error
}

// Planner is implemented by backends that can generate a new active plan.
type Planner interface {
	RegeneratePlan(ctx context.Context) (*models.Plan, error)
}

// Compile-time checks: *api.Client satisfies Backend and Planner.
var (
	_ Backend = (*api.Client)(nil)
	_ Planner = (*api.Client)(nil)
)

// Observer receives session milestones. *metrics.Manager implements it.
type Observer interface {
	ExerciseCompleted()
	ExerciseSkipped()
	DayCompleted()
	RestCompleted()
}

type nopObserver struct{}

func (nopObserver) ExerciseCompleted() {}
func (nopObserver) ExerciseSkipped()   {}
func (nopObserver) DayCompleted()      {}
func (nopObserver) RestCompleted()     {}

// EventType names a state transition surfaced to the caller.
type EventType string

const (
	EventExerciseCompleted EventType = "exercise_completed"
	EventExerciseSkipped   EventType = "exercise_skipped"
	EventDayCompleted      EventType = "day_completed"
	EventRestComplete      EventType = "rest_complete"
)

// Event is delivered to Options.OnEvent outside the controller lock.
type Event struct {
	Type  EventType `json:"type"`
	Index int       `json:"index"`
	Name  string    `json:"name,omitempty"`
}

// Options configures a Controller. Zero values pick sensible defaults.
type Options struct {
	Now          func() time.Time
	Location     *time.Location
	TickInterval time.Duration
	// DefaultRest is used when the plan has no rest time for an exercise.
	DefaultRest int
	NewTicker   func(time.Duration) Ticker
	Observer    Observer
	OnEvent     func(Event)
}

// Controller is the workout session state machine.
type Controller struct {
	backend Backend
	log     *slog.Logger
	opts    Options

	mu sync.Mutex
	id uuid.UUID

	plan            *models.Plan
	day             *models.PlanDay
	exercises       []models.PlannedExercise
	progress        []models.ExerciseProgress
	statuses        []models.ExerciseStatus
	cursor          int
	state           models.DayState
	loaded          bool
	alreadyComplete bool
	loadErr         error

	workoutElapsed  int
	exerciseElapsed int
	paused          bool
	clockGen        uint64
	stopClock       context.CancelFunc

	rest     restTimer
	restGen  uint64
	stopRest context.CancelFunc

	busy   bool
	closed bool
	wg     sync.WaitGroup
}

// New creates a Controller. Call Load before Start.
func New(backend Backend, log *slog.Logger, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.NewTicker == nil {
		opts.NewTicker = NewTimeTicker
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	return &Controller{
		backend: backend,
		log:     log,
		opts:    opts,
		id:      uuid.New(),
		state:   models.DayNotStarted,
		rest:    restTimer{state: models.RestIdle},
	}
}

// Load fetches the active plan (once, unless forceRefresh) and prepares
// today's plan day. A day already flagged complete is surfaced through
// Snapshot().AlreadyComplete rather than as an error. On failure the session
// holds no workout and Load may simply be called again.
func (c *Controller) Load(ctx context.Context, forceRefresh bool) error {
	const op = "load"

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return stateErr(op, ErrClosed)
	}
	if c.busy {
		c.mu.Unlock()
		return stateErr(op, ErrBusy)
	}
	if c.state == models.DayInProgress {
		c.mu.Unlock()
		return stateErr(op, ErrAlreadyStarted)
	}
	plan := c.plan
	id := c.id
	fetch := plan == nil || forceRefresh
	if fetch {
		c.busy = true
	}
	c.mu.Unlock()

	if fetch {
		p, err := c.backend.GetActivePlan(ctx)
		c.mu.Lock()
		defer c.mu.Unlock()
		// A Reset or Close during the fetch owns the session now.
		if c.closed {
			return stateErr(op, ErrClosed)
		}
		if c.id != id {
			return stateErr(op, ErrSessionReset)
		}
		c.busy = false
		if err != nil {
			c.clearDayLocked()
			kind := KindRemote
			var apiErr *api.Error
			if errors.As(err, &apiErr) && apiErr.NotFound() {
				kind = KindNotFound
				err = errors.Join(ErrNoActivePlan, err)
			}
			c.loadErr = &Error{Kind: kind, Op: op, Err: err}
			c.log.Warn("load plan failed", "error", err)
			return c.loadErr
		}
		c.plan = p
	} else {
		c.mu.Lock()
		defer c.mu.Unlock()
	}

	return c.initLocked()
}

// Regenerate asks the backend for a new plan, replaces the cached one and
// prepares today's day from it. It is refused while a workout is running.
// A non-nil plan returned with an error means the plan was replaced but has
// no workout for today.
func (c *Controller) Regenerate(ctx context.Context) (*models.Plan, error) {
	const op = "regenerate"

	planner, ok := c.backend.(Planner)
	if !ok {
		return nil, stateErr(op, ErrNoPlanner)
	}

	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return nil, stateErr(op, ErrClosed)
	case c.busy:
		c.mu.Unlock()
		return nil, stateErr(op, ErrBusy)
	case c.state == models.DayInProgress:
		c.mu.Unlock()
		return nil, stateErr(op, ErrAlreadyStarted)
	}
	id := c.id
	c.busy = true
	c.mu.Unlock()

	p, err := planner.RegeneratePlan(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, stateErr(op, ErrClosed)
	}
	if c.id != id {
		return nil, stateErr(op, ErrSessionReset)
	}
	c.busy = false
	if err != nil {
		c.log.Warn("plan regeneration failed", "error", err)
		return nil, &Error{Kind: KindRemote, Op: op, Err: err}
	}
	c.plan = p
	c.log.Info("plan regenerated", "plan", p.ID, "days", len(p.PlanDays))
	if err := c.initLocked(); err != nil {
		return p, err
	}
	return p, nil
}

// initLocked locates today's plan day and builds fresh progress records.
func (c *Controller) initLocked() error {
	c.stopClockLocked()
	c.cancelRestLocked()
	c.clearDayLocked()

	today := dates.Today(c.opts.Now(), c.opts.Location)
	var day *models.PlanDay
	for i := range c.plan.PlanDays {
		d := &c.plan.PlanDays[i]
		key, err := dates.Normalize(d.Date)
		if err != nil {
			c.log.Warn("skipping plan day with bad date", "plan_day", d.ID, "date", d.Date, "error", err)
			continue
		}
		if key == today {
			day = d
			break
		}
	}
	if day == nil {
		c.loadErr = &Error{Kind: KindNotFound, Op: "load", Err: ErrNoWorkoutToday}
		return c.loadErr
	}

	c.day = day
	c.loaded = true
	c.id = uuid.New()

	if day.IsComplete {
		c.state = models.DayCompleted
		c.alreadyComplete = true
		c.log.Info("workout already complete", "date", today, "plan_day", day.ID)
		return nil
	}

	c.exercises = day.Flatten()
	if len(c.exercises) == 0 {
		c.loaded = false
		c.day = nil
		c.loadErr = &Error{Kind: KindNotFound, Op: "load", Err: ErrNoWorkoutToday}
		return c.loadErr
	}
	c.progress = make([]models.ExerciseProgress, len(c.exercises))
	c.statuses = make([]models.ExerciseStatus, len(c.exercises))
	for i, ex := range c.exercises {
		c.progress[i] = models.NewExerciseProgress(ex)
		c.statuses[i] = models.StatusPending
	}
	c.statuses[0] = models.StatusCurrent
	c.state = models.DayNotStarted

	c.log.Info("workout loaded", "session", c.id, "date", today, "plan_day", day.ID, "exercises", len(c.exercises))
	return nil
}

func (c *Controller) clearDayLocked() {
	c.day = nil
	c.exercises = nil
	c.progress = nil
	c.statuses = nil
	c.cursor = 0
	c.state = models.DayNotStarted
	c.loaded = false
	c.alreadyComplete = false
	c.loadErr = nil
	c.workoutElapsed = 0
	c.exerciseElapsed = 0
	c.paused = false
	c.busy = false
}

// Start begins the workout: both clocks are zeroed and start ticking.
func (c *Controller) Start() error {
	const op = "start"
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		return stateErr(op, ErrClosed)
	case !c.loaded:
		return stateErr(op, ErrNotLoaded)
	case c.state == models.DayCompleted:
		return stateErr(op, ErrAlreadyComplete)
	case c.state == models.DayInProgress:
		return stateErr(op, ErrAlreadyStarted)
	}

	c.state = models.DayInProgress
	c.workoutElapsed = 0
	c.exerciseElapsed = 0
	c.paused = false
	c.stopClockLocked()
	c.clockGen++
	gen := c.clockGen
	c.stopClock = c.startTickerLocked(func() bool { return c.onClockTick(gen) })

	c.log.Info("workout started", "session", c.id, "exercises", len(c.exercises))
	return nil
}

// onClockTick advances both counters unless paused. Returns false once the
// tick belongs to a stopped clock.
func (c *Controller) onClockTick(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.clockGen || c.state != models.DayInProgress {
		return false
	}
	if !c.paused {
		c.workoutElapsed++
		c.exerciseElapsed++
	}
	return true
}

func (c *Controller) stopClockLocked() {
	c.clockGen++
	if c.stopClock != nil {
		c.stopClock()
		c.stopClock = nil
	}
}

// TogglePause freezes or resumes the clocks and returns the new paused flag.
func (c *Controller) TogglePause() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireInProgressLocked("toggle_pause"); err != nil {
		return c.paused, err
	}
	c.paused = !c.paused
	return c.paused, nil
}

// ProgressUpdate sets fields of the current exercise's progress record.
// Nil fields are left untouched.
type ProgressUpdate struct {
	Sets     *[]models.Set `json:"sets,omitempty"`
	Rounds   *int          `json:"roundsCompleted,omitempty"`
	Notes    *string       `json:"notes,omitempty"`
	Weight   *float64      `json:"weight,omitempty"`
	Duration *int          `json:"duration,omitempty"`
}

// UpdateProgress applies u to the current exercise. Last write wins.
func (c *Controller) UpdateProgress(u ProgressUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireCurrentLocked("update_progress"); err != nil {
		return err
	}
	p := &c.progress[c.cursor]
	if u.Sets != nil {
		p.Sets = append([]models.Set{}, (*u.Sets)...)
	}
	if u.Rounds != nil {
		p.RoundsCompleted = *u.Rounds
	}
	if u.Notes != nil {
		p.Notes = *u.Notes
	}
	if u.Weight != nil {
		p.Weight = *u.Weight
	}
	if u.Duration != nil {
		p.Duration = *u.Duration
	}
	return nil
}

// LogSet appends a completed set to the current exercise and returns the
// number of sets logged so far.
func (c *Controller) LogSet(reps int, weight float64) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireCurrentLocked("log_set"); err != nil {
		return 0, err
	}
	p := &c.progress[c.cursor]
	p.Sets = append(p.Sets, models.Set{Reps: reps, Weight: weight, Completed: true})
	p.Weight = weight
	return len(p.LoggedSets()), nil
}

// CompleteExercise submits the current exercise's logged sets and moves on.
// With no logged sets it fails with ErrNoSetsLogged and changes nothing. When
// the last exercise is done the day is completed on the server as well.
func (c *Controller) CompleteExercise(ctx context.Context) error {
	const op = "complete_exercise"

	c.mu.Lock()
	if err := c.requireInProgressLocked(op); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.busy {
		c.mu.Unlock()
		return stateErr(op, ErrBusy)
	}
	if c.cursor >= len(c.exercises) {
		c.mu.Unlock()
		return c.FinishDay(ctx)
	}

	idx := c.cursor
	ex := c.exercises[idx]
	prog := c.progress[idx]
	sets := prog.LoggedSets()
	if len(sets) == 0 {
		c.mu.Unlock()
		return &Error{Kind: KindValidation, Op: op, Err: ErrNoSetsLogged}
	}
	req := models.ExerciseLogRequest{
		PlanDayExerciseID: ex.ID,
		Sets:              sets,
		DurationCompleted: prog.Duration,
		IsComplete:        true,
		TimeTaken:         c.exerciseElapsed,
		Notes:             prog.Notes,
	}
	id := c.id
	c.busy = true
	c.mu.Unlock()

	if _, err := c.backend.CreateExerciseLog(ctx, req); err != nil {
		c.release(id)
		c.log.Warn("exercise log failed", "session", id, "exercise", ex.Exercise.Name, "error", err)
		return &Error{Kind: KindRemote, Op: op, Err: err}
	}

	c.log.Info("exercise completed", "session", id, "index", idx, "exercise", ex.Exercise.Name, "sets", len(sets))
	c.opts.Observer.ExerciseCompleted()
	return c.advance(ctx, op, id, idx, models.StatusCompleted, Event{Type: EventExerciseCompleted, Index: idx, Name: ex.Exercise.Name})
}

// SkipExercise records a skip on the server and moves on. No set data is sent.
func (c *Controller) SkipExercise(ctx context.Context) error {
	const op = "skip_exercise"

	c.mu.Lock()
	if err := c.requireInProgressLocked(op); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.busy {
		c.mu.Unlock()
		return stateErr(op, ErrBusy)
	}
	if c.cursor >= len(c.exercises) {
		c.mu.Unlock()
		return c.FinishDay(ctx)
	}

	idx := c.cursor
	ex := c.exercises[idx]
	dayID := c.day.ID
	id := c.id
	c.busy = true
	c.mu.Unlock()

	if err := c.backend.SkipExercise(ctx, dayID, ex.ID); err != nil {
		c.release(id)
		c.log.Warn("skip failed", "session", id, "exercise", ex.Exercise.Name, "error", err)
		return &Error{Kind: KindRemote, Op: op, Err: err}
	}

	c.log.Info("exercise skipped", "session", id, "index", idx, "exercise", ex.Exercise.Name)
	c.opts.Observer.ExerciseSkipped()
	return c.advance(ctx, op, id, idx, models.StatusSkipped, Event{Type: EventExerciseSkipped, Index: idx, Name: ex.Exercise.Name})
}

// advance marks exercise idx with status and moves the cursor. The caller
// holds the busy flag; advance releases it.
func (c *Controller) advance(ctx context.Context, op string, id uuid.UUID, idx int, status models.ExerciseStatus, ev Event) error {
	c.mu.Lock()
	if c.id != id {
		c.mu.Unlock()
		return stateErr(op, ErrSessionReset)
	}
	c.statuses[idx] = status
	c.cancelRestLocked()
	c.cursor++
	if c.cursor < len(c.exercises) {
		c.statuses[c.cursor] = models.StatusCurrent
		c.exerciseElapsed = 0
		c.busy = false
		c.mu.Unlock()
		c.emit(ev)
		return nil
	}
	dayID := c.day.ID
	c.mu.Unlock()
	c.emit(ev)

	return c.completeDay(ctx, id, dayID)
}

// FinishDay completes the day on the server once every exercise is done. It
// is the retry path when the day-complete call failed after the last exercise.
func (c *Controller) FinishDay(ctx context.Context) error {
	const op = "finish_day"

	c.mu.Lock()
	if err := c.requireInProgressLocked(op); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.busy {
		c.mu.Unlock()
		return stateErr(op, ErrBusy)
	}
	if c.cursor < len(c.exercises) {
		c.mu.Unlock()
		return stateErr(op, ErrExercisesRemaining)
	}
	id := c.id
	dayID := c.day.ID
	c.busy = true
	c.mu.Unlock()

	return c.completeDay(ctx, id, dayID)
}

// completeDay calls the day-complete endpoint. The caller holds busy.
func (c *Controller) completeDay(ctx context.Context, id uuid.UUID, dayID string) error {
	err := c.backend.CompletePlanDay(ctx, dayID)

	c.mu.Lock()
	if c.id != id {
		c.mu.Unlock()
		return stateErr("complete_day", ErrSessionReset)
	}
	c.busy = false
	if err != nil {
		c.mu.Unlock()
		c.log.Warn("day completion failed", "session", id, "plan_day", dayID, "error", err)
		return &Error{Kind: KindRemote, Op: "complete_day", Err: err}
	}
	c.state = models.DayCompleted
	c.stopClockLocked()
	c.cancelRestLocked()
	// Marks the cached plan too, so a reload from cache sees the day as done.
	if c.day != nil {
		c.day.IsComplete = true
	}
	elapsed := c.workoutElapsed
	total := len(c.exercises)
	c.mu.Unlock()

	c.log.Info("workout complete", "session", id, "plan_day", dayID, "elapsed_sec", elapsed)
	c.opts.Observer.DayCompleted()
	c.emit(Event{Type: EventDayCompleted, Index: total})
	return nil
}

// release clears busy after a failed remote call, if the session is unchanged.
func (c *Controller) release(id uuid.UUID) {
	c.mu.Lock()
	if c.id == id {
		c.busy = false
	}
	c.mu.Unlock()
}

func (c *Controller) requireInProgressLocked(op string) error {
	switch {
	case !c.loaded:
		return stateErr(op, ErrNotLoaded)
	case c.state == models.DayCompleted:
		return stateErr(op, ErrAlreadyComplete)
	case c.state != models.DayInProgress:
		return stateErr(op, ErrNotStarted)
	}
	return nil
}

func (c *Controller) requireCurrentLocked(op string) error {
	if err := c.requireInProgressLocked(op); err != nil {
		return err
	}
	if c.cursor >= len(c.exercises) {
		return stateErr(op, ErrAlreadyComplete)
	}
	return nil
}

func (c *Controller) emit(ev Event) {
	if c.opts.OnEvent != nil {
		c.opts.OnEvent(ev)
	}
}

// InProgress reports whether a workout is running. Navigation shells use it
// to keep the user on the session screen.
func (c *Controller) InProgress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == models.DayInProgress
}

// Reset cancels all timers and discards the session's progress. The plan
// stays cached; Load prepares a fresh session from it.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.stopClockLocked()
	c.cancelRestLocked()
	c.clearDayLocked()
	c.id = uuid.New()
	c.mu.Unlock()
}

// Close resets the session and waits for ticker goroutines to exit.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.Reset()
	c.wg.Wait()
}
