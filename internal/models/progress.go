package models

// ExerciseStatus is the per-exercise position in the session state machine.
type ExerciseStatus string

const (
	StatusPending   ExerciseStatus = "pending"
	StatusCurrent   ExerciseStatus = "current"
	StatusCompleted ExerciseStatus = "completed"
	StatusSkipped   ExerciseStatus = "skipped"
)

// Done reports whether the status is terminal.
func (s ExerciseStatus) Done() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// DayState is the day-level session state.
type DayState string

const (
	DayNotStarted DayState = "not_started"
	DayInProgress DayState = "in_progress"
	DayCompleted  DayState = "completed"
)

// RestState is the state of the rest countdown.
type RestState string

const (
	RestIdle     RestState = "idle"
	RestRunning  RestState = "running"
	RestPaused   RestState = "paused"
	RestComplete RestState = "complete"
)

// Set is one logged repetition group.
type Set struct {
	Reps      int     `json:"reps"`
	Weight    float64 `json:"weight"`
	Completed bool    `json:"completed"`
}

// ExerciseProgress is the session-local, mutable record for one exercise.
// It is never persisted on the client.
type ExerciseProgress struct {
	Sets            []Set   `json:"sets"`
	RoundsCompleted int     `json:"roundsCompleted"`
	Notes           string  `json:"notes"`
	Duration        int     `json:"duration"`
	Weight          float64 `json:"weight"`

	TargetSets     int     `json:"targetSets"`
	TargetReps     int     `json:"targetReps"`
	TargetWeight   float64 `json:"targetWeight"`
	TargetDuration int     `json:"targetDuration"`
	TargetRounds   int     `json:"targetRounds"`
	RestSeconds    int     `json:"restSeconds"`
}

// NewExerciseProgress returns a zeroed record with targets copied from the plan.
func NewExerciseProgress(ex PlannedExercise) ExerciseProgress {
	p := ExerciseProgress{
		Sets:           []Set{},
		TargetSets:     intOr(ex.Sets, 0),
		TargetReps:     intOr(ex.Reps, 0),
		TargetDuration: intOr(ex.Duration, 0),
		TargetRounds:   intOr(ex.BlockRounds, 0),
		RestSeconds:    intOr(ex.RestTime, 0),
	}
	if ex.Weight != nil {
		p.TargetWeight = *ex.Weight
		p.Weight = *ex.Weight
	}
	return p
}

// LoggedSets returns the sets marked completed.
func (p ExerciseProgress) LoggedSets() []Set {
	out := make([]Set, 0, len(p.Sets))
	for _, s := range p.Sets {
		if s.Completed {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns a deep copy.
func (p ExerciseProgress) Clone() ExerciseProgress {
	c := p
	c.Sets = append([]Set(nil), p.Sets...)
	if c.Sets == nil {
		c.Sets = []Set{}
	}
	return c
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
