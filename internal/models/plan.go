package models

// Envelope is the response wrapper every API endpoint returns.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Plan is the user's active workout plan.
type Plan struct {
	ID       string    `json:"id"`
	Name     string    `json:"name,omitempty"`
	PlanDays []PlanDay `json:"planDays"`
}

// PlanDay is one calendar day's scheduled workout.
type PlanDay struct {
	ID         string  `json:"id"`
	Date       string  `json:"date"`
	IsComplete bool    `json:"isComplete"`
	Blocks     []Block `json:"blocks"`
}

// Block is a named group of exercises sharing a type (circuit, rounds, ...).
type Block struct {
	ID           string          `json:"id"`
	Name         string          `json:"blockName"`
	Type         string          `json:"blockType"`
	Rounds       *int            `json:"rounds,omitempty"`
	Instructions string          `json:"instructions,omitempty"`
	Exercises    []BlockExercise `json:"exercises"`
}

// BlockExercise is one exercise instance within a block, with its targets.
type BlockExercise struct {
	ID       string   `json:"id"`
	Sets     *int     `json:"sets,omitempty"`
	Reps     *int     `json:"reps,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
	Duration *int     `json:"duration,omitempty"`
	RestTime *int     `json:"restTime,omitempty"`
	Notes    string   `json:"notes,omitempty"`
	Exercise Exercise `json:"exercise"`
}

// Exercise is read-only reference data from the exercise catalog.
type Exercise struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Equipment    string `json:"equipment,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// PlannedExercise is a BlockExercise flattened out of its block, in session order.
type PlannedExercise struct {
	BlockExercise
	BlockName   string `json:"blockName"`
	BlockType   string `json:"blockType"`
	BlockRounds *int   `json:"blockRounds,omitempty"`
}

// Flatten returns the day's exercises in block order, then in listed order
// within each block.
func (d PlanDay) Flatten() []PlannedExercise {
	var out []PlannedExercise
	for _, b := range d.Blocks {
		for _, ex := range b.Exercises {
			out = append(out, PlannedExercise{
				BlockExercise: ex,
				BlockName:     b.Name,
				BlockType:     b.Type,
				BlockRounds:   b.Rounds,
			})
		}
	}
	return out
}

// ExerciseLogRequest persists a completed exercise.
type ExerciseLogRequest struct {
	PlanDayExerciseID string `json:"planDayExerciseId"`
	Sets              []Set  `json:"sets"`
	DurationCompleted int    `json:"durationCompleted"`
	IsComplete        bool   `json:"isComplete"`
	TimeTaken         int    `json:"timeTaken"`
	Notes             string `json:"notes"`
}

// ExerciseLog is the server's record of a submitted exercise log.
type ExerciseLog struct {
	ID                string `json:"id"`
	PlanDayExerciseID string `json:"planDayExerciseId"`
}

// CompletePlanDayRequest flags a day as finished.
type CompletePlanDayRequest struct {
	PlanDayID string `json:"planDayId"`
}

// SkipExerciseRequest records a skipped exercise.
type SkipExerciseRequest struct {
	WorkoutID  string `json:"workoutId"`
	ExerciseID string `json:"exerciseId"`
}
