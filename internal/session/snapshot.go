package session

import (
	"github.com/claude/fitcoach/internal/dates"
	"github.com/claude/fitcoach/internal/models"
)

// ExerciseView is one exercise as presented to a UI.
type ExerciseView struct {
	Index        int                     `json:"index"`
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Equipment    string                  `json:"equipment,omitempty"`
	Instructions string                  `json:"instructions,omitempty"`
	BlockName    string                  `json:"blockName"`
	BlockType    string                  `json:"blockType"`
	Status       models.ExerciseStatus   `json:"status"`
	Progress     models.ExerciseProgress `json:"progress"`
}

// RestView is the rest countdown state.
type RestView struct {
	State     models.RestState `json:"state"`
	Total     int              `json:"total"`
	Remaining int              `json:"remaining"`
}

// Snapshot is a consistent, copy-on-read view of the session.
type Snapshot struct {
	SessionID       string          `json:"sessionId"`
	Loaded          bool            `json:"loaded"`
	Date            string          `json:"date,omitempty"`
	PlanDayID       string          `json:"planDayId,omitempty"`
	DayState        models.DayState `json:"dayState"`
	AlreadyComplete bool            `json:"alreadyComplete"`
	Cursor          int             `json:"cursor"`
	Total           int             `json:"total"`
	Paused          bool            `json:"paused"`
	WorkoutElapsed  int             `json:"workoutElapsed"`
	ExerciseElapsed int             `json:"exerciseElapsed"`
	Busy            bool            `json:"busy"`
	Current         *ExerciseView   `json:"current,omitempty"`
	Exercises       []ExerciseView  `json:"exercises"`
	Rest            RestView        `json:"rest"`
	Error           string          `json:"error,omitempty"`
}

// Snapshot returns the current session state. The result shares no memory
// with the controller.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		SessionID:       c.id.String(),
		Loaded:          c.loaded,
		DayState:        c.state,
		AlreadyComplete: c.alreadyComplete,
		Cursor:          c.cursor,
		Total:           len(c.exercises),
		Paused:          c.paused,
		WorkoutElapsed:  c.workoutElapsed,
		ExerciseElapsed: c.exerciseElapsed,
		Busy:            c.busy,
		Exercises:       make([]ExerciseView, 0, len(c.exercises)),
		Rest: RestView{
			State:     c.rest.state,
			Total:     c.rest.total,
			Remaining: c.rest.remaining,
		},
	}
	if c.day != nil {
		s.PlanDayID = c.day.ID
		if d, err := dates.Normalize(c.day.Date); err == nil {
			s.Date = d
		}
	}
	if c.loadErr != nil {
		s.Error = c.loadErr.Error()
	}
	for i, ex := range c.exercises {
		v := ExerciseView{
			Index:        i,
			ID:           ex.ID,
			Name:         ex.Exercise.Name,
			Equipment:    ex.Exercise.Equipment,
			Instructions: ex.Exercise.Instructions,
			BlockName:    ex.BlockName,
			BlockType:    ex.BlockType,
			Status:       c.statuses[i],
			Progress:     c.progress[i].Clone(),
		}
		s.Exercises = append(s.Exercises, v)
	}
	if c.cursor < len(s.Exercises) {
		cur := s.Exercises[c.cursor]
		cur.Progress = cur.Progress.Clone()
		s.Current = &cur
	}
	return s
}
