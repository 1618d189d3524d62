package models

// WeightAccuracy compares logged weights against planned weights.
type WeightAccuracy struct {
	AccuracyRate float64               `json:"accuracyRate"`
	TotalSets    int                   `json:"totalSets"`
	ExactSets    int                   `json:"exactSets"`
	HigherSets   int                   `json:"higherSets"`
	LowerSets    int                   `json:"lowerSets"`
	Points       []WeightAccuracyPoint `json:"points,omitempty"`
}

// WeightAccuracyPoint is one period of the weight accuracy series.
type WeightAccuracyPoint struct {
	Period       string  `json:"period"`
	AccuracyRate float64 `json:"accuracyRate"`
}

// Consistency summarizes scheduled versus completed workouts.
type Consistency struct {
	Scheduled     int                 `json:"scheduled"`
	Completed     int                 `json:"completed"`
	Rate          float64             `json:"rate"`
	CurrentStreak int                 `json:"currentStreak"`
	LongestStreak int                 `json:"longestStreak"`
	Periods       []ConsistencyPeriod `json:"periods,omitempty"`
}

// ConsistencyPeriod is one grouped bucket of the consistency series.
type ConsistencyPeriod struct {
	Period    string `json:"period"`
	Scheduled int    `json:"scheduled"`
	Completed int    `json:"completed"`
}

// Volume is total lifted load (reps × weight) over time.
type Volume struct {
	TotalVolume float64       `json:"totalVolume"`
	Units       string        `json:"units,omitempty"`
	Periods     []VolumePoint `json:"periods,omitempty"`
}

// VolumePoint is one grouped bucket of the volume series.
type VolumePoint struct {
	Period string  `json:"period"`
	Volume float64 `json:"volume"`
	Sets   int     `json:"sets"`
}

// WorkoutTypeDistribution breaks completed workouts down by block type.
type WorkoutTypeDistribution struct {
	Total int         `json:"total"`
	Types []TypeShare `json:"types"`
}

// TypeShare is one slice of the workout-type distribution.
type TypeShare struct {
	Type       string  `json:"type"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}
