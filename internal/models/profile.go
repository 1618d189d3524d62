package models

// FitnessLevel is the user's self-reported training experience.
type FitnessLevel int

const (
	LevelUnknown FitnessLevel = iota
	LevelBeginner
	LevelIntermediate
	LevelAdvanced
)

// Goal is the user's primary training goal.
type Goal int

const (
	GoalUnknown Goal = iota
	GoalLoseWeight
	GoalBuildMuscle
	GoalStrength
	GoalEndurance
	GoalGeneralFitness
)

// Intensity is the preferred workout intensity.
type Intensity int

const (
	IntensityUnknown Intensity = iota
	IntensityLow
	IntensityModerate
	IntensityHigh
)

// Environment is where the user trains.
type Environment int

const (
	EnvironmentUnknown Environment = iota
	EnvironmentHome
	EnvironmentGym
	EnvironmentOutdoors
)

// Profile is the onboarding profile in its in-app form.
type Profile struct {
	Name            string
	Age             int
	HeightCm        float64
	WeightKg        float64
	FitnessLevel    FitnessLevel
	Goal            Goal
	Intensity       Intensity
	Environment     Environment
	WorkoutsPerWeek int
	SessionMinutes  int
}
