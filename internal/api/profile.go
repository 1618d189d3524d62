package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/claude/fitcoach/internal/models"
)

// ProfilePayload is the profile as the backend sends and accepts it.
type ProfilePayload struct {
	Name            string  `json:"name"`
	Age             int     `json:"age"`
	HeightCm        float64 `json:"heightCm"`
	WeightKg        float64 `json:"weightKg"`
	FitnessLevel    string  `json:"fitnessLevel"`
	Goal            string  `json:"goal"`
	Intensity       string  `json:"intensity"`
	Environment     string  `json:"environment"`
	WorkoutsPerWeek int     `json:"workoutsPerWeek"`
	SessionMinutes  int     `json:"sessionMinutes"`
}

// UnknownEnumError is returned when a profile field carries a value with no
// mapping. Bad server data is reported instead of silently defaulted.
type UnknownEnumError struct {
	Field string
	Value string
}

func (e *UnknownEnumError) Error() string {
	return fmt.Sprintf("profile: unknown %s %q", e.Field, e.Value)
}

// enumTable maps an in-app enum to its API string and back.
type enumTable[E comparable] struct {
	field   string
	toAPI   map[E]string
	fromAPI map[string]E
}

func newEnumTable[E comparable](field string, pairs map[E]string) enumTable[E] {
	t := enumTable[E]{field: field, toAPI: pairs, fromAPI: make(map[string]E, len(pairs))}
	for e, s := range pairs {
		t.fromAPI[s] = e
	}
	return t
}

func (t enumTable[E]) encode(e E) (string, error) {
	s, ok := t.toAPI[e]
	if !ok {
		return "", &UnknownEnumError{Field: t.field, Value: fmt.Sprint(e)}
	}
	return s, nil
}

// decode accepts any casing and "-" or " " in place of "_".
func (t enumTable[E]) decode(s string) (E, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	e, ok := t.fromAPI[key]
	if !ok {
		var zero E
		return zero, &UnknownEnumError{Field: t.field, Value: s}
	}
	return e, nil
}

var (
	fitnessLevels = newEnumTable("fitnessLevel", map[models.FitnessLevel]string{
		models.LevelBeginner:     "BEGINNER",
		models.LevelIntermediate: "INTERMEDIATE",
		models.LevelAdvanced:     "ADVANCED",
	})
	goals = newEnumTable("goal", map[models.Goal]string{
		models.GoalLoseWeight:     "LOSE_WEIGHT",
		models.GoalBuildMuscle:    "BUILD_MUSCLE",
		models.GoalStrength:       "STRENGTH",
		models.GoalEndurance:      "ENDURANCE",
		models.GoalGeneralFitness: "GENERAL_FITNESS",
	})
	intensities = newEnumTable("intensity", map[models.Intensity]string{
		models.IntensityLow:      "LOW",
		models.IntensityModerate: "MODERATE",
		models.IntensityHigh:     "HIGH",
	})
	environments = newEnumTable("environment", map[models.Environment]string{
		models.EnvironmentHome:     "HOME",
		models.EnvironmentGym:      "GYM",
		models.EnvironmentOutdoors: "OUTDOORS",
	})
)

// ToPayload converts the in-app profile to its API form.
func ToPayload(p models.Profile) (ProfilePayload, error) {
	out := ProfilePayload{
		Name:            p.Name,
		Age:             p.Age,
		HeightCm:        p.HeightCm,
		WeightKg:        p.WeightKg,
		WorkoutsPerWeek: p.WorkoutsPerWeek,
		SessionMinutes:  p.SessionMinutes,
	}
	var err error
	if out.FitnessLevel, err = fitnessLevels.encode(p.FitnessLevel); err != nil {
		return ProfilePayload{}, err
	}
	if out.Goal, err = goals.encode(p.Goal); err != nil {
		return ProfilePayload{}, err
	}
	if out.Intensity, err = intensities.encode(p.Intensity); err != nil {
		return ProfilePayload{}, err
	}
	if out.Environment, err = environments.encode(p.Environment); err != nil {
		return ProfilePayload{}, err
	}
	return out, nil
}

// FromPayload converts an API profile to its in-app form.
func FromPayload(pl ProfilePayload) (models.Profile, error) {
	out := models.Profile{
		Name:            pl.Name,
		Age:             pl.Age,
		HeightCm:        pl.HeightCm,
		WeightKg:        pl.WeightKg,
		WorkoutsPerWeek: pl.WorkoutsPerWeek,
		SessionMinutes:  pl.SessionMinutes,
	}
	var err error
	if out.FitnessLevel, err = fitnessLevels.decode(pl.FitnessLevel); err != nil {
		return models.Profile{}, err
	}
	if out.Goal, err = goals.decode(pl.Goal); err != nil {
		return models.Profile{}, err
	}
	if out.Intensity, err = intensities.decode(pl.Intensity); err != nil {
		return models.Profile{}, err
	}
	if out.Environment, err = environments.decode(pl.Environment); err != nil {
		return models.Profile{}, err
	}
	return out, nil
}

// GetProfile fetches the user's profile.
func (c *Client) GetProfile(ctx context.Context) (*ProfilePayload, error) {
	const path = "/profile"
	body, err := c.get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	p, err := decode[ProfilePayload](path, body)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile replaces the user's profile.
func (c *Client) UpdateProfile(ctx context.Context, p ProfilePayload) (*ProfilePayload, error) {
	const path = "/profile"
	body, err := c.do(ctx, http.MethodPut, path, nil, p)
	if err != nil {
		return nil, err
	}
	out, err := decode[ProfilePayload](path, body)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
