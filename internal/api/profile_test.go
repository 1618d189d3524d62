package api

import (
	"errors"
	"testing"

	"github.com/claude/fitcoach/internal/models"
)

func TestProfileRoundTrip(t *testing.T) {
	p := models.Profile{
		Name:            "Sam",
		Age:             34,
		FitnessLevel:    models.LevelIntermediate,
		Goal:            models.GoalBuildMuscle,
		Intensity:       models.IntensityHigh,
		Environment:     models.EnvironmentGym,
		WorkoutsPerWeek: 4,
	}
	pl, err := ToPayload(p)
	if err != nil {
		t.Fatal(err)
	}
	if pl.FitnessLevel != "INTERMEDIATE" || pl.Goal != "BUILD_MUSCLE" || pl.Intensity != "HIGH" || pl.Environment != "GYM" {
		t.Errorf("payload enums = %+v", pl)
	}
	back, err := FromPayload(pl)
	if err != nil {
		t.Fatal(err)
	}
	if back != p {
		t.Errorf("round trip = %+v, want %+v", back, p)
	}
}

// TestFromPayloadCasing verifies unexpected casing and separators are accepted.
func TestFromPayloadCasing(t *testing.T) {
	got, err := FromPayload(ProfilePayload{
		FitnessLevel: "beginner",
		Goal:         "lose-weight",
		Intensity:    "Moderate",
		Environment:  " home ",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.FitnessLevel != models.LevelBeginner || got.Goal != models.GoalLoseWeight ||
		got.Intensity != models.IntensityModerate || got.Environment != models.EnvironmentHome {
		t.Errorf("profile = %+v", got)
	}
}

// TestFromPayloadUnknown verifies unknown values are reported rather than
// replaced with a default.
func TestFromPayloadUnknown(t *testing.T) {
	_, err := FromPayload(ProfilePayload{
		FitnessLevel: "BEGINNER",
		Goal:         "STRENGTH",
		Intensity:    "EXTREME",
		Environment:  "HOME",
	})
	var enumErr *UnknownEnumError
	if !errors.As(err, &enumErr) {
		t.Fatalf("err = %v, want *UnknownEnumError", err)
	}
	if enumErr.Field != "intensity" || enumErr.Value != "EXTREME" {
		t.Errorf("enum error = %+v", enumErr)
	}
}

func TestToPayloadUnset(t *testing.T) {
	_, err := ToPayload(models.Profile{FitnessLevel: models.LevelBeginner})
	if err == nil {
		t.Fatal("expected error for unset goal")
	}
}
