// internal/domain/lifecycle/stage.go
package lifecycle

import "fmt"

// Stage is a coarse age band that gates which catalog events apply to a person.
type Stage string

const (
	StageInfant     Stage = "infant"     // [0, 7) years
	StageAdolescent Stage = "adolescent" // [7, 19) years
	StageAdult      Stage = "adult"      // [19, 65) years
	StageElderly    Stage = "elderly"    // [65, ∞) years
)

// stageBounds lists stages in ascending order with their inclusive lower bound in years.
// The ranges are contiguous: each stage ends where the next one begins.
var stageBounds = []struct {
	stage    Stage
	minYears int
}{
	{StageInfant, 0},
	{StageAdolescent, 7},
	{StageAdult, 19},
	{StageElderly, 65},
}

// Stages returns all stages in age order.
func Stages() []Stage {
	stages := make([]Stage, len(stageBounds))
	for i, b := range stageBounds {
		stages[i] = b.stage
	}
	return stages
}

// ParseStage converts a stored or user-supplied value into a Stage.
func ParseStage(value string) (Stage, error) {
	s := Stage(value)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown lifecycle stage %q", ErrInvalidInput, value)
	}
	return s, nil
}

func (s Stage) Valid() bool {
	return s.index() >= 0
}

// MinYears is the age in whole years at which the stage begins.
func (s Stage) MinYears() int {
	if i := s.index(); i >= 0 {
		return stageBounds[i].minYears
	}
	return -1
}

// Next returns the stage that follows s, or false for the last stage.
func (s Stage) Next() (Stage, bool) {
	i := s.index()
	if i < 0 || i == len(stageBounds)-1 {
		return "", false
	}
	return stageBounds[i+1].stage, true
}

func (s Stage) index() int {
	for i, b := range stageBounds {
		if b.stage == s {
			return i
		}
	}
	return -1
}

// StageForYears maps a non-negative age in whole years to its stage.
func StageForYears(years int) Stage {
	stage := StageInfant
	for _, b := range stageBounds {
		if years >= b.minYears {
			stage = b.stage
		}
	}
	return stage
}
