// internal/domain/catalog/event.go
package catalog

import (
	"lifecycle_notification_service/internal/domain/lifecycle"
)

// EventType is the kind of health milestone a definition describes.
type EventType string

const (
	EventTypeVaccination EventType = "vaccination"
	EventTypeCheckup     EventType = "checkup"
	EventTypeScreening   EventType = "screening"
)

// TargetGender restricts a definition to one gender, or to everyone.
type TargetGender string

const (
	TargetMale   TargetGender = "male"
	TargetFemale TargetGender = "female"
	TargetBoth   TargetGender = "both"
)

// EventDefinition is one row of the reference catalog.
// Exactly one of TargetAgeYears / TargetAgeMonths is set.
type EventDefinition struct {
	Code             string            `validate:"required,max=64"`
	Name             string            `validate:"required"`
	Type             EventType         `validate:"required,oneof=vaccination checkup screening"`
	Category         string            `validate:"required"`
	TargetAgeYears   *int              `validate:"omitempty,min=0,max=130"`
	TargetAgeMonths  *int              `validate:"omitempty,min=0,max=240"`
	TargetGender     TargetGender      `validate:"required,oneof=male female both"`
	ApplicableStages []lifecycle.Stage `validate:"required,min=1,dive,oneof=infant adolescent adult elderly"`
	LeadDays         int               `validate:"min=0,max=365"`
	Description      string            `validate:"required"`

	// Vaccination series details; required for vaccinations.
	Series     string `validate:"required_if=Type vaccination"`
	DoseNumber int    `validate:"required_if=Type vaccination,min=0"`
	// Program names the checkup or screening programme.
	Program string `validate:"required_unless=Type vaccination"`
}

// AppliesToStage reports whether stage is among the applicable stages.
func (e EventDefinition) AppliesToStage(stage lifecycle.Stage) bool {
	for _, s := range e.ApplicableStages {
		if s == stage {
			return true
		}
	}
	return false
}

// AppliesToGender is permissive for an unknown gender: gender-specific events
// are not suppressed when the subject's gender is not on file.
func (e EventDefinition) AppliesToGender(gender lifecycle.Gender) bool {
	if e.TargetGender == TargetBoth || !gender.Known() {
		return true
	}
	return string(e.TargetGender) == string(gender)
}

// OffsetMonths is the due age in months, whichever target is set.
func (e EventDefinition) OffsetMonths() int {
	if e.TargetAgeMonths != nil {
		return *e.TargetAgeMonths
	}
	if e.TargetAgeYears != nil {
		return *e.TargetAgeYears * 12
	}
	return 0
}

// OneTime is true for month-targeted events, which are only offered within a
// grace window and never recur.
func (e EventDefinition) OneTime() bool {
	return e.TargetAgeMonths != nil
}

func (e EventDefinition) clone() EventDefinition {
	c := e
	if e.TargetAgeYears != nil {
		v := *e.TargetAgeYears
		c.TargetAgeYears = &v
	}
	if e.TargetAgeMonths != nil {
		v := *e.TargetAgeMonths
		c.TargetAgeMonths = &v
	}
	c.ApplicableStages = append([]lifecycle.Stage(nil), e.ApplicableStages...)
	return c
}
