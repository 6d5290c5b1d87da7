// internal/domain/catalog/catalog.go
package catalog

import (
	"errors"
	"fmt"

	"lifecycle_notification_service/internal/domain/lifecycle"

	"github.com/go-playground/validator/v10"
)

// ErrCatalogMismatch marks a definition that cannot be scheduled (unsupported
// stage or gender, inconsistent targets, duplicate code). Such rows are dropped.
var ErrCatalogMismatch = errors.New("catalog definition mismatch")

// Catalog is the immutable, read-only table of event definitions.
// It is built once at startup and shared by all scheduling passes.
type Catalog struct {
	version  string
	events   []EventDefinition
	byCode   map[string]int
	rejected []error
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validateTargets, EventDefinition{})
	return v
}

// validateTargets enforces exactly one age target and that the target age can
// be reached while the subject is in one of the applicable stages.
func validateTargets(sl validator.StructLevel) {
	e := sl.Current().Interface().(EventDefinition)

	switch {
	case e.TargetAgeYears != nil && e.TargetAgeMonths != nil:
		sl.ReportError(e.TargetAgeMonths, "TargetAgeMonths", "TargetAgeMonths", "excluded_with", "TargetAgeYears")
		return
	case e.TargetAgeYears == nil && e.TargetAgeMonths == nil:
		sl.ReportError(e.TargetAgeYears, "TargetAgeYears", "TargetAgeYears", "required_without", "TargetAgeMonths")
		return
	}

	dueYears := e.OffsetMonths() / 12
	for _, s := range e.ApplicableStages {
		if !s.Valid() {
			return // reported by the field rules
		}
		next, hasNext := s.Next()
		if e.OneTime() {
			if dueYears >= s.MinYears() && (!hasNext || dueYears < next.MinYears()) {
				return
			}
			continue
		}
		// Year-targeted events keep applying after the due age.
		if !hasNext || dueYears < next.MinYears() {
			return
		}
	}
	sl.ReportError(e.ApplicableStages, "ApplicableStages", "ApplicableStages", "stage_reachable", "")
}

// New validates defs and keeps the ones that can be scheduled.
// Rejected rows are available through Rejected; they never abort construction.
func New(version string, defs []EventDefinition) *Catalog {
	c := &Catalog{
		version: version,
		events:  make([]EventDefinition, 0, len(defs)),
		byCode:  make(map[string]int, len(defs)),
	}

	for _, def := range defs {
		if err := validate.Struct(def); err != nil {
			c.rejected = append(c.rejected, fmt.Errorf("%w: %s: %v", ErrCatalogMismatch, def.Code, err))
			continue
		}
		if _, dup := c.byCode[def.Code]; dup {
			c.rejected = append(c.rejected, fmt.Errorf("%w: %s: duplicate event code", ErrCatalogMismatch, def.Code))
			continue
		}
		c.byCode[def.Code] = len(c.events)
		c.events = append(c.events, def.clone())
	}
	return c
}

func (c *Catalog) Version() string {
	return c.version
}

func (c *Catalog) Len() int {
	return len(c.events)
}

// Rejected lists the definitions dropped at construction, each wrapping ErrCatalogMismatch.
func (c *Catalog) Rejected() []error {
	return append([]error(nil), c.rejected...)
}

// All returns a copy of every definition in catalog order.
func (c *Catalog) All() []EventDefinition {
	out := make([]EventDefinition, len(c.events))
	for i, e := range c.events {
		out[i] = e.clone()
	}
	return out
}

// Lookup finds a definition by event code.
func (c *Catalog) Lookup(code string) (EventDefinition, bool) {
	i, ok := c.byCode[code]
	if !ok {
		return EventDefinition{}, false
	}
	return c.events[i].clone(), true
}

// EventsForStage returns the definitions that apply to the stage and gender.
// An unknown gender matches gender-specific definitions as well.
func (c *Catalog) EventsForStage(stage lifecycle.Stage, gender lifecycle.Gender) []EventDefinition {
	matched := make([]EventDefinition, 0)
	for _, e := range c.events {
		if e.AppliesToStage(stage) && e.AppliesToGender(gender) {
			matched = append(matched, e.clone())
		}
	}
	return matched
}
