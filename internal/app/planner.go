// internal/app/planner.go
package app

import (
	"sort"
	"time"

	"lifecycle_notification_service/internal/domain/catalog"
	"lifecycle_notification_service/internal/domain/lifecycle"
	"lifecycle_notification_service/internal/domain/notification"
	"lifecycle_notification_service/internal/domain/subject"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultGraceMonths is how long past its due age a one-time (month targeted)
	// event is still offered. After that it is skipped for good.
	DefaultGraceMonths = 3
	// DefaultHighPriorityWithinDays: events due today up to this many days ahead are high priority.
	DefaultHighPriorityWithinDays = 7
	// DefaultNormalPriorityWithinDays: events due up to this many days ahead are normal priority.
	DefaultNormalPriorityWithinDays = 30
)

// SchedulePolicy holds the tunable scheduling thresholds.
type SchedulePolicy struct {
	GraceMonths              int
	HighPriorityWithinDays   int
	NormalPriorityWithinDays int
}

func DefaultSchedulePolicy() SchedulePolicy {
	return SchedulePolicy{
		GraceMonths:              DefaultGraceMonths,
		HighPriorityWithinDays:   DefaultHighPriorityWithinDays,
		NormalPriorityWithinDays: DefaultNormalPriorityWithinDays,
	}
}

// Priority maps days until due to a bucket: overdue is urgent, today through
// HighPriorityWithinDays is high, then normal, then low.
func (p SchedulePolicy) Priority(daysUntil int) notification.Priority {
	switch {
	case daysUntil < 0:
		return notification.PriorityUrgent
	case daysUntil <= p.HighPriorityWithinDays:
		return notification.PriorityHigh
	case daysUntil <= p.NormalPriorityWithinDays:
		return notification.PriorityNormal
	default:
		return notification.PriorityLow
	}
}

// Schedule is the computed occurrence of one event for one subject.
type Schedule struct {
	ScheduledAt time.Time
	DaysUntil   int
	Priority    notification.Priority
}

// ScheduleEvent computes when event is due for someone born on birth.
// It returns nil when the event does not currently apply: the due age has not
// been reached, or a one-time event is past its grace window.
func (p SchedulePolicy) ScheduleEvent(birth time.Time, event catalog.EventDefinition, today time.Time) (*Schedule, error) {
	age, err := lifecycle.AgeAt(birth, today)
	if err != nil {
		return nil, err
	}

	switch {
	case event.TargetAgeMonths != nil:
		target := *event.TargetAgeMonths
		if age.TotalMonths < target || age.TotalMonths > target+p.GraceMonths {
			return nil, nil
		}
	case event.TargetAgeYears != nil:
		if age.Years < *event.TargetAgeYears {
			return nil, nil
		}
	default:
		return nil, nil
	}

	scheduledAt := lifecycle.AddMonths(birth, event.OffsetMonths())
	daysUntil := lifecycle.DaysBetween(today, scheduledAt)
	return &Schedule{
		ScheduledAt: scheduledAt,
		DaysUntil:   daysUntil,
		Priority:    p.Priority(daysUntil),
	}, nil
}

// Candidate is a matched and scheduled event waiting for deduplication.
type Candidate struct {
	Event catalog.EventDefinition
	Stage lifecycle.Stage
	Age   lifecycle.Age
	Schedule
}

// Planner runs the pure part of a pass: stage, catalog match, schedule.
type Planner struct {
	catalog *catalog.Catalog
	policy  SchedulePolicy
	logger  *logrus.Entry
}

func NewPlanner(c *catalog.Catalog, policy SchedulePolicy, logger *logrus.Entry) *Planner {
	return &Planner{
		catalog: c,
		policy:  policy,
		logger:  logger.WithField("component", "planner"),
	}
}

func (p *Planner) Catalog() *catalog.Catalog {
	return p.catalog
}

func (p *Planner) Policy() SchedulePolicy {
	return p.policy
}

// Schedule computes one event for one subject. Bad subject data is logged and
// yields nil so a batch loop never has to handle it.
func (p *Planner) Schedule(s *subject.Subject, event catalog.EventDefinition, today time.Time) *Schedule {
	log := p.logger.WithFields(logrus.Fields{"subject_id": s.ID, "event_code": event.Code})
	if !s.HasBirthDate() {
		log.Warn("Precondition violated: subject has no birth date, nothing to schedule")
		return nil
	}
	sched, err := p.policy.ScheduleEvent(s.BirthDate.Time, event, today)
	if err != nil {
		log.WithError(err).Warn("Skipping event that cannot be scheduled")
		return nil
	}
	return sched
}

// Plan returns the candidates for a subject ordered by due date, then event code.
// A subject without a usable birth date yields an empty plan and a warning.
func (p *Planner) Plan(s *subject.Subject, today time.Time) []Candidate {
	log := p.logger.WithField("subject_id", s.ID)
	if !s.HasBirthDate() {
		log.Warn("Precondition violated: subject has no birth date, nothing to schedule")
		return nil
	}

	info, err := lifecycle.StageAt(s.BirthDate.Time, today)
	if err != nil {
		log.WithError(err).Warn("Cannot determine lifecycle stage, nothing to schedule")
		return nil
	}

	events := p.catalog.EventsForStage(info.Stage, s.Gender)
	candidates := make([]Candidate, 0, len(events))
	for _, event := range events {
		sched, err := p.policy.ScheduleEvent(s.BirthDate.Time, event, today)
		if err != nil {
			log.WithError(err).WithField("event_code", event.Code).Warn("Skipping event that cannot be scheduled")
			continue
		}
		if sched == nil {
			continue
		}
		candidates = append(candidates, Candidate{
			Event:    event,
			Stage:    info.Stage,
			Age:      info.Age,
			Schedule: *sched,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].ScheduledAt.Equal(candidates[j].ScheduledAt) {
			return candidates[i].ScheduledAt.Before(candidates[j].ScheduledAt)
		}
		return candidates[i].Event.Code < candidates[j].Event.Code
	})

	log.WithFields(logrus.Fields{
		"stage":      info.Stage,
		"age":        info.Age.String(),
		"matched":    len(events),
		"candidates": len(candidates),
	}).Debug("Planned lifecycle events")
	return candidates
}
