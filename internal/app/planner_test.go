package app

import (
	"database/sql"
	"io"
	"testing"
	"time"

	"lifecycle_notification_service/internal/domain/catalog"
	"lifecycle_notification_service/internal/domain/lifecycle"
	"lifecycle_notification_service/internal/domain/notification"
	"lifecycle_notification_service/internal/domain/subject"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(n int) *int { return &n }

func newSubject(id int64, name string, birth time.Time, gender lifecycle.Gender) *subject.Subject {
	return &subject.Subject{
		ID:        id,
		Name:      name,
		BirthDate: sql.NullTime{Time: birth, Valid: true},
		Gender:    gender,
		Relation:  "self",
	}
}

func candidateCodes(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Event.Code
	}
	return out
}

func TestSchedulePolicy_Priority(t *testing.T) {
	t.Parallel()
	p := DefaultSchedulePolicy()

	testCases := []struct {
		days     int
		expected notification.Priority
	}{
		{-400, notification.PriorityUrgent},
		{-1, notification.PriorityUrgent},
		{0, notification.PriorityHigh},
		{1, notification.PriorityHigh},
		{7, notification.PriorityHigh},
		{8, notification.PriorityNormal},
		{30, notification.PriorityNormal},
		{31, notification.PriorityLow},
		{365, notification.PriorityLow},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, p.Priority(tc.days), "days=%d", tc.days)
	}
}

func TestSchedulePolicy_ScheduleEvent(t *testing.T) {
	t.Parallel()
	p := DefaultSchedulePolicy()
	birth := day(2025, time.January, 31)

	monthEvent := catalog.EventDefinition{Code: "m2", TargetAgeMonths: intPtr(2)}
	yearEvent := catalog.EventDefinition{Code: "y1", TargetAgeYears: intPtr(1)}

	t.Run("month event before due age", func(t *testing.T) {
		s, err := p.ScheduleEvent(birth, monthEvent, day(2025, time.March, 30))
		require.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("month event on due date is high priority", func(t *testing.T) {
		s, err := p.ScheduleEvent(birth, monthEvent, day(2025, time.March, 31))
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, day(2025, time.March, 31), s.ScheduledAt)
		assert.Equal(t, 0, s.DaysUntil)
		assert.Equal(t, notification.PriorityHigh, s.Priority)
	})

	t.Run("month event at end of grace window", func(t *testing.T) {
		// 5 completed months = target + grace
		s, err := p.ScheduleEvent(birth, monthEvent, day(2025, time.July, 30))
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, notification.PriorityUrgent, s.Priority)
		assert.Equal(t, lifecycle.DaysBetween(day(2025, time.July, 30), day(2025, time.March, 31)), s.DaysUntil)
	})

	t.Run("month event past grace window", func(t *testing.T) {
		s, err := p.ScheduleEvent(birth, monthEvent, day(2025, time.August, 31))
		require.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("year event has no cutoff", func(t *testing.T) {
		s, err := p.ScheduleEvent(birth, yearEvent, day(2090, time.January, 1))
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, day(2026, time.January, 31), s.ScheduledAt)
		assert.Equal(t, notification.PriorityUrgent, s.Priority)
	})

	t.Run("clamped due date for month-end birthday", func(t *testing.T) {
		oneMonth := catalog.EventDefinition{Code: "m1", TargetAgeMonths: intPtr(1)}
		s, err := p.ScheduleEvent(birth, oneMonth, day(2025, time.February, 28))
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, day(2025, time.February, 28), s.ScheduledAt)
	})

	t.Run("no target never applies", func(t *testing.T) {
		s, err := p.ScheduleEvent(birth, catalog.EventDefinition{Code: "none"}, day(2030, time.January, 1))
		require.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("future birth date is invalid input", func(t *testing.T) {
		_, err := p.ScheduleEvent(day(2030, time.January, 1), yearEvent, day(2025, time.January, 1))
		assert.ErrorIs(t, err, lifecycle.ErrInvalidInput)
	})
}

func TestSchedulePolicy_TimeOfDayDoesNotShiftDaysUntil(t *testing.T) {
	t.Parallel()
	p := DefaultSchedulePolicy()

	birth := time.Date(1960, time.October, 17, 0, 0, 0, 0, time.UTC)
	lateEvening := time.Date(2025, time.October, 17, 23, 30, 0, 0, time.UTC)
	event := catalog.EventDefinition{Code: "y65", TargetAgeYears: intPtr(65)}

	s, err := p.ScheduleEvent(birth, event, lateEvening)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 0, s.DaysUntil)
}

// Scenario: exactly 65 today, gender unset.
func TestPlanner_Plan_TurningSixtyFive(t *testing.T) {
	planner := NewPlanner(catalog.Default(), DefaultSchedulePolicy(), testLogger())
	today := day(2025, time.October, 17)
	s := newSubject(1, "김영희", day(1960, time.October, 17), lifecycle.GenderUnknown)

	candidates := planner.Plan(s, today)

	var found *Candidate
	for i := range candidates {
		if candidates[i].Event.Code == "pneumococcal_65years" {
			found = &candidates[i]
		}
		assert.Equal(t, lifecycle.StageElderly, candidates[i].Stage)
	}
	require.NotNil(t, found)
	assert.Equal(t, day(2025, time.October, 17), found.ScheduledAt)
	assert.Equal(t, 0, found.DaysUntil)
	assert.Equal(t, notification.PriorityHigh, found.Priority)

	codes := candidateCodes(candidates)
	assert.Contains(t, codes, "influenza_65years")
	// Gender unset keeps female-only events.
	assert.NotContains(t, codes, "bone_density_66years") // not 66 yet
	assert.Contains(t, codes, "breast_cancer_40years")
	assert.Contains(t, codes, "prostate_check_50years")
}

// Scenario: a two month old boy.
func TestPlanner_Plan_TwoMonthOldInfant(t *testing.T) {
	planner := NewPlanner(catalog.Default(), DefaultSchedulePolicy(), testLogger())
	today := day(2025, time.October, 17)
	s := newSubject(2, "민준", day(2025, time.August, 17), lifecycle.GenderMale)

	candidates := planner.Plan(s, today)

	assert.Equal(t, []string{"hepb_1st", "hepb_2nd", "dtap_ipv_hib_1st"}, candidateCodes(candidates))
	for _, c := range candidates {
		assert.Equal(t, lifecycle.StageInfant, c.Stage)
		require.NotNil(t, c.Event.TargetAgeMonths)
		assert.LessOrEqual(t, *c.Event.TargetAgeMonths, 2)
	}
}

func TestPlanner_Plan_OneTimeEventsDoNotResurface(t *testing.T) {
	planner := NewPlanner(catalog.Default(), DefaultSchedulePolicy(), testLogger())
	s := newSubject(3, "서연", day(2024, time.January, 10), lifecycle.GenderFemale)

	// 21 months old: hepb doses (0, 1, 6 months) are well past their windows.
	codes := candidateCodes(planner.Plan(s, day(2025, time.October, 17)))
	assert.NotContains(t, codes, "hepb_1st")
	assert.NotContains(t, codes, "hepb_3rd")
	assert.Contains(t, codes, "checkup_infant_18months")
	assert.Contains(t, codes, "dental_infant_18months")
	assert.Contains(t, codes, "hepa_2nd")
}

func TestPlanner_Plan_OrderedByDueDate(t *testing.T) {
	planner := NewPlanner(catalog.Default(), DefaultSchedulePolicy(), testLogger())
	s := newSubject(4, "박철수", day(1955, time.March, 3), lifecycle.GenderMale)

	candidates := planner.Plan(s, day(2025, time.October, 17))
	require.NotEmpty(t, candidates)
	for i := 1; i < len(candidates); i++ {
		prev, cur := candidates[i-1], candidates[i]
		assert.False(t, cur.ScheduledAt.Before(prev.ScheduledAt))
		if cur.ScheduledAt.Equal(prev.ScheduledAt) {
			assert.Less(t, prev.Event.Code, cur.Event.Code)
		}
	}
}

func TestPlanner_MissingBirthDate(t *testing.T) {
	planner := NewPlanner(catalog.Default(), DefaultSchedulePolicy(), testLogger())
	s := &subject.Subject{ID: 5, Name: "무기록"}

	assert.Empty(t, planner.Plan(s, day(2025, time.October, 17)))

	event, ok := catalog.Default().Lookup("pneumococcal_65years")
	require.True(t, ok)
	assert.Nil(t, planner.Schedule(s, event, day(2025, time.October, 17)))
}

func TestPlanner_FutureBirthDate(t *testing.T) {
	planner := NewPlanner(catalog.Default(), DefaultSchedulePolicy(), testLogger())
	s := newSubject(6, "미래", day(2030, time.January, 1), lifecycle.GenderUnknown)

	assert.Empty(t, planner.Plan(s, day(2025, time.October, 17)))
}
