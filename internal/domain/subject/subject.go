package subject

import (
	"database/sql"
	"time"

	"lifecycle_notification_service/internal/domain/lifecycle"
)

// Subject is a person whose health events are scheduled.
// Profiles are owned by the family-member subsystem; this service only reads them.
type Subject struct {
	ID        int64
	Name      string
	BirthDate sql.NullTime // Missing birth dates are never scheduled
	Gender    lifecycle.Gender
	Relation  string // e.g. self, child, parent
	Invalid   error  // Set when the stored profile could not be parsed; wraps lifecycle.ErrInvalidInput
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasBirthDate reports whether the subject can be scheduled at all.
func (s *Subject) HasBirthDate() bool {
	return s.BirthDate.Valid && !s.BirthDate.Time.IsZero()
}
