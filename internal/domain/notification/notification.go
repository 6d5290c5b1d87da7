// internal/domain/notification/notification.go
package notification

import (
	"fmt"
	"strings"
	"time"
)

// Type distinguishes notification producers sharing the notifications table.
type Type string

const TypeLifecycleEvent Type = "lifecycle_event"

// Status is the delivery state of a materialized notification.
// Only pending and sent are active; every other status is terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusDismissed Status = "dismissed"
	StatusConfirmed Status = "confirmed"
	StatusMissed    Status = "missed"
	StatusCancelled Status = "cancelled"
)

// ActiveStatuses are the statuses that block a new notification for the same event code.
var ActiveStatuses = []Status{StatusPending, StatusSent}

func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusSent
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSent, StatusDismissed, StatusConfirmed, StatusMissed, StatusCancelled:
		return true
	}
	return false
}

// ParseStatus converts user or database input into a Status.
func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown notification status %q", value)
	}
	return s, nil
}

// Priority bucket derived from how many days remain until the event is due.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// Notification is one materialized occurrence of a catalog event for a subject.
// Corresponds to the 'notifications' table.
type Notification struct {
	ID          int64
	SubjectID   int64
	Type        Type
	Category    string
	Title       string
	Message     string
	EventCode   string // Also carried in Context; stored separately for the active-row index
	Priority    Priority
	Status      Status
	ScheduledAt time.Time
	Context     ContextData
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
