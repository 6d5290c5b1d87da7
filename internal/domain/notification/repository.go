// internal/domain/notification/repository.go
package notification

import (
	"context"
)

// Repository defines the operations on materialized notifications.
type Repository interface {
	// ListActiveEventCodes returns the event codes that currently have a pending
	// or sent notification of the given type for the subject.
	ListActiveEventCodes(ctx context.Context, subjectID int64, notifType Type) ([]string, error)

	// BulkCreate inserts all rows in one transaction and returns the rows that
	// were actually written, with ID and timestamps set. A row that collides with
	// an active notification for the same (subject, event code) is silently
	// skipped and left out of the result.
	BulkCreate(ctx context.Context, notifications []*Notification) ([]*Notification, error)

	GetByID(ctx context.Context, id int64) (*Notification, error)
	ListBySubject(ctx context.Context, subjectID int64) ([]*Notification, error)

	// UpdateStatus is used by delivery and operators; the scheduling engine never
	// mutates a notification after insert.
	UpdateStatus(ctx context.Context, id int64, status Status) error
}
