package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"

	"lifecycle_notification_service/internal/domain/lifecycle"
	"lifecycle_notification_service/internal/domain/notification"

	"github.com/lib/pq"
)

// Custom errors
var ErrSubjectNotFound = fmt.Errorf("subject not found")
var ErrNotificationNotFound = fmt.Errorf("notification not found")
var ErrDuplicateActiveNotification = fmt.Errorf("an active notification already exists for this subject and event")

// PostgreSQL error codes
const (
	uniqueViolationCode = "23505"
)

// mapError translates driver errors into package errors, keeping the original in the chain.
func mapError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) && notFound != nil {
		return notFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
		return fmt.Errorf("%w: %s: %w", ErrDuplicateActiveNotification, pqErr.Constraint, err)
	}
	return err
}

// transientClasses are SQLSTATE classes worth retrying: connection exceptions,
// serialization failures and deadlocks, resource exhaustion, operator intervention.
var transientClasses = map[pq.ErrorClass]struct{}{
	"08": {},
	"40": {},
	"53": {},
	"57": {},
}

// isTransient reports whether a failed call may succeed if repeated. Only
// connection-level failures and retryable SQLSTATE classes qualify; anything
// else, including bad stored data, fails the same way on every attempt.
func isTransient(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, sql.ErrNoRows),
		errors.Is(err, ErrSubjectNotFound),
		errors.Is(err, ErrNotificationNotFound),
		errors.Is(err, ErrDuplicateActiveNotification),
		errors.Is(err, lifecycle.ErrInvalidInput),
		errors.Is(err, notification.ErrInvalidContextData):
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		_, ok := transientClasses[pqErr.Code.Class()]
		return ok
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
