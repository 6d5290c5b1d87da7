// internal/infra/database/postgres_notification_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"lifecycle_notification_service/internal/domain/lifecycle"
	"lifecycle_notification_service/internal/domain/notification"

	"github.com/lib/pq" // For pq.Array and driver registration
)

type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

const notificationColumns = `id, subject_id, type, category, title, message, event_code, priority, status, scheduled_at, context_data, created_at, updated_at`

// activeStatusStrings mirrors the predicate of notifications_active_event_uniq.
func activeStatusStrings() []string {
	out := make([]string, len(notification.ActiveStatuses))
	for i, s := range notification.ActiveStatuses {
		out[i] = string(s)
	}
	return out
}

func scanNotification(row rowScanner) (*notification.Notification, error) {
	n := &notification.Notification{}
	var rawContext []byte
	err := row.Scan(&n.ID, &n.SubjectID, &n.Type, &n.Category, &n.Title, &n.Message, &n.EventCode,
		&n.Priority, &n.Status, &n.ScheduledAt, &rawContext, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	n.ScheduledAt = lifecycle.DateOnly(n.ScheduledAt)
	if n.Context, err = notification.UnmarshalContextData(rawContext); err != nil {
		return nil, fmt.Errorf("notification %d: %w", n.ID, err)
	}
	return n, nil
}

func (r *PostgresNotificationRepository) ListActiveEventCodes(ctx context.Context, subjectID int64, notifType notification.Type) ([]string, error) {
	query := `SELECT event_code FROM notifications
               WHERE subject_id = $1 AND type = $2 AND status = ANY($3)`

	rows, err := r.db.QueryContext(ctx, query, subjectID, notifType, pq.Array(activeStatusStrings()))
	if err != nil {
		return nil, fmt.Errorf("error listing active event codes: %w", err)
	}
	defer rows.Close()

	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("error scanning active event code: %w", err)
		}
		codes = append(codes, code)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active event codes: %w", err)
	}
	return codes, nil
}

// BulkCreate inserts all rows in one transaction. Rows that collide with an
// active notification are skipped by the partial unique index and left out of
// the returned slice.
func (r *PostgresNotificationRepository) BulkCreate(ctx context.Context, notifications []*notification.Notification) ([]*notification.Notification, error) {
	if len(notifications) == 0 {
		return nil, nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction for bulk create: %w", err)
	}
	defer txn.Rollback() // Rollback if not committed

	stmt, err := txn.PrepareContext(ctx, `INSERT INTO notifications (subject_id, type, category, title, message, event_code, priority, status, scheduled_at, context_data)
                                         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
                                         ON CONFLICT (subject_id, type, event_code) WHERE status IN ('pending', 'sent') DO NOTHING
                                         RETURNING id, created_at, updated_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement for bulk create: %w", err)
	}
	defer stmt.Close()

	created := make([]*notification.Notification, 0, len(notifications))
	for _, n := range notifications {
		// jsonb is sent as text; lib/pq would encode []byte as bytea.
		rawContext, err := n.Context.Marshal()
		if err != nil {
			return nil, fmt.Errorf("error encoding context data (subject %d, event %s): %w", n.SubjectID, n.EventCode, err)
		}
		err = stmt.QueryRowContext(ctx, n.SubjectID, n.Type, n.Category, n.Title, n.Message, n.EventCode,
			n.Priority, n.Status, lifecycle.DateOnly(n.ScheduledAt), string(rawContext)).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
		if err == sql.ErrNoRows {
			continue // conflict: an active row already exists
		}
		if err != nil {
			return nil, fmt.Errorf("error executing statement for bulk create (subject %d, event %s): %w", n.SubjectID, n.EventCode, mapError(err, nil))
		}
		created = append(created, n)
	}

	if err := txn.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit bulk create: %w", err)
	}
	return created, nil
}

func (r *PostgresNotificationRepository) GetByID(ctx context.Context, id int64) (*notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	n, err := scanNotification(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("error getting notification by ID: %w", err)
	}
	return n, nil
}

func (r *PostgresNotificationRepository) ListBySubject(ctx context.Context, subjectID int64) ([]*notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
               WHERE subject_id = $1 ORDER BY scheduled_at, id`

	rows, err := r.db.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications for subject: %w", err)
	}
	defer rows.Close()

	out := make([]*notification.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning notification: %w", err)
		}
		out = append(out, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return out, nil
}

func (r *PostgresNotificationRepository) UpdateStatus(ctx context.Context, id int64, status notification.Status) error {
	query := `UPDATE notifications SET status = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		// Reactivating a row while another active one exists violates the partial unique index.
		return fmt.Errorf("error updating notification status: %w", mapError(err, nil))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
