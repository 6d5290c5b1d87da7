package database

import (
	"context"
	"errors"
	"time"

	"lifecycle_notification_service/internal/domain/notification"
	"lifecycle_notification_service/internal/domain/subject"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
)

const (
	defaultStoreTimeout    = 5 * time.Second
	defaultStoreMaxRetries = 3
	defaultInitialInterval = 200 * time.Millisecond
	defaultMaxInterval     = 2 * time.Second
)

// RetryPolicy bounds every store call with a timeout and retries transient failures.
type RetryPolicy struct {
	Timeout         time.Duration // per attempt; zero disables
	MaxRetries      uint          // attempts after the first
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Timeout:         defaultStoreTimeout,
		MaxRetries:      defaultStoreMaxRetries,
		InitialInterval: defaultInitialInterval,
		MaxInterval:     defaultMaxInterval,
	}
}

func (p RetryPolicy) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	return b
}

func (p RetryPolicy) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.Timeout)
}

// withRetry runs fn until it succeeds, fails permanently, or the attempts run out.
func withRetry[T any](ctx context.Context, p RetryPolicy, log *logrus.Entry, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	operation := func() (T, error) {
		callCtx, cancel := p.callContext(ctx)
		defer cancel()

		v, err := fn(callCtx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return v, backoff.Permanent(err)
		}
		// A per-attempt timeout is worth another try while the caller still waits.
		if errors.Is(err, context.DeadlineExceeded) && callCtx.Err() != nil {
			return v, err
		}
		if !isTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	notify := func(err error, next time.Duration) {
		log.WithError(err).WithFields(logrus.Fields{
			"operation":  op,
			"next_retry": next.String(),
		}).Warn("Transient store error. Retrying.")
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(p.newBackOff()),
		backoff.WithMaxTries(p.MaxRetries+1),
		backoff.WithNotify(notify),
	)
}

// RetryingSubjectRepository decorates a subject.Repository with the retry policy.
type RetryingSubjectRepository struct {
	next   subject.Repository
	policy RetryPolicy
	logger *logrus.Entry
}

func NewRetryingSubjectRepository(next subject.Repository, policy RetryPolicy, logger *logrus.Entry) *RetryingSubjectRepository {
	return &RetryingSubjectRepository{next: next, policy: policy, logger: logger.WithField("component", "subject_store")}
}

func (r *RetryingSubjectRepository) GetByID(ctx context.Context, id int64) (*subject.Subject, error) {
	return withRetry(ctx, r.policy, r.logger, "get_subject", func(ctx context.Context) (*subject.Subject, error) {
		return r.next.GetByID(ctx, id)
	})
}

func (r *RetryingSubjectRepository) ListWithBirthDate(ctx context.Context) ([]*subject.Subject, error) {
	return withRetry(ctx, r.policy, r.logger, "list_subjects", func(ctx context.Context) ([]*subject.Subject, error) {
		return r.next.ListWithBirthDate(ctx)
	})
}

// RetryingNotificationRepository decorates a notification.Repository with the
// retry policy. Inserts are never replayed blindly: after a failed attempt the
// active codes are re-read and only rows still missing are written again.
type RetryingNotificationRepository struct {
	next   notification.Repository
	policy RetryPolicy
	logger *logrus.Entry
}

func NewRetryingNotificationRepository(next notification.Repository, policy RetryPolicy, logger *logrus.Entry) *RetryingNotificationRepository {
	return &RetryingNotificationRepository{next: next, policy: policy, logger: logger.WithField("component", "notification_store")}
}

func (r *RetryingNotificationRepository) ListActiveEventCodes(ctx context.Context, subjectID int64, notifType notification.Type) ([]string, error) {
	return withRetry(ctx, r.policy, r.logger, "list_active_codes", func(ctx context.Context) ([]string, error) {
		return r.next.ListActiveEventCodes(ctx, subjectID, notifType)
	})
}

func (r *RetryingNotificationRepository) BulkCreate(ctx context.Context, notifications []*notification.Notification) ([]*notification.Notification, error) {
	pending := notifications
	created := make([]*notification.Notification, 0, len(notifications))
	attempted := false

	_, err := withRetry(ctx, r.policy, r.logger, "bulk_create", func(ctx context.Context) (struct{}, error) {
		if attempted {
			remaining, err := r.stillMissing(ctx, pending)
			if err != nil {
				return struct{}{}, err
			}
			pending = remaining
			if len(pending) == 0 {
				return struct{}{}, nil
			}
		}
		attempted = true

		out, err := r.next.BulkCreate(ctx, pending)
		if err != nil {
			return struct{}{}, err
		}
		created = append(created, out...)
		return struct{}{}, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// stillMissing drops rows whose event code became active since the failed
// attempt, either because that attempt committed or a concurrent run won.
func (r *RetryingNotificationRepository) stillMissing(ctx context.Context, rows []*notification.Notification) ([]*notification.Notification, error) {
	type key struct {
		subjectID int64
		notifType notification.Type
	}
	active := make(map[key]map[string]struct{})
	remaining := make([]*notification.Notification, 0, len(rows))
	for _, n := range rows {
		k := key{n.SubjectID, n.Type}
		codes, ok := active[k]
		if !ok {
			list, err := r.next.ListActiveEventCodes(ctx, n.SubjectID, n.Type)
			if err != nil {
				return nil, err
			}
			codes = make(map[string]struct{}, len(list))
			for _, c := range list {
				codes[c] = struct{}{}
			}
			active[k] = codes
		}
		if _, exists := codes[n.EventCode]; exists {
			r.logger.WithFields(logrus.Fields{
				"subject_id": n.SubjectID,
				"event_code": n.EventCode,
			}).Debug("Row became active after failed insert. Not retrying it.")
			continue
		}
		remaining = append(remaining, n)
	}
	return remaining, nil
}

func (r *RetryingNotificationRepository) GetByID(ctx context.Context, id int64) (*notification.Notification, error) {
	return withRetry(ctx, r.policy, r.logger, "get_notification", func(ctx context.Context) (*notification.Notification, error) {
		return r.next.GetByID(ctx, id)
	})
}

func (r *RetryingNotificationRepository) ListBySubject(ctx context.Context, subjectID int64) ([]*notification.Notification, error) {
	return withRetry(ctx, r.policy, r.logger, "list_notifications", func(ctx context.Context) ([]*notification.Notification, error) {
		return r.next.ListBySubject(ctx, subjectID)
	})
}

// UpdateStatus sets an absolute value, so repeating it is safe.
func (r *RetryingNotificationRepository) UpdateStatus(ctx context.Context, id int64, status notification.Status) error {
	_, err := withRetry(ctx, r.policy, r.logger, "update_status", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.next.UpdateStatus(ctx, id, status)
	})
	return err
}
