package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"lifecycle_notification_service/internal/domain/notification"
	"lifecycle_notification_service/internal/domain/subject"
	idb "lifecycle_notification_service/internal/infra/database"
)

type fakeSubjectRepo struct {
	subjects []*subject.Subject
	listErr  error
}

func (r *fakeSubjectRepo) GetByID(_ context.Context, id int64) (*subject.Subject, error) {
	for _, s := range r.subjects {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, idb.ErrSubjectNotFound
}

func (r *fakeSubjectRepo) ListWithBirthDate(_ context.Context) ([]*subject.Subject, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*subject.Subject, 0, len(r.subjects))
	for _, s := range r.subjects {
		if s.HasBirthDate() {
			out = append(out, s)
		}
	}
	return out, nil
}

// fakeNotificationRepo behaves like the Postgres store including the partial
// unique index on active (subject, event code) rows.
type fakeNotificationRepo struct {
	mu           sync.Mutex
	rows         []*notification.Notification
	nextID       int64
	listErrFor   map[int64]error
	createErrFor map[int64]error
	listCalls    int
	bulkCalls    int
	staleActive  bool // ListActiveEventCodes pretends nothing is active
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{
		listErrFor:   map[int64]error{},
		createErrFor: map[int64]error{},
	}
}

func (r *fakeNotificationRepo) ListActiveEventCodes(_ context.Context, subjectID int64, notifType notification.Type) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	if err := r.listErrFor[subjectID]; err != nil {
		return nil, err
	}
	if r.staleActive {
		return nil, nil
	}
	codes := make([]string, 0)
	for _, n := range r.rows {
		if n.SubjectID == subjectID && n.Type == notifType && n.Status.IsActive() {
			codes = append(codes, n.EventCode)
		}
	}
	return codes, nil
}

func (r *fakeNotificationRepo) BulkCreate(_ context.Context, ns []*notification.Notification) ([]*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bulkCalls++
	if len(ns) > 0 {
		if err := r.createErrFor[ns[0].SubjectID]; err != nil {
			return nil, err
		}
	}
	created := make([]*notification.Notification, 0, len(ns))
	for _, n := range ns {
		if r.hasActive(n.SubjectID, n.EventCode) {
			continue
		}
		r.nextID++
		cp := *n
		cp.ID = r.nextID
		cp.CreatedAt = time.Now()
		cp.UpdatedAt = cp.CreatedAt
		r.rows = append(r.rows, &cp)
		n.ID = cp.ID
		created = append(created, n)
	}
	return created, nil
}

func (r *fakeNotificationRepo) hasActive(subjectID int64, code string) bool {
	for _, n := range r.rows {
		if n.SubjectID == subjectID && n.EventCode == code && n.Status.IsActive() {
			return true
		}
	}
	return false
}

func (r *fakeNotificationRepo) GetByID(_ context.Context, id int64) (*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.rows {
		if n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, idb.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) ListBySubject(_ context.Context, subjectID int64) ([]*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*notification.Notification, 0)
	for _, n := range r.rows {
		if n.SubjectID == subjectID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (r *fakeNotificationRepo) UpdateStatus(_ context.Context, id int64, status notification.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.rows {
		if n.ID == id {
			n.Status = status
			n.UpdatedAt = time.Now()
			return nil
		}
	}
	return idb.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) setStatusByCode(subjectID int64, code string, status notification.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.rows {
		if n.SubjectID == subjectID && n.EventCode == code && n.Status.IsActive() {
			n.Status = status
		}
	}
}

func (r *fakeNotificationRepo) countActive(subjectID int64, code string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.rows {
		if n.SubjectID == subjectID && n.EventCode == code && n.Status.IsActive() {
			count++
		}
	}
	return count
}

type fakeTelegramClient struct {
	mu       sync.Mutex
	messages map[int64][]string
	err      error
}

func newFakeTelegramClient() *fakeTelegramClient {
	return &fakeTelegramClient{messages: map[int64][]string{}}
}

func (c *fakeTelegramClient) SendMessage(chatID int64, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.messages[chatID] = append(c.messages[chatID], text)
	return nil
}
