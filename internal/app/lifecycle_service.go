// internal/app/lifecycle_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifecycle_notification_service/internal/domain/catalog"
	"lifecycle_notification_service/internal/domain/lifecycle"
	"lifecycle_notification_service/internal/domain/notification"
	"lifecycle_notification_service/internal/domain/subject"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrPersistenceFailure wraps any notification store error. It aborts only the
// subject being processed.
var ErrPersistenceFailure = errors.New("notification persistence failure")

// ErrBatchCancelled is recorded for subjects never started because the batch
// context was cancelled.
var ErrBatchCancelled = errors.New("batch cancelled before subject was processed")

const defaultBatchConcurrency = 4

// MaterializeResult is the outcome of deduplicating and persisting one subject's candidates.
type MaterializeResult struct {
	Created []*notification.Notification
	Skipped int // Candidates suppressed because an active notification already exists
	Invalid int // Candidates dropped because their context data failed validation
}

// SubjectResult is the per-subject tally of a pass.
type SubjectResult struct {
	SubjectID int64
	Name      string
	Stage     lifecycle.Stage
	Created   int
	Skipped   int
	Dropped   int   // Candidates with invalid context data
	Err       error // Non-nil when the subject failed or was not processed
}

// Failed reports a store or lookup failure. Invalid input and cancellation are not failures.
func (r SubjectResult) Failed() bool {
	return r.Err != nil && !errors.Is(r.Err, lifecycle.ErrInvalidInput) && !errors.Is(r.Err, ErrBatchCancelled)
}

// BatchSummary aggregates a batch run. A batch always completes; failures are
// recorded per subject.
type BatchSummary struct {
	RunID      uuid.UUID
	Today      time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	Subjects   []SubjectResult
	Created    int
	Skipped    int
	Failed     int
	Invalid    int
	Cancelled  int
	Dropped    int // Candidates dropped for invalid context data, across subjects
}

// LifecycleService turns subjects into materialized lifecycle notifications.
type LifecycleService struct {
	subjectRepo      subject.Repository
	notifRepo        notification.Repository
	planner          *Planner
	logger           *logrus.Entry
	batchConcurrency int
}

func NewLifecycleService(
	sr subject.Repository,
	nr notification.Repository,
	planner *Planner,
	logger *logrus.Entry,
	batchConcurrency int,
) *LifecycleService {
	if batchConcurrency <= 0 {
		batchConcurrency = defaultBatchConcurrency
	}
	return &LifecycleService{
		subjectRepo:      sr,
		notifRepo:        nr,
		planner:          planner,
		logger:           logger.WithField("component", "lifecycle_service"),
		batchConcurrency: batchConcurrency,
	}
}

func (s *LifecycleService) Planner() *Planner {
	return s.planner
}

// RefreshSubject is the on-demand pass for a single subject.
func (s *LifecycleService) RefreshSubject(ctx context.Context, subjectID int64, today time.Time) (SubjectResult, error) {
	subj, err := s.subjectRepo.GetByID(ctx, subjectID)
	if err != nil {
		s.logger.WithError(err).WithField("subject_id", subjectID).Error("Failed to load subject")
		return SubjectResult{SubjectID: subjectID, Err: err}, fmt.Errorf("failed to load subject %d: %w", subjectID, err)
	}
	res := s.processSubject(ctx, subj, today)
	return res, res.Err
}

func (s *LifecycleService) processSubject(ctx context.Context, subj *subject.Subject, today time.Time) SubjectResult {
	res := SubjectResult{SubjectID: subj.ID, Name: subj.Name}
	log := s.logger.WithField("subject_id", subj.ID)

	if subj.Invalid != nil {
		log.WithError(subj.Invalid).Warn("Subject profile is unusable. Skipping schedule.")
		res.Err = subj.Invalid
		return res
	}
	if !subj.HasBirthDate() {
		log.Warn("Subject has no birth date on file. Skipping schedule.")
		res.Err = fmt.Errorf("%w: subject %d has no birth date", lifecycle.ErrInvalidInput, subj.ID)
		return res
	}
	info, err := lifecycle.StageAt(subj.BirthDate.Time, today)
	if err != nil {
		log.WithError(err).Warn("Subject birth date is unusable. Skipping schedule.")
		res.Err = err
		return res
	}
	res.Stage = info.Stage

	candidates := s.planner.Plan(subj, today)

	mat, err := s.Materialize(ctx, subj, candidates)
	if err != nil {
		log.WithError(err).Error("Failed to materialize lifecycle notifications")
		res.Err = err
		return res
	}
	res.Created = len(mat.Created)
	res.Skipped = mat.Skipped
	res.Dropped = mat.Invalid

	log.WithFields(logrus.Fields{
		"candidates": len(candidates),
		"created":    res.Created,
		"skipped":    res.Skipped,
		"dropped":    res.Dropped,
	}).Info("Lifecycle schedule refreshed")
	return res
}

// Materialize removes candidates that already have an active notification and
// persists the rest. Running it again without status changes creates nothing.
func (s *LifecycleService) Materialize(ctx context.Context, subj *subject.Subject, candidates []Candidate) (*MaterializeResult, error) {
	result := &MaterializeResult{}
	if len(candidates) == 0 {
		return result, nil
	}
	log := s.logger.WithField("subject_id", subj.ID)

	activeCodes, err := s.notifRepo.ListActiveEventCodes(ctx, subj.ID, notification.TypeLifecycleEvent)
	if err != nil {
		return nil, fmt.Errorf("%w: listing active notifications for subject %d: %w", ErrPersistenceFailure, subj.ID, err)
	}
	active := make(map[string]struct{}, len(activeCodes))
	for _, code := range activeCodes {
		active[code] = struct{}{}
	}

	toCreate := make([]*notification.Notification, 0, len(candidates))
	for _, c := range candidates {
		if _, exists := active[c.Event.Code]; exists {
			result.Skipped++
			log.WithField("event_code", c.Event.Code).Debug("Active notification exists. Skipping.")
			continue
		}
		n, err := s.buildNotification(subj, c)
		if err != nil {
			log.WithError(err).WithField("event_code", c.Event.Code).Warn("Skipping candidate with invalid context data")
			result.Invalid++
			continue
		}
		active[c.Event.Code] = struct{}{} // guards against the same code twice in one pass
		toCreate = append(toCreate, n)
	}

	if len(toCreate) == 0 {
		return result, nil
	}

	created, err := s.notifRepo.BulkCreate(ctx, toCreate)
	if err != nil {
		return nil, fmt.Errorf("%w: inserting %d notifications for subject %d: %w", ErrPersistenceFailure, len(toCreate), subj.ID, err)
	}
	result.Created = created
	// Rows rejected by the active-row unique index lost a race with a concurrent run.
	result.Skipped += len(toCreate) - len(created)
	return result, nil
}

func (s *LifecycleService) buildNotification(subj *subject.Subject, c Candidate) (*notification.Notification, error) {
	ctxData := notification.ContextData{
		EventCode:      c.Event.Code,
		EventName:      c.Event.Name,
		EventType:      string(c.Event.Type),
		DaysUntil:      c.DaysUntil,
		LeadDays:       c.Event.LeadDays,
		RemindAt:       lifecycle.FormatDate(c.ScheduledAt.AddDate(0, 0, -c.Event.LeadDays)),
		Stage:          string(c.Stage),
		AgeMonths:      c.Age.TotalMonths,
		CatalogVersion: s.planner.Catalog().Version(),
	}
	if c.Event.Type == catalog.EventTypeVaccination {
		ctxData.Vaccination = &notification.VaccinationDetails{Series: c.Event.Series, DoseNumber: c.Event.DoseNumber}
	} else {
		ctxData.Checkup = &notification.CheckupDetails{Program: c.Event.Program}
	}
	if err := ctxData.Validate(); err != nil {
		return nil, err
	}

	return &notification.Notification{
		SubjectID:   subj.ID,
		Type:        notification.TypeLifecycleEvent,
		Category:    c.Event.Category,
		Title:       fmt.Sprintf("%s님의 %s", subj.Name, c.Event.Name),
		Message:     c.Event.Description,
		EventCode:   c.Event.Code,
		Priority:    c.Priority,
		Status:      notification.StatusPending,
		ScheduledAt: c.ScheduledAt,
		Context:     ctxData,
	}, nil
}

// RunBatch runs a pass for every subject with a birth date. Subjects are
// processed concurrently with no shared state; one subject's failure never
// stops the others, and cancellation is honoured between subjects.
func (s *LifecycleService) RunBatch(ctx context.Context, today time.Time) (*BatchSummary, error) {
	summary := &BatchSummary{
		RunID:     uuid.New(),
		Today:     lifecycle.DateOnly(today),
		StartedAt: time.Now(),
	}
	log := s.logger.WithField("run_id", summary.RunID.String())
	log.WithField("today", lifecycle.FormatDate(today)).Info("Starting lifecycle batch run")

	subjects, err := s.subjectRepo.ListWithBirthDate(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list subjects for batch run")
		summary.FinishedAt = time.Now()
		return summary, fmt.Errorf("failed to list subjects: %w", err)
	}
	if len(subjects) == 0 {
		log.Info("No subjects with a birth date. Nothing to schedule.")
		summary.FinishedAt = time.Now()
		return summary, nil
	}

	results := make([]SubjectResult, len(subjects))
	var g errgroup.Group
	g.SetLimit(s.batchConcurrency)
	for i, subj := range subjects {
		if ctx.Err() != nil {
			results[i] = SubjectResult{SubjectID: subj.ID, Name: subj.Name, Err: ErrBatchCancelled}
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = SubjectResult{SubjectID: subj.ID, Name: subj.Name, Err: ErrBatchCancelled}
				return nil
			}
			results[i] = s.processSubject(ctx, subj, today)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures live in results

	summary.Subjects = results
	for _, r := range results {
		summary.Created += r.Created
		summary.Skipped += r.Skipped
		summary.Dropped += r.Dropped
		switch {
		case r.Err == nil:
		case errors.Is(r.Err, ErrBatchCancelled):
			summary.Cancelled++
		case errors.Is(r.Err, lifecycle.ErrInvalidInput):
			summary.Invalid++
		default:
			summary.Failed++
		}
	}
	summary.FinishedAt = time.Now()

	log.WithFields(logrus.Fields{
		"subjects":  len(subjects),
		"created":   summary.Created,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
		"invalid":   summary.Invalid,
		"cancelled": summary.Cancelled,
		"dropped":   summary.Dropped,
		"duration":  summary.FinishedAt.Sub(summary.StartedAt).String(),
	}).Info("Lifecycle batch run finished")
	return summary, nil
}
