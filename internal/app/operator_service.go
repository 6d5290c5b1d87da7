package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lifecycle_notification_service/internal/domain/lifecycle"
	"lifecycle_notification_service/internal/domain/notification"
	"lifecycle_notification_service/internal/domain/telegram"
	idb "lifecycle_notification_service/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// Custom application-level errors for operator service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")
var ErrStatusUnchanged = fmt.Errorf("notification already has this status")

// OperatorService backs the admin-only bot commands and the batch report.
type OperatorService struct {
	lifecycle       *LifecycleService
	notifRepo       notification.Repository
	reporter        telegram.Client // nil when the bot is disabled
	adminTelegramID int64
	location        *time.Location
	now             func() time.Time
	logger          *logrus.Entry
}

func NewOperatorService(
	ls *LifecycleService,
	nr notification.Repository,
	reporter telegram.Client,
	adminID int64,
	location *time.Location,
	logger *logrus.Entry,
) *OperatorService {
	if location == nil {
		location = time.UTC
	}
	return &OperatorService{
		lifecycle:       ls,
		notifRepo:       nr,
		reporter:        reporter,
		adminTelegramID: adminID,
		location:        location,
		now:             time.Now,
		logger:          logger.WithField("component", "operator_service"),
	}
}

// Today is the current calendar date in the configured timezone.
func (s *OperatorService) Today() time.Time {
	return lifecycle.DateOnly(s.now().In(s.location))
}

func (s *OperatorService) authorize(performingAdminID int64) error {
	if s.adminTelegramID == 0 || performingAdminID != s.adminTelegramID {
		return ErrAdminNotAuthorized
	}
	return nil
}

// RefreshSubject runs the on-demand pass for one subject.
func (s *OperatorService) RefreshSubject(ctx context.Context, performingAdminID int64, subjectID int64) (SubjectResult, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return SubjectResult{}, err
	}
	return s.lifecycle.RefreshSubject(ctx, subjectID, s.Today())
}

// Schedule lists every notification of a subject, oldest due date first.
func (s *OperatorService) Schedule(ctx context.Context, performingAdminID int64, subjectID int64) ([]*notification.Notification, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	rows, err := s.notifRepo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for subject %d: %w", subjectID, err)
	}
	return rows, nil
}

// DescribeStage classifies a birth date against today.
func (s *OperatorService) DescribeStage(performingAdminID int64, birthDate string) (lifecycle.StageInfo, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return lifecycle.StageInfo{}, err
	}
	birth, err := lifecycle.ParseDate(strings.TrimSpace(birthDate))
	if err != nil {
		return lifecycle.StageInfo{}, err
	}
	return lifecycle.StageAt(birth, s.Today())
}

// SetStatus records a status change reported by an external actor.
func (s *OperatorService) SetStatus(ctx context.Context, performingAdminID int64, notificationID int64, statusValue string) (*notification.Notification, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	status, err := notification.ParseStatus(statusValue)
	if err != nil {
		return nil, err
	}

	target, err := s.notifRepo.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, idb.ErrNotificationNotFound) {
			return nil, idb.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification %d: %w", notificationID, err)
	}
	if target.Status == status {
		return target, ErrStatusUnchanged
	}

	if err := s.notifRepo.UpdateStatus(ctx, notificationID, status); err != nil {
		return nil, fmt.Errorf("failed to update notification %d status: %w", notificationID, err)
	}
	s.logger.WithFields(logrus.Fields{
		"notification_id": notificationID,
		"event_code":      target.EventCode,
		"from":            target.Status,
		"to":              status,
	}).Info("Notification status changed by operator")

	target.Status = status
	return target, nil
}

// RunBatch runs the batch on operator request. The caller replies with the summary.
func (s *OperatorService) RunBatch(ctx context.Context, performingAdminID int64) (*BatchSummary, error) {
	if err := s.authorize(performingAdminID); err != nil {
		return nil, err
	}
	return s.lifecycle.RunBatch(ctx, s.Today())
}

// RunScheduledBatch is the cron entry point: run the batch and report it to the admin chat.
func (s *OperatorService) RunScheduledBatch(ctx context.Context) (*BatchSummary, error) {
	summary, err := s.lifecycle.RunBatch(ctx, s.Today())
	if err != nil {
		s.logger.WithError(err).Error("Scheduled lifecycle batch failed")
		if reportErr := s.report(fmt.Sprintf("⚠️ 생애주기 일정 배치 실패: %v", err)); reportErr != nil {
			s.logger.WithError(reportErr).Error("Failed to send batch failure report")
		}
		return summary, err
	}
	if reportErr := s.report(FormatBatchSummary(summary)); reportErr != nil {
		s.logger.WithError(reportErr).Error("Failed to send batch report")
	}
	return summary, nil
}

func (s *OperatorService) report(text string) error {
	if s.reporter == nil || s.adminTelegramID == 0 {
		return nil
	}
	return s.reporter.SendMessage(s.adminTelegramID, text)
}

// maxReportedFailures caps how many failed subjects are listed in one report.
const maxReportedFailures = 10

// FormatBatchSummary renders a batch summary as a Telegram message.
func FormatBatchSummary(summary *BatchSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 생애주기 일정 배치 (%s)\n", lifecycle.FormatDate(summary.Today))
	fmt.Fprintf(&b, "실행 ID: %s\n", summary.RunID)
	fmt.Fprintf(&b, "대상: %d명\n", len(summary.Subjects))
	fmt.Fprintf(&b, "생성: %d, 중복 건너뜀: %d\n", summary.Created, summary.Skipped)
	fmt.Fprintf(&b, "실패: %d, 입력 오류: %d, 취소: %d\n", summary.Failed, summary.Invalid, summary.Cancelled)
	if summary.Dropped > 0 {
		fmt.Fprintf(&b, "데이터 오류로 제외된 일정: %d\n", summary.Dropped)
	}
	if !summary.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "소요 시간: %s\n", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond))
	}

	listed := 0
	for _, r := range summary.Subjects {
		if !r.Failed() {
			continue
		}
		if listed == maxReportedFailures {
			fmt.Fprintf(&b, "… 외 %d건\n", summary.Failed-listed)
			break
		}
		if listed == 0 {
			b.WriteString("\n실패 목록:\n")
		}
		fmt.Fprintf(&b, "- #%d %s: %v\n", r.SubjectID, r.Name, r.Err)
		listed++
	}
	return strings.TrimRight(b.String(), "\n")
}
