package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"lifecycle_notification_service/internal/domain/lifecycle"
	"lifecycle_notification_service/internal/domain/notification"
	"lifecycle_notification_service/internal/domain/subject"
	idb "lifecycle_notification_service/internal/infra/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdminID int64 = 1001

func newTestOperator(subjects []*subject.Subject, nr *fakeNotificationRepo, tg *fakeTelegramClient, now time.Time) *OperatorService {
	op := NewOperatorService(newTestService(subjects, nr), nr, nil, testAdminID, time.UTC, testLogger())
	if tg != nil {
		op.reporter = tg
	}
	op.now = func() time.Time { return now }
	return op
}

func TestOperatorService_RejectsNonAdmin(t *testing.T) {
	nr := newFakeNotificationRepo()
	op := newTestOperator(nil, nr, nil, day(2025, time.October, 17))
	ctx := context.Background()

	_, err := op.RefreshSubject(ctx, 42, 1)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	_, err = op.Schedule(ctx, 42, 1)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	_, err = op.DescribeStage(42, "1990-01-01")
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	_, err = op.SetStatus(ctx, 42, 1, "confirmed")
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	_, err = op.RunBatch(ctx, 42)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)

	assert.Zero(t, nr.listCalls)
}

func TestOperatorService_NoAdminConfiguredRejectsEveryone(t *testing.T) {
	op := NewOperatorService(newTestService(nil, newFakeNotificationRepo()), newFakeNotificationRepo(), nil, 0, nil, testLogger())

	_, err := op.DescribeStage(0, "1990-01-01")
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
}

func TestOperatorService_TodayUsesLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	op := NewOperatorService(newTestService(nil, newFakeNotificationRepo()), newFakeNotificationRepo(), nil, testAdminID, seoul, testLogger())
	// 16 Oct 20:00 UTC is already 17 Oct in Seoul.
	op.now = func() time.Time { return time.Date(2025, time.October, 16, 20, 0, 0, 0, time.UTC) }

	assert.Equal(t, day(2025, time.October, 17), op.Today())
}

func TestOperatorService_DescribeStage(t *testing.T) {
	op := newTestOperator(nil, newFakeNotificationRepo(), nil, day(2025, time.October, 17))

	info, err := op.DescribeStage(testAdminID, " 2025-08-17 ")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StageInfant, info.Stage)
	assert.Equal(t, 2, info.Age.TotalMonths)
	require.NotNil(t, info.Next)
	assert.Equal(t, lifecycle.StageAdolescent, info.Next.Stage)

	_, err = op.DescribeStage(testAdminID, "17.08.2025")
	assert.ErrorIs(t, err, lifecycle.ErrInvalidInput)
}

func TestOperatorService_RefreshAndSchedule(t *testing.T) {
	nr := newFakeNotificationRepo()
	subjects := []*subject.Subject{newSubject(2, "민준", day(2025, time.August, 17), lifecycle.GenderMale)}
	op := newTestOperator(subjects, nr, nil, time.Date(2025, time.October, 17, 15, 4, 5, 0, time.UTC))

	res, err := op.RefreshSubject(context.Background(), testAdminID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Created)

	rows, err := op.Schedule(context.Background(), testAdminID, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestOperatorService_SetStatus(t *testing.T) {
	nr := newFakeNotificationRepo()
	subjects := []*subject.Subject{newSubject(2, "민준", day(2025, time.August, 17), lifecycle.GenderMale)}
	op := newTestOperator(subjects, nr, nil, day(2025, time.October, 17))
	ctx := context.Background()

	_, err := op.RefreshSubject(ctx, testAdminID, 2)
	require.NoError(t, err)
	rows, err := op.Schedule(ctx, testAdminID, 2)
	require.NoError(t, err)
	target := rows[0]

	updated, err := op.SetStatus(ctx, testAdminID, target.ID, "Confirmed")
	require.NoError(t, err)
	assert.Equal(t, notification.StatusConfirmed, updated.Status)
	assert.Equal(t, 0, nr.countActive(2, target.EventCode))

	_, err = op.SetStatus(ctx, testAdminID, target.ID, "confirmed")
	assert.ErrorIs(t, err, ErrStatusUnchanged)

	_, err = op.SetStatus(ctx, testAdminID, target.ID, "done")
	assert.Error(t, err)

	_, err = op.SetStatus(ctx, testAdminID, 9999, "confirmed")
	assert.ErrorIs(t, err, idb.ErrNotificationNotFound)
}

func TestOperatorService_RunScheduledBatchReportsToAdmin(t *testing.T) {
	nr := newFakeNotificationRepo()
	nr.createErrFor[3] = errors.New("deadlock detected")
	tg := newFakeTelegramClient()
	subjects := []*subject.Subject{
		newSubject(2, "민준", day(2025, time.August, 17), lifecycle.GenderMale),
		newSubject(3, "서연", day(2013, time.May, 2), lifecycle.GenderFemale),
	}
	op := newTestOperator(subjects, nr, tg, day(2025, time.October, 17))

	summary, err := op.RunScheduledBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Created)
	assert.Equal(t, 1, summary.Failed)

	require.Len(t, tg.messages[testAdminID], 1)
	report := tg.messages[testAdminID][0]
	assert.Contains(t, report, "2025-10-17")
	assert.Contains(t, report, "생성: 3")
	assert.Contains(t, report, "실패: 1")
	assert.Contains(t, report, "#3 서연")
	assert.Contains(t, report, "deadlock detected")
}

func TestOperatorService_RunScheduledBatchReportFailureIsNotFatal(t *testing.T) {
	tg := newFakeTelegramClient()
	tg.err = errors.New("telegram unavailable")
	op := newTestOperator(nil, newFakeNotificationRepo(), tg, day(2025, time.October, 17))

	_, err := op.RunScheduledBatch(context.Background())
	assert.NoError(t, err)
}

func TestFormatBatchSummary_CapsFailureList(t *testing.T) {
	summary := &BatchSummary{RunID: uuid.New(), Today: day(2025, time.October, 17)}
	for i := 0; i < maxReportedFailures+5; i++ {
		summary.Subjects = append(summary.Subjects, SubjectResult{
			SubjectID: int64(i + 1),
			Name:      "대상",
			Err:       ErrPersistenceFailure,
		})
		summary.Failed++
	}
	summary.Subjects = append(summary.Subjects,
		SubjectResult{SubjectID: 100, Err: ErrBatchCancelled},
		SubjectResult{SubjectID: 101, Err: lifecycle.ErrInvalidInput},
	)

	text := FormatBatchSummary(summary)
	assert.Equal(t, maxReportedFailures, strings.Count(text, "\n- #"))
	assert.Contains(t, text, "외 5건")
	assert.NotContains(t, text, "#100")
	assert.NotContains(t, text, "#101")
}
