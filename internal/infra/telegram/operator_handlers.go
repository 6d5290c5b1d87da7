package telegram

import (
	"context"
	"errors"
	"fmt"

	"lifecycle_notification_service/internal/app"
	"lifecycle_notification_service/internal/domain/lifecycle"
	idb "lifecycle_notification_service/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const msgUnauthorized = "오류: 이 명령을 실행할 권한이 없습니다."

// RegisterOperatorHandlers registers handlers for admin commands.
// It requires the bot instance, operator service, and the configured admin Telegram ID.
func RegisterOperatorHandlers(ctx context.Context, b *telebot.Bot, operator *app.OperatorService, adminTelegramID int64, baseLogger *logrus.Entry) {
	// guard logs the command and rejects anyone but the admin.
	guard := func(command string, next func(c telebot.Context, log *logrus.Entry) error) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			handlerLogger := baseLogger.WithFields(logrus.Fields{
				"handler":   command,
				"sender_id": c.Sender().ID,
			})
			handlerLogger.Info("Command received")

			if c.Sender().ID != adminTelegramID {
				handlerLogger.Warn("Unauthorized access attempt")
				return c.Send(msgUnauthorized)
			}
			return next(c, handlerLogger)
		}
	}

	b.Handle("/refresh", guard("/refresh", func(c telebot.Context, log *logrus.Entry) error {
		subjectID, err := parseIDArg(c.Args())
		if err != nil {
			log.WithError(err).Warn("Invalid command format")
			return c.Send("형식: /refresh <대상자ID>")
		}
		log = log.WithField("subject_id", subjectID)

		res, err := operator.RefreshSubject(ctx, c.Sender().ID, subjectID)
		if err != nil {
			logWithError := log.WithError(err)
			switch {
			case errors.Is(err, app.ErrAdminNotAuthorized):
				logWithError.Warn("Admin not authorized (service level)")
				return c.Send(msgUnauthorized)
			case errors.Is(err, idb.ErrSubjectNotFound):
				logWithError.Warn("Subject not found")
				return c.Send(fmt.Sprintf("#%d 대상자를 찾을 수 없습니다.", subjectID))
			case errors.Is(err, lifecycle.ErrInvalidInput):
				logWithError.Warn("Subject cannot be scheduled")
				return c.Send(fmt.Sprintf("#%d 대상자의 생년월일이 없거나 올바르지 않습니다.", subjectID))
			default:
				logWithError.Error("Failed to refresh subject schedule")
				return c.Send(fmt.Sprintf("일정 갱신 중 오류가 발생했습니다: %s", err.Error()))
			}
		}

		log.WithFields(logrus.Fields{"created": res.Created, "skipped": res.Skipped}).Info("Subject schedule refreshed")
		return c.Send(formatRefreshResult(res))
	}))

	b.Handle("/schedule", guard("/schedule", func(c telebot.Context, log *logrus.Entry) error {
		subjectID, err := parseIDArg(c.Args())
		if err != nil {
			log.WithError(err).Warn("Invalid command format")
			return c.Send("형식: /schedule <대상자ID>")
		}
		log = log.WithField("subject_id", subjectID)

		rows, err := operator.Schedule(ctx, c.Sender().ID, subjectID)
		if err != nil {
			if errors.Is(err, app.ErrAdminNotAuthorized) {
				return c.Send(msgUnauthorized)
			}
			log.WithError(err).Error("Failed to list notifications")
			return c.Send(fmt.Sprintf("알림 목록 조회 중 오류가 발생했습니다: %s", err.Error()))
		}

		log.WithField("notifications_count", len(rows)).Info("Successfully retrieved schedule")
		markup := statusKeyboard(rows)
		if len(markup.InlineKeyboard) == 0 {
			return c.Send(formatSchedule(subjectID, rows))
		}
		return c.Send(formatSchedule(subjectID, rows), markup)
	}))

	b.Handle("/stage", guard("/stage", func(c telebot.Context, log *logrus.Entry) error {
		args := c.Args()
		if len(args) != 1 {
			return c.Send("형식: /stage <YYYY-MM-DD>")
		}

		info, err := operator.DescribeStage(c.Sender().ID, args[0])
		if err != nil {
			if errors.Is(err, app.ErrAdminNotAuthorized) {
				return c.Send(msgUnauthorized)
			}
			log.WithError(err).WithField("birth_date", args[0]).Warn("Invalid birth date")
			return c.Send("생년월일은 오늘 이전의 YYYY-MM-DD 형식이어야 합니다.")
		}
		return c.Send(formatStageInfo(args[0], info))
	}))

	b.Handle("/set_status", guard("/set_status", func(c telebot.Context, log *logrus.Entry) error {
		notificationID, statusValue, err := parseSetStatusArgs(c.Args())
		if err != nil {
			log.WithError(err).Warn("Invalid command format")
			return c.Send("형식: /set_status <알림ID> <pending|sent|dismissed|confirmed|missed|cancelled>")
		}
		log = log.WithField("notification_id", notificationID)

		updated, err := operator.SetStatus(ctx, c.Sender().ID, notificationID, statusValue)
		return c.Send(statusChangeReply(log, notificationID, statusValue, updated, err))
	}))

	b.Handle("/run_batch", guard("/run_batch", func(c telebot.Context, log *logrus.Entry) error {
		if err := c.Send("⏳ 생애주기 일정 배치를 시작합니다..."); err != nil {
			log.WithError(err).Warn("Failed to acknowledge batch command")
		}

		summary, err := operator.RunBatch(ctx, c.Sender().ID)
		if err != nil {
			if errors.Is(err, app.ErrAdminNotAuthorized) {
				return c.Send(msgUnauthorized)
			}
			log.WithError(err).Error("Manual batch run failed")
			return c.Send(fmt.Sprintf("배치 실행 중 오류가 발생했습니다: %s", err.Error()))
		}

		log.WithField("run_id", summary.RunID.String()).Info("Manual batch run finished")
		return c.Send(app.FormatBatchSummary(summary))
	}))
}
