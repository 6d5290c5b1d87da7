// internal/infra/telegram/status_callback_handlers.go
package telegram

import (
	"context"
	"errors"
	"fmt"

	"lifecycle_notification_service/internal/app"
	"lifecycle_notification_service/internal/domain/notification"
	idb "lifecycle_notification_service/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterStatusCallbackHandlers handles the confirm/dismiss buttons attached to /schedule replies.
func RegisterStatusCallbackHandlers(ctx context.Context, b *telebot.Bot, operator *app.OperatorService, baseLogger *logrus.Entry) {
	b.Handle(telebot.OnCallback, func(c telebot.Context) error {
		data := c.Callback().Data
		log := baseLogger.WithFields(logrus.Fields{
			"handler":   "status_callback",
			"sender_id": c.Sender().ID,
		})

		status, notificationID, err := parseStatusCallback(data)
		if err != nil {
			c.Bot().OnError(fmt.Errorf("unhandled callback data: %w", err), c)
			return c.Respond(&telebot.CallbackResponse{Text: "알 수 없는 동작입니다."})
		}
		log = log.WithField("notification_id", notificationID)

		updated, err := operator.SetStatus(ctx, c.Sender().ID, notificationID, string(status))
		reply := statusChangeReply(log, notificationID, string(status), updated, err)
		if err != nil && !errors.Is(err, app.ErrStatusUnchanged) {
			return c.Respond(&telebot.CallbackResponse{Text: reply, ShowAlert: true})
		}
		return c.Respond(&telebot.CallbackResponse{Text: reply})
	})
}

// statusChangeReply logs the outcome of a status change and builds the user-facing text.
func statusChangeReply(log *logrus.Entry, notificationID int64, statusValue string, updated *notification.Notification, err error) string {
	if err == nil {
		log.WithField("status", updated.Status).Info("Notification status updated")
		return fmt.Sprintf("[%d] %s → %s", notificationID, updated.Title, updated.Status)
	}

	logWithError := log.WithError(err)
	switch {
	case errors.Is(err, app.ErrAdminNotAuthorized):
		logWithError.Warn("Admin not authorized (service level)")
		return msgUnauthorized
	case errors.Is(err, app.ErrStatusUnchanged):
		logWithError.Info("Status already set")
		return fmt.Sprintf("[%d] 이미 %s 상태입니다.", notificationID, statusValue)
	case errors.Is(err, idb.ErrNotificationNotFound):
		logWithError.Warn("Notification not found")
		return fmt.Sprintf("[%d] 알림을 찾을 수 없습니다.", notificationID)
	case errors.Is(err, idb.ErrDuplicateActiveNotification):
		logWithError.Warn("Reactivation conflicts with an active notification")
		return fmt.Sprintf("[%d] 같은 일정의 활성 알림이 이미 있습니다.", notificationID)
	default:
		logWithError.Error("Failed to update notification status")
		return fmt.Sprintf("상태 변경 중 오류가 발생했습니다: %s", err.Error())
	}
}
