package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"lifecycle_notification_service/internal/app"
	"lifecycle_notification_service/internal/domain/lifecycle"
	"lifecycle_notification_service/internal/domain/notification"

	"gopkg.in/telebot.v3"
)

var errUsage = errors.New("invalid command arguments")

// maxScheduleLines keeps /schedule replies under Telegram's message size limit.
const maxScheduleLines = 40

var stageNames = map[lifecycle.Stage]string{
	lifecycle.StageInfant:     "영유아",
	lifecycle.StageAdolescent: "청소년",
	lifecycle.StageAdult:      "성인",
	lifecycle.StageElderly:    "노년",
}

var priorityMarks = map[notification.Priority]string{
	notification.PriorityUrgent: "🔴",
	notification.PriorityHigh:   "🟠",
	notification.PriorityNormal: "🟡",
	notification.PriorityLow:    "⚪",
}

func parseIDArg(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a positive number", errUsage, args[0])
	}
	return id, nil
}

func parseSetStatusArgs(args []string) (int64, string, error) {
	if len(args) != 2 {
		return 0, "", errUsage
	}
	id, err := parseIDArg(args[:1])
	if err != nil {
		return 0, "", err
	}
	return id, args[1], nil
}

func formatRefreshResult(res app.SubjectResult) string {
	return fmt.Sprintf("✅ %s(#%d) 일정 갱신 완료\n단계: %s\n새 알림: %d건, 기존 알림 유지: %d건",
		res.Name, res.SubjectID, stageNames[res.Stage], res.Created, res.Skipped)
}

func formatStageInfo(birth string, info lifecycle.StageInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "생년월일: %s\n", strings.TrimSpace(birth))
	fmt.Fprintf(&b, "나이: 만 %d세 %d개월 %d일 (총 %d개월, %d일)\n",
		info.Age.Years, info.Age.Months, info.Age.Days, info.Age.TotalMonths, info.Age.TotalDays)
	fmt.Fprintf(&b, "생애주기: %s", stageNames[info.Stage])
	if info.Next != nil {
		fmt.Fprintf(&b, "\n다음 단계: %s (%s, %d일 남음)",
			stageNames[info.Next.Stage], lifecycle.FormatDate(info.Next.StartsOn), info.Next.DaysRemaining)
	}
	return b.String()
}

func formatSchedule(subjectID int64, rows []*notification.Notification) string {
	if len(rows) == 0 {
		return fmt.Sprintf("#%d 대상자의 알림이 없습니다.", subjectID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📅 #%d 대상자 알림 %d건\n", subjectID, len(rows))
	for i, n := range rows {
		if i == maxScheduleLines {
			fmt.Fprintf(&b, "… 외 %d건", len(rows)-i)
			break
		}
		fmt.Fprintf(&b, "%s [%d] %s %s (%s)\n",
			priorityMarks[n.Priority], n.ID, lifecycle.FormatDate(n.ScheduledAt), n.Title, n.Status)
	}
	return strings.TrimRight(b.String(), "\n")
}

const statusCallbackPrefix = "st_"

func statusCallbackData(status notification.Status, id int64) string {
	return fmt.Sprintf("%s%s_%d", statusCallbackPrefix, status, id)
}

// parseStatusCallback decodes st_<status>_<notificationID>.
func parseStatusCallback(data string) (notification.Status, int64, error) {
	rest, ok := strings.CutPrefix(data, statusCallbackPrefix)
	if !ok {
		return "", 0, fmt.Errorf("not a status callback: %q", data)
	}
	i := strings.LastIndex(rest, "_")
	if i <= 0 {
		return "", 0, fmt.Errorf("invalid status callback format: %q", data)
	}
	status, err := notification.ParseStatus(rest[:i])
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseInt(rest[i+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid notification ID in callback %q: %w", data, err)
	}
	return status, id, nil
}

// statusKeyboard offers confirm and dismiss buttons for active notifications.
func statusKeyboard(rows []*notification.Notification) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	for i, n := range rows {
		if i == maxScheduleLines {
			break
		}
		if !n.Status.IsActive() {
			continue
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, []telebot.InlineButton{
			{Text: fmt.Sprintf("✅ [%d] 완료", n.ID), Data: statusCallbackData(notification.StatusConfirmed, n.ID)},
			{Text: fmt.Sprintf("🚫 [%d] 무시", n.ID), Data: statusCallbackData(notification.StatusDismissed, n.ID)},
		})
	}
	return markup
}
