// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// operatorCommands drives both /help and the command menu shown by Telegram clients.
var operatorCommands = []struct {
	usage       string
	description string
}{
	{"/refresh <대상자ID>", "대상자의 생애주기 일정을 즉시 갱신합니다."},
	{"/schedule <대상자ID>", "대상자의 알림 목록을 보여줍니다."},
	{"/stage <YYYY-MM-DD>", "생년월일로 나이와 생애주기를 계산합니다."},
	{"/set_status <알림ID> <상태>", "알림 상태를 변경합니다 (confirmed, dismissed, missed, cancelled 등)."},
	{"/run_batch", "전체 대상자 일정 배치를 지금 실행합니다."},
	{"/help", "이 도움말을 보여줍니다."},
}

func helpText() string {
	var b strings.Builder
	b.WriteString("관리자 명령:\n")
	for _, cmd := range operatorCommands {
		fmt.Fprintf(&b, "\n`%s`\n - %s\n", cmd.usage, cmd.description)
	}
	return strings.TrimRight(b.String(), "\n")
}

func menuCommands() []telebot.Command {
	out := make([]telebot.Command, 0, len(operatorCommands))
	for _, cmd := range operatorCommands {
		name, _, _ := strings.Cut(strings.TrimPrefix(cmd.usage, "/"), " ")
		out = append(out, telebot.Command{Text: name, Description: cmd.description})
	}
	return out
}

func RegisterBotCommands(
	b *telebot.Bot,
	adminTelegramID int64,
	baseLogger *logrus.Entry, // For contextual logging
) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	if err := b.SetCommands(menuCommands()); err != nil {
		startHelpLogger.WithError(err).Warn("Failed to publish bot command menu")
	}

	b.Handle("/start", func(c telebot.Context) error {
		logCtx := startHelpLogger.WithFields(logrus.Fields{"command": "/start", "sender_id": c.Sender().ID})

		if c.Sender().ID == adminTelegramID {
			logCtx.Info("Admin started the bot")
			return c.Send(fmt.Sprintf("안녕하세요, 관리자 %s님! 생애주기 건강 일정 봇이 준비되었습니다. /help 로 명령 목록을 확인하세요.", c.Sender().FirstName))
		}

		logCtx.Info("Unknown user started the bot")
		return c.Send("안녕하세요! 이 봇은 운영자 전용입니다.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		logCtx := startHelpLogger.WithFields(logrus.Fields{"command": "/help", "sender_id": c.Sender().ID})

		if c.Sender().ID != adminTelegramID {
			logCtx.Info("Help requested by non-admin")
			return c.Send("사용할 수 있는 명령이 없습니다.")
		}
		return c.Send(helpText(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}
