// internal/infra/telegram/client.go
package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"gopkg.in/telebot.v3"
)

// maxMessageRunes is Telegram's limit on the text of a single message.
const maxMessageRunes = 4096

// TelebotAdapter implements the domain telegram.Client on top of gopkg.in/telebot.v3.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends text to a direct chat, split into several messages when
// it exceeds the Telegram size limit.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string) error {
	recipient := &telebot.User{ID: recipientChatID}
	for i, part := range splitMessage(text, maxMessageRunes) {
		if _, err := tba.bot.Send(recipient, part, &telebot.SendOptions{DisableWebPagePreview: true}); err != nil {
			return fmt.Errorf("failed to send message part %d to chat %d: %w", i+1, recipientChatID, err)
		}
	}
	return nil
}

// splitMessage cuts text on line boundaries into parts of at most limit runes.
// A single line longer than limit is cut mid-line.
func splitMessage(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var parts []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if part := strings.TrimRight(cur.String(), "\n"); part != "" {
			parts = append(parts, part)
		}
		cur.Reset()
		curLen = 0
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		runes := []rune(line)
		for len(runes) > 0 {
			room := limit - curLen
			if len(runes) <= room {
				cur.WriteString(string(runes))
				curLen += len(runes)
				break
			}
			if curLen > 0 {
				flush()
				continue
			}
			cur.WriteString(string(runes[:limit]))
			curLen = limit
			runes = runes[limit:]
			flush()
		}
	}
	flush()
	return parts
}
