package telegram

// Client sends plain operator messages (batch reports, alerts) to a Telegram chat.
type Client interface {
	SendMessage(recipientChatID int64, text string) error
}
