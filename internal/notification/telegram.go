package notification

import (
	"context"
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends surge alerts via the Telegram Bot API.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier creates a Telegram notifier.
// botToken: Bot API token from @BotFather.
// chatID: target chat/group/channel ID as a decimal string.
func NewTelegramNotifier(botToken, chatID string) (*TelegramNotifier, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("telegram: parse chat id %q: %w", chatID, err)
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram: init bot: %w", err)
	}

	log.Printf("[telegram] authorized as @%s", bot.Self.UserName)
	return &TelegramNotifier{bot: bot, chatID: id}, nil
}

func (t *TelegramNotifier) Send(ctx context.Context, msg Message) error {
	emoji := "📈"
	switch msg.Level {
	case LevelWarning:
		emoji = "🔥"
	case LevelCritical:
		emoji = "🚨"
	}

	m := tgbotapi.NewMessage(t.chatID, fmt.Sprintf("%s %s\n%s", emoji, msg.Title, msg.Body))
	if _, err := t.bot.Send(m); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}
