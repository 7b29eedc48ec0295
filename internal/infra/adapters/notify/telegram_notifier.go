package notify

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"learnloop/internal/domain/model"
	"learnloop/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*TelegramNotifier)(nil)

// TelegramNotifier delivers run alerts to a fixed chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	if token == "" || chatID == 0 {
		return nil, errors.New("telegram token and chat id required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (n *TelegramNotifier) NotifyRunSummary(_ context.Context, summary model.RunSummary) error {
	_, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, formatRunSummary(summary)))
	return err
}

func (n *TelegramNotifier) NotifyFatal(_ context.Context, cause error) error {
	_, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, fmt.Sprintf("Batch run aborted: %v", cause)))
	return err
}
