// internal/service/notifier.go
package service

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"go_5_review_keep/internal/middleware"
	"go_5_review_keep/internal/model"
)

// Notifier はリマインドの送信手段を抽象化します。戻り値の messageID は
// 後続の確認（どの通知に対する完了か）を突き合わせるキーになります
type Notifier interface {
	Send(ctx context.Context, chatID string, text string) (messageID string, err error)
}

// LogNotifier は実送信の代わりにログへ出力する実装です。
// ローカル開発とテストで使います
type LogNotifier struct {
	seq int
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, chatID string, text string) (string, error) {
	logger := middleware.GetLogger(ctx)
	n.seq++
	messageID := fmt.Sprintf("log-%d", n.seq)
	logger.Info("Reminder notification (log mode)",
		"chat_id", chatID,
		"message_id", messageID,
		"text", text,
	)
	return messageID, nil
}

// TelegramNotifier は Telegram Bot API 経由で送信する実装です
type TelegramNotifier struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramNotifier(token string) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("NewTelegramNotifier: %w", err)
	}
	return &TelegramNotifier{bot: bot}, nil
}

func (n *TelegramNotifier) Send(ctx context.Context, chatID string, text string) (string, error) {
	logger := middleware.GetLogger(ctx)

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		logger.Error("Invalid Telegram chat ID", "chat_id", chatID, "error", err)
		return "", model.NewAppError("INVALID_CHAT_ID", "通知先の指定が不正です。", "chat_id", model.ErrInvalidInput)
	}

	msg := tgbotapi.NewMessage(id, text)
	sent, err := n.bot.Send(msg)
	if err != nil {
		logger.Error("Error sending Telegram message", "chat_id", chatID, "error", err)
		return "", fmt.Errorf("TelegramNotifier.Send: %w", err)
	}
	return strconv.Itoa(sent.MessageID), nil
}
