package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Min interval between two Telegram messages to the same chat, to stay under
// the ~30/min bot API limit.
const telegramSendInterval = 2 * time.Second

// TelegramSender sends notifications to a Telegram chat.
// Nil-safe: when not configured, Send is a no-op.
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger

	mu       sync.Mutex
	lastSend time.Time
}

// NewTelegramSender creates a Telegram sender from a bot token and chat id.
// Returns nil when the token is empty or the bot cannot be reached; delivery
// stays disabled in that case.
func NewTelegramSender(token string, chatID int64, logger *slog.Logger) *TelegramSender {
	if token == "" || chatID == 0 {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("failed to create telegram bot", "error", err)
		return nil
	}
	if _, err := bot.GetMe(); err != nil {
		logger.Error("failed to verify telegram bot", "error", err)
		return nil
	}
	return &TelegramSender{bot: bot, chatID: chatID, logger: logger}
}

// Send delivers one message, throttled to the bot API rate.
func (s *TelegramSender) Send(ctx context.Context, text string) error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	if wait := telegramSendInterval - time.Since(s.lastSend); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			s.mu.Unlock()
			return ctx.Err()
		}
	}
	s.lastSend = time.Now()
	s.mu.Unlock()

	msg := tgbotapi.NewMessage(s.chatID, text)
	_, err := s.bot.Send(msg)
	return err
}
