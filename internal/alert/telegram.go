package alert

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
}

// Telegram delivers alerts to one chat. Permission is granted once the bot
// has confirmed it can see the chat.
type Telegram struct {
	bot    botAPI
	chatID int64
	log    *slog.Logger

	mu   sync.Mutex
	perm Permission
}

func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	bot.Debug = false
	log.Info("telegram bot ready", "bot", bot.Self.UserName, "chat_id", chatID)
	return newTelegram(bot, chatID, log), nil
}

func newTelegram(bot botAPI, chatID int64, log *slog.Logger) *Telegram {
	return &Telegram{bot: bot, chatID: chatID, log: log, perm: PermissionDefault}
}

func (t *Telegram) Permission() Permission {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.perm
}

func (t *Telegram) RequestPermission(ctx context.Context) (Permission, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.perm != PermissionDefault {
		return t.perm, nil
	}

	_, err := t.bot.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: t.chatID}})
	if err != nil {
		t.perm = PermissionDenied
		t.log.WarnContext(ctx, "telegram chat not reachable, alerts denied", "chat_id", t.chatID, "err", err)
		return t.perm, nil
	}
	t.perm = PermissionGranted
	return t.perm, nil
}

func (t *Telegram) Emit(ctx context.Context, a Alert) error {
	if t.Permission() != PermissionGranted {
		t.log.WarnContext(ctx, "alert suppressed, permission not granted", "tag", a.Tag)
		return nil
	}
	msg := tgbotapi.NewMessage(t.chatID, a.Title+"\n"+a.Body)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
