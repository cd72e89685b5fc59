package notifier

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CommandHandler answers one chat command; an empty reply sends nothing.
type CommandHandler func(ctx context.Context, command string) string

type update struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
	} `json:"message"`
}

const pollTimeout = 30 // seconds Telegram holds a getUpdates call open

// StartPolling long-polls for chat commands until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	client := &http.Client{Timeout: (pollTimeout + 5) * time.Second, Transport: t.Client.Transport}
	offset := 0
	for ctx.Err() == nil {
		next, err := t.pollOnce(ctx, client, offset, handler)
		if err == nil {
			offset = next
			continue
		}
		if ctx.Err() != nil {
			break
		}
		t.Logger.Warn("telegram polling failed", zap.Error(err))
		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Second):
		}
	}
	t.Logger.Info("telegram polling stopped")
}

// pollOnce handles one batch of updates and returns the offset to ask for next.
func (t *TelegramNotifier) pollOnce(ctx context.Context, client *http.Client, offset int, handler CommandHandler) (int, error) {
	var updates []update
	payload := map[string]any{"offset": offset, "timeout": pollTimeout}
	if err := t.call(ctx, client, "getUpdates", payload, &updates); err != nil {
		return offset, err
	}
	for _, u := range updates {
		offset = u.UpdateID + 1
		if u.Message == nil {
			continue
		}
		text := strings.TrimSpace(u.Message.Text)
		if text == "" {
			continue
		}
		t.Logger.Info("command received", zap.String("text", text))
		reply := handler(ctx, text)
		if reply == "" {
			continue
		}
		if err := t.Send(ctx, reply); err != nil {
			t.Logger.Error("send reply", zap.Error(err))
		}
	}
	return offset, nil
}
