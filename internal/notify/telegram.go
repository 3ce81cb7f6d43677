package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"shopapi/pkg/logger"
)

const telegramAPI = "https://api.telegram.org/bot%s/sendMessage"

// Telegram sends messages to one or more configured chats via the Bot
// API. Each chat is an independent destination: a failed delivery to one
// chat is logged and does not stop delivery to the others.
type Telegram struct {
	botToken string
	chatIDs  []string
	client   *http.Client
}

// NewTelegram builds a Telegram sink. Empty chat IDs are skipped.
func NewTelegram(botToken string, chatIDs ...string) *Telegram {
	ids := make([]string, 0, len(chatIDs))
	for _, id := range chatIDs {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return &Telegram{
		botToken: botToken,
		chatIDs:  ids,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Telegram) Send(ctx context.Context, message string) {
	if t.botToken == "" {
		logger.L().Warn("telegram bot token missing, skipping notification")
		return
	}

	for _, chatID := range t.chatIDs {
		if err := t.sendToChat(ctx, chatID, message); err != nil {
			logger.L().WithError(err).WithField("chat_id", chatID).
				Error("telegram notification failed")
		}
	}
}

func (t *Telegram) sendToChat(ctx context.Context, chatID, message string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    chatID,
		"text":       message,
		"parse_mode": "HTML",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf(telegramAPI, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}
