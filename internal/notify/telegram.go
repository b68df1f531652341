package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

const telegramAPI = "https://api.telegram.org"

// Telegram posts Markdown messages through the Bot API.
type Telegram struct {
	Token   string
	ChatID  string
	BaseURL string
	Client  *http.Client
}

func NewTelegram(token, chatID string) *Telegram {
	if token == "" || chatID == "" {
		return nil
	}
	return &Telegram{
		Token:   token,
		ChatID:  chatID,
		BaseURL: telegramAPI,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Send ignores the title; the text already carries it.
func (t *Telegram) Send(ctx context.Context, _ string, text string) error {
	body, err := json.Marshal(telegramMessage{ChatID: t.ChatID, Text: text, ParseMode: "Markdown"})
	if err != nil {
		return err
	}
	endpoint := t.BaseURL + "/bot" + url.PathEscape(t.Token) + "/sendMessage"
	return postJSON(ctx, t.Client, endpoint, body, nil)
}
