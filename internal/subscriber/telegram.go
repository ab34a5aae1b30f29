package subscriber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrRecipientGone signals that the recipient blocked the bot or deleted
// the chat. Callers log it and move on; it must never abort a fanout.
var ErrRecipientGone = errors.New("recipient unreachable")

// Sender delivers one message to one push channel.
type Sender interface {
	Send(ctx context.Context, channelID, text string) error
}

// TelegramSender sends messages through the Telegram Bot API.
type TelegramSender struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewTelegramSender builds the sender. The token is required; wiring
// decides whether push is enabled at all.
func NewTelegramSender(httpClient *http.Client, baseURL, token string) (*TelegramSender, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &TelegramSender{httpClient: httpClient, baseURL: baseURL, token: token}, nil
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Send delivers the text with MarkdownV2 parse mode. The text must
// already be MarkdownV2-safe: an unescaped reserved character makes the
// API reject the whole message, and cleaning here would also strip any
// deliberate markup the composer added.
func (s *TelegramSender) Send(ctx context.Context, channelID, text string) error {
	body, err := json.Marshal(sendMessageRequest{
		ChatID:    channelID,
		Text:      text,
		ParseMode: "MarkdownV2",
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send message to %s: %w", channelID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("send message to %s: %w", channelID, ErrRecipientGone)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("send message to %s: status %d: %s", channelID, resp.StatusCode, snippet)
	}
}

// markdownV2Reserved are the characters the MarkdownV2 syntax reserves,
// minus the ones the renderer uses intentionally (* and _).
const markdownV2Reserved = "[]()~`>#+-=|{}.!"

// CleanMarkdownV2 strips reserved markup characters from outgoing text.
func CleanMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(markdownV2Reserved, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
