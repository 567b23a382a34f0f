package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lodygens/cryptobot/internal/application"
	"github.com/lodygens/cryptobot/internal/domain"
)

// Notifier posts text messages to a single chat through the Bot API.
type Notifier struct {
	APIBase string
	Token   string
	ChatID  string
	Client  *http.Client
}

var _ application.Notifier = (*Notifier)(nil)

type sendMessageReq struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResp struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
}

func (n *Notifier) endpoint() string {
	return strings.TrimRight(n.APIBase, "/") + "/bot" + n.Token + "/sendMessage"
}

func (n *Notifier) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageReq{ChatID: n.ChatID, Text: text})
	if err != nil {
		return fmt.Errorf("%w: telegram: encode: %w", domain.ErrNotify, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: telegram: create request: %w", domain.ErrNotify, err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		// the token is part of the URL; keep it out of logs
		return fmt.Errorf("%w: telegram: do request: %s", domain.ErrNotify, redact(err.Error(), n.Token))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("%w: telegram: status %d: read body: %s", domain.ErrNotify, resp.StatusCode, redact(err.Error(), n.Token))
	}
	var out apiResp
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("%w: telegram: status %d: decode body: %w", domain.ErrNotify, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !out.OK {
		desc := out.Description
		if desc == "" {
			desc = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%w: telegram: status %d: %s", domain.ErrNotify, resp.StatusCode, desc)
	}
	return nil
}

func redact(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "<redacted>")
}
