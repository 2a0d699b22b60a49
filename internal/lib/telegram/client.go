// Package telegram: минимальный клиент Bot API для отправки напоминаний.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/magabrotheeeer/airdrop-paywall/internal/models"
)

// ErrPermanent Bot API отказал окончательно: бот заблокирован или чат не найден.
// Повтор такой отправки бессмысленен.
var ErrPermanent = errors.New("telegram: permanent delivery failure")

const maxBodySize = 64 << 10

// Client отправляет сообщения в чаты пользователей.
type Client struct {
	apiURL     string
	token      string
	httpClient *http.Client
}

// NewClient создает клиент Bot API.
func NewClient(apiURL, token string, timeout time.Duration) *Client {
	return &Client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// SendMessage отправляет текст в чат. Ошибки 400 и 403 оборачивают ErrPermanent.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	const op = "telegram.SendMessage"

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(sendMessageRequest{ChatID: chatID, Text: text}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	endpoint := c.apiURL + "/bot" + c.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url с токеном не попадает в ошибку
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	var out apiResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&out)
	if resp.StatusCode == http.StatusOK && out.OK {
		return nil
	}

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusForbidden:
		return fmt.Errorf("%s: %w: %d %s", op, ErrPermanent, resp.StatusCode, out.Description)
	default:
		return fmt.Errorf("%s: status %d %s", op, resp.StatusCode, out.Description)
	}
}

// Notify отправляет напоминание об окончании подписки.
func (c *Client) Notify(ctx context.Context, userID int64, endDate time.Time) error {
	return c.SendMessage(ctx, userID, models.ReminderText(endDate))
}
