// Package ledger: клиент TronGrid HTTP API для чтения транзакций.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/magabrotheeeer/airdrop-paywall/internal/metrics"
)

// APIKeyHeader заголовок с ключом TronGrid.
const APIKeyHeader = "TRON-PRO-API-KEY"

const maxBodySize = 1 << 20

// ErrUnexpectedStatus возвращается при ответе не из диапазона 2xx.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client читает транзакции по хэшу. Безопасен для параллельного использования.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient создаёт клиент TronGrid с таймаутом на один запрос.
func NewClient(apiURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "trongrid",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// отмена запроса вызывающим не говорит о состоянии узла
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
		}),
	}
}

type getTransactionRequest struct {
	Value string `json:"value"`
}

// GetTransaction возвращает сырое тело ответа /wallet/gettransactionbyid.
// Любая ошибка означает, что ответ получить не удалось; тело разбирает вызывающий.
func (c *Client) GetTransaction(ctx context.Context, txHash string) ([]byte, error) {
	const op = "ledger.GetTransaction"

	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, txHash)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return body.([]byte), nil
}

func (c *Client) do(ctx context.Context, txHash string) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(getTransactionRequest{Value: txHash}); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/wallet/gettransactionbyid", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.LedgerRequestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return nil, err
	}
	defer resp.Body.Close()
	metrics.LedgerRequestDuration.WithLabelValues(strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	return body, nil
}
