package instructions

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payout = "TD5gsCwxykWsLN9aPrq2TAfNjByuZKYp4E"

func TestHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(logger, payout, "0.99", "https://tronscan.org/#/send?to=%s&amount=%s")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/payment/instructions", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Status string       `json:"status"`
		Data   Instructions `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "OK", body.Status)
	assert.Equal(t, payout, body.Data.Address)
	assert.Equal(t, "0.99", body.Data.Amount)
	assert.Equal(t, "https://tronscan.org/#/send?to="+payout+"&amount=0.99", body.Data.PayURL)
	assert.Contains(t, body.Data.Text, "Send 0.99 USDT (TRC20) to:\n"+payout)
	assert.Contains(t, body.Data.CopyText, payout)
}
