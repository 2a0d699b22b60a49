package verifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/airdrop-paywall/internal/models"
)

const (
	testHash   = "4b1f0c3d0e8f2a1b9c7d6e5f4a3b2c1d0e9f8a7b6c5d4e3f2a1b0c9d8e7f6a5b"
	payout     = "TD5gsCwxykWsLN9aPrq2TAfNjByuZKYp4E" // 41 + 0x22 * 20
	otherAddr  = "TBXSw8fM4jpQkGc6zZjsVABFpVN7UvXPdV" // 41 + 0x11 * 20
	usdt       = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"
	usdtHex    = "41a614f803b6fd780986a42c78ec9c7f77e6ded13c"
	payoutHex  = "2222222222222222222222222222222222222222"
	otherHex   = "1111111111111111111111111111111111111111"
	amount099  = 990000
	amount098  = 980000
	amount5usd = 5000000
)

type LedgerMock struct{ mock.Mock }

func (m *LedgerMock) GetTransaction(ctx context.Context, txHash string) ([]byte, error) {
	args := m.Called(ctx, txHash)
	body, _ := args.Get(0).([]byte)
	return body, args.Error(1)
}

func NewNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func callData(recipientHex string, units int64) string {
	return TransferSelector +
		strings.Repeat("0", 24) + recipientHex +
		fmt.Sprintf("%064x", units)
}

type txOpts struct {
	ret       string
	typ       string
	data      string
	contract  string
	contracts int
}

func txJSON(o txOpts) []byte {
	if o.ret == "" {
		o.ret = "SUCCESS"
	}
	if o.typ == "" {
		o.typ = "TriggerSmartContract"
	}
	if o.contract == "" {
		o.contract = usdtHex
	}
	if o.contracts == 0 {
		o.contracts = 1
	}
	one := fmt.Sprintf(`{"type":%q,"parameter":{"value":{"data":%q,"contract_address":%q,"owner_address":"41%s"}}}`,
		o.typ, o.data, o.contract, otherHex)
	list := make([]string, o.contracts)
	for i := range list {
		list[i] = one
	}
	return []byte(fmt.Sprintf(`{"txID":%q,"ret":[{"contractRet":%q}],"raw_data":{"contract":[%s]}}`,
		testHash, o.ret, strings.Join(list, ",")))
}

func newService(ledger Ledger, token string) *Service {
	return New(ledger, Config{
		PayoutAddress: payout,
		TokenContract: token,
		MinAmount:     decimal.RequireFromString("0.99"),
		Timeout:       time.Second,
	}, NewNoopLogger())
}

func TestService_Verify(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		body       []byte
		wantKind   models.VerdictKind
		wantReason string
		wantAmount string
	}{
		{
			name:       "exact minimum",
			body:       txJSON(txOpts{data: callData(payoutHex, amount099)}),
			wantKind:   models.VerdictVerified,
			wantAmount: "0.99",
		},
		{
			name:       "above minimum with token pin",
			token:      usdt,
			body:       txJSON(txOpts{data: callData(payoutHex, amount5usd)}),
			wantKind:   models.VerdictVerified,
			wantAmount: "5",
		},
		{
			name:       "uppercase call data",
			body:       txJSON(txOpts{data: strings.ToUpper(callData(payoutHex, amount099))}),
			wantKind:   models.VerdictVerified,
			wantAmount: "0.99",
		},
		{
			name:       "0x prefixed call data",
			body:       txJSON(txOpts{data: "0x" + callData(payoutHex, amount099)}),
			wantKind:   models.VerdictVerified,
			wantAmount: "0.99",
		},
		{
			name:       "below minimum",
			body:       txJSON(txOpts{data: callData(payoutHex, amount098)}),
			wantKind:   models.VerdictInvalid,
			wantReason: models.ReasonWrongRecipient,
		},
		{
			name:       "wrong recipient",
			body:       txJSON(txOpts{data: callData(otherHex, amount5usd)}),
			wantKind:   models.VerdictInvalid,
			wantReason: models.ReasonWrongRecipient,
		},
		{
			name:       "reverted",
			body:       txJSON(txOpts{ret: "REVERT", data: callData(payoutHex, amount099)}),
			wantKind:   models.VerdictInvalid,
			wantReason: models.ReasonExecutionFailed,
		},
		{
			name:       "trx transfer",
			body:       txJSON(txOpts{typ: "TransferContract", data: callData(payoutHex, amount099)}),
			wantKind:   models.VerdictInvalid,
			wantReason: models.ReasonWrongCallType,
		},
		{
			name:       "several contracts",
			body:       txJSON(txOpts{contracts: 2, data: callData(payoutHex, amount099)}),
			wantKind:   models.VerdictInvalid,
			wantReason: models.ReasonWrongCallType,
		},
		{
			name:       "approve instead of transfer",
			body:       txJSON(txOpts{data: "095ea7b3" + callData(payoutHex, amount099)[8:]}),
			wantKind:   models.VerdictInvalid,
			wantReason: models.ReasonWrongMethod,
		},
		{
			name:       "other token with pin",
			token:      usdt,
			body:       txJSON(txOpts{contract: "41" + otherHex, data: callData(payoutHex, amount099)}),
			wantKind:   models.VerdictInvalid,
			wantReason: models.ReasonWrongToken,
		},
		{
			name:       "other token without pin",
			body:       txJSON(txOpts{contract: "41" + otherHex, data: callData(payoutHex, amount099)}),
			wantKind:   models.VerdictVerified,
			wantAmount: "0.99",
		},
		{
			name:       "truncated call data",
			body:       txJSON(txOpts{data: callData(payoutHex, amount099)[:100]}),
			wantKind:   models.VerdictInvalid,
			wantReason: models.ReasonMalformed,
		},
		{
			name:       "dirty address padding",
			body:       txJSON(txOpts{data: TransferSelector + strings.Repeat("f", 24) + payoutHex + fmt.Sprintf("%064x", amount099)}),
			wantKind:   models.VerdictInvalid,
			wantReason: models.ReasonMalformed,
		},
		{
			name:       "non hex call data",
			body:       txJSON(txOpts{data: TransferSelector + strings.Repeat("zz", 64)}),
			wantKind:   models.VerdictInvalid,
			wantReason: models.ReasonMalformed,
		},
		{
			name:       "unknown transaction",
			body:       []byte(`{}`),
			wantKind:   models.VerdictInvalid,
			wantReason: models.ReasonNotFound,
		},
		{
			name:       "other transaction id",
			body:       []byte(`{"txID":"` + strings.Repeat("0", 64) + `"}`),
			wantKind:   models.VerdictInvalid,
			wantReason: models.ReasonMalformed,
		},
		{
			name:     "not json",
			body:     []byte(`<html>bad gateway</html>`),
			wantKind: models.VerdictTransient,
		},
		{
			name:     "json array",
			body:     []byte(`[]`),
			wantKind: models.VerdictTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := new(LedgerMock)
			ledger.On("GetTransaction", mock.Anything, testHash).Return(tt.body, nil).Once()

			v := newService(ledger, tt.token).Verify(context.Background(), testHash)

			assert.Equal(t, tt.wantKind, v.Kind)
			assert.Equal(t, tt.wantReason, v.Reason)
			if tt.wantKind == models.VerdictVerified {
				assert.Equal(t, payout, v.Recipient)
				assert.True(t, decimal.RequireFromString(tt.wantAmount).Equal(v.Amount), "amount %s", v.Amount)
			}
			ledger.AssertExpectations(t)
		})
	}
}

func TestService_Verify_LedgerError(t *testing.T) {
	ledgerErr := errors.New("connection refused")
	ledger := new(LedgerMock)
	ledger.On("GetTransaction", mock.Anything, testHash).Return(nil, ledgerErr).Once()

	v := newService(ledger, "").Verify(context.Background(), testHash)

	assert.Equal(t, models.VerdictTransient, v.Kind)
	assert.ErrorIs(t, v.Cause, ledgerErr)
	ledger.AssertExpectations(t)
}

func TestService_Verify_Timeout(t *testing.T) {
	ledger := new(LedgerMock)
	ledger.On("GetTransaction", mock.Anything, testHash).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			_, ok := ctx.Deadline()
			assert.True(t, ok, "deadline must be set")
		}).
		Return(nil, context.DeadlineExceeded).Once()

	v := newService(ledger, "").Verify(context.Background(), testHash)

	assert.Equal(t, models.VerdictTransient, v.Kind)
	assert.ErrorIs(t, v.Cause, context.DeadlineExceeded)
}

func TestDecodeTransfer(t *testing.T) {
	recipient, amount, err := DecodeTransfer(callData(payoutHex, amount099))
	require.NoError(t, err)
	assert.Equal(t, payout, recipient)
	assert.Equal(t, "0.99", amount.String())

	_, _, err = DecodeTransfer(TransferSelector)
	assert.ErrorIs(t, err, errShortCallData)
}
