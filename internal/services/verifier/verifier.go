// Package verifier проверяет, что транзакция TRON является успешным переводом TRC20
// на кошелек выплат на сумму не меньше минимальной.
//
// Проверка не имеет побочных эффектов: ее можно повторять и вызывать параллельно.
// Любой исход выражается вердиктом models.Verdict, ошибки наружу не выходят.
package verifier

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/tron"
	"github.com/magabrotheeeer/airdrop-paywall/internal/metrics"
	"github.com/magabrotheeeer/airdrop-paywall/internal/models"
)

const (
	// TransferSelector селектор метода transfer(address,uint256).
	TransferSelector = "a9059cbb"
	// TokenDecimals точность USDT в сети TRON.
	TokenDecimals = 6

	triggerSmartContract = "TriggerSmartContract"
	contractRetSuccess   = "SUCCESS"

	// селектор + адрес + сумма
	transferCallLen = 4 + 32 + 32
	maxLoggedBody   = 2048
)

var (
	errUnparseable   = errors.New("unparseable ledger response")
	errShortCallData = errors.New("call data too short")
	errDirtyAddress  = errors.New("recipient word has non-zero padding")
)

// Ledger читает сырое описание транзакции по хэшу.
type Ledger interface {
	GetTransaction(ctx context.Context, txHash string) ([]byte, error)
}

// Config параметры проверки.
type Config struct {
	PayoutAddress string          // base58-адрес получателя
	TokenContract string          // base58-адрес контракта токена, пустой допускает любой TRC20
	MinAmount     decimal.Decimal // минимальная сумма в единицах токена
	Timeout       time.Duration   // таймаут запроса к узлу
}

// Service проверяет транзакции.
type Service struct {
	ledger Ledger
	cfg    Config
	log    *slog.Logger
}

// New создает сервис проверки транзакций.
func New(ledger Ledger, cfg Config, log *slog.Logger) *Service {
	return &Service{
		ledger: ledger,
		cfg:    cfg,
		log:    log,
	}
}

// Verify проверяет транзакцию. Хэш должен быть уже проверен на формат.
func (s *Service) Verify(ctx context.Context, txHash string) (verdict models.Verdict) {
	const op = "services.verifier.Verify"
	log := s.log.With(slog.String("op", op), sl.TxHash(txHash))

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while decoding transaction", slog.Any("panic", r))
			verdict = models.Invalid(models.ReasonMalformed)
		}
		metrics.VerdictsTotal.WithLabelValues(verdict.Kind.String()).Inc()
	}()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	body, err := s.ledger.GetTransaction(ctx, txHash)
	if err != nil {
		log.Warn("ledger query failed", sl.Err(err))
		return models.Transient(err)
	}
	if !gjson.ValidBytes(body) {
		log.Warn("ledger returned invalid json", slog.String("raw", truncate(body)))
		return models.Transient(errUnparseable)
	}

	verdict = s.decode(gjson.ParseBytes(body), txHash)
	switch verdict.Kind {
	case models.VerdictVerified:
		log.Info("transaction verified", slog.String("amount", verdict.Amount.String()))
	case models.VerdictInvalid:
		if verdict.Reason == models.ReasonMalformed {
			log.Warn("malformed ledger response", slog.String("raw", truncate(body)))
		} else {
			log.Info("transaction rejected", slog.String("reason", verdict.Reason))
		}
	}
	return verdict
}

func (s *Service) decode(doc gjson.Result, txHash string) models.Verdict {
	if !doc.IsObject() {
		return models.Transient(errUnparseable)
	}
	txID := doc.Get("txID")
	if !txID.Exists() {
		// узел отвечает {} на неизвестный хэш
		return models.Invalid(models.ReasonNotFound)
	}
	if !strings.EqualFold(txID.String(), txHash) {
		return models.Invalid(models.ReasonMalformed)
	}

	if doc.Get("ret.0.contractRet").String() != contractRetSuccess {
		return models.Invalid(models.ReasonExecutionFailed)
	}

	contracts := doc.Get("raw_data.contract").Array()
	if len(contracts) != 1 || contracts[0].Get("type").String() != triggerSmartContract {
		return models.Invalid(models.ReasonWrongCallType)
	}
	value := contracts[0].Get("parameter.value")

	data := strings.TrimPrefix(strings.ToLower(value.Get("data").String()), "0x")
	if !strings.HasPrefix(data, TransferSelector) {
		return models.Invalid(models.ReasonWrongMethod)
	}

	if s.cfg.TokenContract != "" {
		contract, err := tron.EncodeHexAddress(value.Get("contract_address").String())
		if err != nil {
			return models.Invalid(models.ReasonMalformed)
		}
		if contract != s.cfg.TokenContract {
			return models.Invalid(models.ReasonWrongToken)
		}
	}

	recipient, amount, err := DecodeTransfer(data)
	if err != nil {
		return models.Invalid(models.ReasonMalformed)
	}

	if recipient != s.cfg.PayoutAddress || amount.LessThan(s.cfg.MinAmount) {
		return models.Invalid(models.ReasonWrongRecipient)
	}
	return models.Verified(recipient, amount)
}

// DecodeTransfer разбирает данные вызова transfer(address,uint256):
// байты 4-35: адрес получателя с выравниванием, 36-67: сумма big-endian.
// Сумма возвращается в единицах токена.
func DecodeTransfer(data string) (string, decimal.Decimal, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(data, "0x"))
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("decode call data: %w", err)
	}
	if len(raw) < transferCallLen {
		return "", decimal.Zero, errShortCallData
	}

	word := raw[4:36]
	for _, b := range word[:32-tron.AddressLen] {
		if b != 0 {
			return "", decimal.Zero, errDirtyAddress
		}
	}
	recipient, err := tron.EncodeAddress(word[32-tron.AddressLen:])
	if err != nil {
		return "", decimal.Zero, err
	}

	units := new(big.Int).SetBytes(raw[36:68])
	return recipient, decimal.NewFromBigInt(units, -TokenDecimals), nil
}

func truncate(body []byte) string {
	if len(body) > maxLoggedBody {
		return string(body[:maxLoggedBody]) + "..."
	}
	return string(body)
}
