// Package instructions отдает реквизиты для оплаты подписки.
package instructions

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/airdrop-paywall/internal/http/response"
)

// Instructions реквизиты и тексты для экрана оплаты.
type Instructions struct {
	Address  string `json:"address"`
	Amount   string `json:"amount"`
	Token    string `json:"token"`
	PayURL   string `json:"pay_url"`
	Text     string `json:"text"`
	CopyText string `json:"copy_text"`
}

// Handler обрабатывает GET /payment/instructions.
type Handler struct {
	log          *slog.Logger
	instructions Instructions
}

// New создает Handler. linkFmt: шаблон ссылки на оплату с адресом и суммой.
func New(log *slog.Logger, address, amount, linkFmt string) *Handler {
	return &Handler{
		log:          log,
		instructions: Build(address, amount, linkFmt),
	}
}

// Build формирует реквизиты оплаты.
func Build(address, amount, linkFmt string) Instructions {
	return Instructions{
		Address: address,
		Amount:  amount,
		Token:   "USDT (TRC20)",
		PayURL:  fmt.Sprintf(linkFmt, url.QueryEscape(address), url.QueryEscape(amount)),
		Text: "🔐 Subscription Payment\n\n" +
			"1. Send " + amount + " USDT (TRC20) to:\n" +
			address + "\n\n" +
			"2. Reply with your TX hash",
		CopyText: address + "\n\nPaste it in your wallet to pay.",
	}
}

// ServeHTTP godoc
// @Summary Реквизиты оплаты
// @Description Адрес кошелька, сумма и ссылка на оплату подписки
// @Tags Payments
// @Produce  json
// @Success 200 {object} response.Response{data=Instructions} "Реквизиты"
// @Failure 401 {object} response.Response "Пользователь не авторизован"
// @Router /payment/instructions [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.instructions"
	h.log.Debug("payment instructions requested",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())))
	render.JSON(w, r, response.StatusOKWithData(h.instructions))
}
