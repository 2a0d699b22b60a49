// Package submit принимает хэш транзакции оплаты от пользователя.
//
// Ответ зависит от итога заявки: 200: подписка продлена, 422: заявка
// отклонена, 503: сеть недоступна и хэш можно прислать позже,
// 500: сбой хранилища.
package submit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/airdrop-paywall/internal/http/middlewarectx"
	"github.com/magabrotheeeer/airdrop-paywall/internal/http/response"
	"github.com/magabrotheeeer/airdrop-paywall/internal/lib/sl"
	"github.com/magabrotheeeer/airdrop-paywall/internal/models"
)

// Service обрабатывает заявку.
type Service interface {
	SubmitClaim(ctx context.Context, claim models.Claim) (models.SubmissionResult, error)
}

// Request тело запроса. Хэш принимается как есть, формат проверяет сервис.
type Request struct {
	TxHash string `json:"tx_hash" validate:"required,max=256"`
}

// Result тело ответа.
type Result struct {
	Result  models.SubmissionStatus `json:"result"`
	EndDate string                  `json:"end_date,omitempty"`
	Reason  string                  `json:"reason,omitempty"`
	Message string                  `json:"message"`
}

// Handler обрабатывает POST /claims.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Отправить хэш транзакции
// @Description Проверяет перевод USDT в сети TRON и продлевает подписку пользователя
// @Tags Claims
// @Accept  json
// @Produce  json
// @Param request body Request true "Хэш транзакции"
// @Success 200 {object} response.Response{data=Result} "Платеж зачтен"
// @Failure 400 {object} response.Response "Некорректный JSON"
// @Failure 401 {object} response.Response "Пользователь не авторизован"
// @Failure 422 {object} response.Response{data=Result} "Заявка отклонена"
// @Failure 429 {object} response.Response "Слишком много заявок"
// @Failure 503 {object} response.Response{data=Result} "Узел сети недоступен, повторите позже"
// @Failure 500 {object} response.Response "Ошибка хранилища"
// @Router /claims [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.claims.submit"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}
	log = log.With(sl.UserID(userID))

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var validateErr validator.ValidationErrors
		if errors.As(err, &validateErr) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request"))
		return
	}

	res, err := h.service.SubmitClaim(r.Context(), models.Claim{TxHash: req.TxHash, UserID: userID})
	if err != nil {
		log.Error("failed to process claim", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not process payment, try again later"))
		return
	}

	out := Result{Result: res.Status, Reason: res.Reason, Message: Message(res)}
	switch res.Status {
	case models.StatusAccepted:
		out.EndDate = res.EndDate.Format(models.DateLayout)
		render.JSON(w, r, response.StatusOKWithData(out))
	case models.StatusRejected:
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ErrorWithData(res.Reason, out))
	default:
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.ErrorWithData(res.Reason, out))
	}
}

// Message возвращает текст ответа пользователю.
func Message(res models.SubmissionResult) string {
	switch res.Status {
	case models.StatusAccepted:
		return "✅ Payment confirmed! Access until: " + res.EndDate.Format(models.DateLayout) +
			"\n\nUse /airdrops to see all drops."
	case models.StatusDeferred:
		return "⏳ Could not reach the TRON network. Try again shortly with the same TX hash."
	}
	switch res.Reason {
	case models.ReasonBadFormat:
		return "❌ Invalid TX hash format. Must be 64 characters."
	case models.ReasonAlreadyUsed:
		return "❌ This transaction has already been used for a subscription."
	default:
		return "❌ Payment verification failed (" + res.Reason + "). Check:\n" +
			"1. Sent at least 0.99 USDT (TRC20)\n" +
			"2. Transaction is confirmed\n" +
			"3. Correct recipient address\n\n" +
			"Try again or contact support."
	}
}
