package wallet

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/haiderali7066/Grocery-store-ERP/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the wallet ledger.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs wallet handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers wallet routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/wallet", h.handleOverview)
	r.Get("/wallet/{account}/history", h.handleHistory)
	r.Post("/wallet/transfer", h.handleTransfer)
	r.Post("/wallet/income", h.handleIncome)
	r.Post("/wallet/expense", h.handleExpense)
}

type transferForm struct {
	From        string `json:"from_method" validate:"required"`
	To          string `json:"to_method" validate:"required"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Description string `json:"description"`
}

type movementForm struct {
	Account     string `json:"account" validate:"required"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Category    string `json:"category" validate:"required"`
	Description string `json:"description"`
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	balances, err := h.service.Balances(r.Context())
	if err != nil {
		h.logger.Error("wallet overview", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	var total int64
	byAccount := make(map[string]int64, len(balances))
	for _, b := range balances {
		byAccount[string(b.Account)] = b.Amount
		total += b.Amount
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"wallet":        byAccount,
		"total_balance": total,
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	account := Account(chi.URLParam(r, "account"))
	filter := HistoryFilter{}
	q := r.URL.Query()
	if from := q.Get("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filter.From = t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filter.To = t.AddDate(0, 0, 1)
		}
	}
	if after, err := strconv.ParseInt(q.Get("after_id"), 10, 64); err == nil {
		filter.AfterID = after
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = limit
	}
	entries, err := h.service.History(r.Context(), account, filter)
	if err != nil {
		h.respondWalletError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": entries})
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var form transferForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	outLeg, inLeg, err := h.service.Transfer(r.Context(), Account(form.From), Account(form.To), form.Amount, form.Description)
	if err != nil {
		h.respondWalletError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"out": outLeg, "in": inLeg})
}

func (h *Handler) handleIncome(w http.ResponseWriter, r *http.Request) {
	h.handleMovement(w, r, h.service.Credit)
}

func (h *Handler) handleExpense(w http.ResponseWriter, r *http.Request) {
	h.handleMovement(w, r, h.service.Debit)
}

func (h *Handler) handleMovement(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, account Account, amount int64, category, description string) (Transaction, error)) {
	var form movementForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := op(r.Context(), Account(form.Account), form.Amount, form.Category, form.Description)
	if err != nil {
		h.respondWalletError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) respondWalletError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrUnknownAccount), errors.Is(err, ErrSameAccount):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrInsufficientBalance):
		httpx.Problem(w, http.StatusConflict, "Insufficient Balance", err.Error())
	default:
		h.logger.Error("wallet request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
