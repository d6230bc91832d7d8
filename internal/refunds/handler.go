package refunds

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/haiderali7066/Grocery-store-ERP/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the refund workflow.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs refunds handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers refund routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/refunds", h.handleSubmit)
	r.Get("/refunds", h.handleList)
	r.Get("/refunds/{requestID}", h.handleGet)
	r.Post("/refunds/{requestID}/approve", h.handleApprove)
	r.Post("/refunds/{requestID}/reject", h.handleReject)
	r.Post("/refunds/{requestID}/payout", h.handleRetryPayout)
}

type submitForm struct {
	SaleID int64  `json:"sale_id" validate:"required,gt=0"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var form submitForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	req, err := h.service.Submit(r.Context(), SubmitInput{
		SaleID: form.SaleID,
		Amount: form.Amount,
		Reason: form.Reason,
	})
	if err != nil {
		h.respondRefundError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, req)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Status: Status(r.URL.Query().Get("status"))}
	if filter.Status != "" && !filter.Status.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Status", "unknown refund status")
		return
	}
	if raw := r.URL.Query().Get("sale_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", "sale_id must be numeric")
			return
		}
		filter.SaleID = id
	}
	requests, err := h.service.ListRequests(r.Context(), filter)
	if err != nil {
		h.respondRefundError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	req, err := h.service.GetRequest(r.Context(), id)
	if err != nil {
		h.respondRefundError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

type approveForm struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Notes  string `json:"notes"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	var form approveForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	req, err := h.service.Approve(r.Context(), id, form.Amount, form.Notes)
	if errors.Is(err, ErrPayoutFailed) {
		// Decision recorded; money has not moved yet.
		httpx.JSON(w, http.StatusAccepted, req)
		return
	}
	if err != nil {
		h.respondRefundError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

type rejectForm struct {
	Notes string `json:"notes"`
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	var form rejectForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	req, err := h.service.Reject(r.Context(), id, form.Notes)
	if err != nil {
		h.respondRefundError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *Handler) handleRetryPayout(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	req, err := h.service.RetryPayout(r.Context(), id)
	if err != nil {
		h.respondRefundError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *Handler) requestID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "requestID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "request id must be numeric")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondRefundError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrRefundExceedsSale):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Refund Exceeds Sale", err.Error())
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.Is(err, ErrPayoutFailed):
		httpx.Problem(w, http.StatusBadGateway, "Payout Failed", err.Error())
	default:
		h.logger.Error("refunds request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
