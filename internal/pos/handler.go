package pos

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/haiderali7066/Grocery-store-ERP/internal/inventory"
	"github.com/haiderali7066/Grocery-store-ERP/internal/platform/httpx"
	"github.com/haiderali7066/Grocery-store-ERP/internal/shared"
)

// SaleCounterPort increments domain counters; nil disables counting.
type SaleCounterPort interface {
	RecordSale()
}

// Handler wires HTTP endpoints for point-of-sale.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	counter  SaleCounterPort
	validate *validator.Validate
}

// NewHandler constructs pos handler.
func NewHandler(logger *slog.Logger, service *Service, counter SaleCounterPort) *Handler {
	return &Handler{logger: logger, service: service, counter: counter, validate: validator.New()}
}

// MountRoutes registers pos routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/pos/sale", h.handleFinalize)
	r.Get("/pos/sales", h.handleList)
	r.Get("/pos/sales/{saleID}", h.handleGet)
	r.Patch("/pos/sales/{saleID}/fbr", h.handleFBRStatus)
}

type saleLineForm struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity" validate:"required,gt=0"`
}

type saleForm struct {
	Lines         []saleLineForm `json:"lines" validate:"required,min=1,dive"`
	PaymentMethod string         `json:"payment_method" validate:"required"`
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	var form saleForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input := SaleInput{
		PaymentMethod:  PaymentMethod(form.PaymentMethod),
		CashierID:      shared.ActorFromContext(r.Context()),
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	}
	for _, line := range form.Lines {
		input.Lines = append(input.Lines, LineInput{ProductID: line.ProductID, Qty: line.Quantity})
	}
	sale, err := h.service.FinalizeSale(r.Context(), input)
	if err != nil {
		h.respondPOSError(w, err)
		return
	}
	if h.counter != nil {
		h.counter.RecordSale()
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{}
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Range", "from must be RFC3339")
			return
		}
		filter.From = t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Range", "to must be RFC3339")
			return
		}
		filter.To = t
	}
	if raw := r.URL.Query().Get("after_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Cursor", "after_id must be numeric")
			return
		}
		filter.AfterID = id
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Limit", "limit must be numeric")
			return
		}
		filter.Limit = limit
	}
	sales, err := h.service.ListSales(r.Context(), filter)
	if err != nil {
		h.respondPOSError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sales": sales})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	saleID, err := strconv.ParseInt(chi.URLParam(r, "saleID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "sale id must be numeric")
		return
	}
	sale, err := h.service.GetSale(r.Context(), saleID)
	if err != nil {
		h.respondPOSError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

type fbrStatusForm struct {
	Status        string `json:"status" validate:"required,oneof=pending success failed"`
	InvoiceNumber string `json:"invoice_number"`
}

func (h *Handler) handleFBRStatus(w http.ResponseWriter, r *http.Request) {
	saleID, err := strconv.ParseInt(chi.URLParam(r, "saleID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "sale id must be numeric")
		return
	}
	var form fbrStatusForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.UpdateFBRStatus(r.Context(), saleID, FBRStatus(form.Status), form.InvoiceNumber); err != nil {
		h.respondPOSError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (h *Handler) respondPOSError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrUnknownPaymentMethod):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrProductInactive):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Product Inactive", err.Error())
	case errors.Is(err, inventory.ErrInsufficientStock):
		httpx.Problem(w, http.StatusConflict, "Insufficient Stock", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate Request", err.Error())
	case errors.Is(err, ErrSaleFinalizationFailed):
		httpx.Problem(w, http.StatusBadGateway, "Sale Not Finalized", err.Error())
	default:
		h.logger.Error("pos request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
