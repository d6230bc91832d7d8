package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/haiderali7066/Grocery-store-ERP/internal/platform/httpx"
	"github.com/haiderali7066/Grocery-store-ERP/internal/shared"
)

// Handler wires HTTP endpoints for the inventory ledger.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/purchases", h.handleReceive)
	r.Get("/stock/{productID}", h.handleStock)
	r.Get("/stock/{productID}/lots", h.handleLots)
}

type purchaseForm struct {
	ProductID  int64  `json:"product_id" validate:"required,gt=0"`
	Quantity   int64  `json:"quantity" validate:"required,gt=0"`
	BuyingRate int64  `json:"buying_rate" validate:"gte=0"`
	SupplierID int64  `json:"supplier_id"`
	Note       string `json:"note"`
}

func (h *Handler) handleReceive(w http.ResponseWriter, r *http.Request) {
	var form purchaseForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	if err := h.validate.Struct(form); err != nil {
		httpx.RespondError(w, err)
		return
	}
	lot, err := h.service.ReceiveStock(r.Context(), ReceiveInput{
		ProductID:  form.ProductID,
		Qty:        form.Quantity,
		BuyingRate: form.BuyingRate,
		SupplierID: form.SupplierID,
		Note:       form.Note,
		ActorID:    shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.respondInventoryError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, lot)
}

func (h *Handler) handleStock(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}
	stock, err := h.service.CurrentStock(r.Context(), productID)
	if err != nil {
		h.respondInventoryError(w, err)
		return
	}
	low, err := h.service.IsLowStock(r.Context(), productID)
	if err != nil {
		h.respondInventoryError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"product_id": productID,
		"stock":      stock,
		"low_stock":  low,
	})
}

func (h *Handler) handleLots(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}
	lots, err := h.service.LotHistory(r.Context(), productID)
	if err != nil {
		h.respondInventoryError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"lots": lots})
}

func (h *Handler) respondInventoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidRate):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrInsufficientStock):
		httpx.Problem(w, http.StatusConflict, "Insufficient Stock", err.Error())
	default:
		h.logger.Error("inventory request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
