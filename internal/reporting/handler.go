package reporting

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/haiderali7066/Grocery-store-ERP/internal/platform/httpx"
)

// Handler wires the read-only report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	printer *message.Printer
}

// NewHandler constructs reporting handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, printer: message.NewPrinter(language.English)}
}

// MountRoutes registers reporting routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.handleDashboard)
	r.Get("/reports/totals", h.handleTotals)
	r.Get("/reports/daily", h.handleDaily)
	r.Get("/reports/monthly", h.handleMonthly)
	r.Get("/reports/sales", h.handleSales)
	r.Get("/reports/sales.csv", h.handleSalesCSV)
	r.Get("/reports/low-stock", h.handleLowStock)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("dashboard load failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dash)
}

func (h *Handler) handleTotals(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.window(w, r)
	if !ok {
		return
	}
	totals, err := h.service.WindowTotals(r.Context(), from, to)
	if err != nil {
		h.logger.Error("totals load failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, totals)
}

func (h *Handler) handleDaily(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.window(w, r)
	if !ok {
		return
	}
	series, err := h.service.DailyReport(r.Context(), from, to)
	if err != nil {
		h.logger.Error("daily report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"series": series})
}

func (h *Handler) handleMonthly(w http.ResponseWriter, r *http.Request) {
	months := 12
	if raw := r.URL.Query().Get("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 60 {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Range", "months must be 1-60")
			return
		}
		months = parsed
	}
	series, err := h.service.MonthlyReport(r.Context(), months)
	if err != nil {
		h.logger.Error("monthly report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"series": series})
}

func (h *Handler) handleSales(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Limit", "limit must be numeric")
			return
		}
		limit = parsed
	}
	sales, err := h.service.SalesList(r.Context(), limit)
	if err != nil {
		h.logger.Error("sales report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sales": sales})
}

func (h *Handler) handleSalesCSV(w http.ResponseWriter, r *http.Request) {
	sales, err := h.service.SalesList(r.Context(), 1000)
	if err != nil {
		h.logger.Error("sales export failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="sales.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"number", "grand_total", "profit", "payment_method", "fbr_status", "created_at"})
	for _, sale := range sales {
		_ = cw.Write([]string{
			sale.Number,
			h.rupees(sale.GrandTotal),
			h.rupees(sale.Profit),
			sale.PaymentMethod,
			sale.FBRStatus,
			sale.CreatedAt.Format(time.RFC3339),
		})
	}
	cw.Flush()
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.LowStockList(r.Context())
	if err != nil {
		h.logger.Error("low stock report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

// rupees renders paisa as a grouped rupee amount, e.g. 123456789 → "Rs 1,234,567.89".
func (h *Handler) rupees(paisa int64) string {
	sign := ""
	if paisa < 0 {
		sign = "-"
		paisa = -paisa
	}
	return h.printer.Sprintf("Rs %s%d.%02d", sign, paisa/100, paisa%100)
}

func (h *Handler) window(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(dayFormat, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Range", "from must be YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(dayFormat, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Range", "to must be YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		to = parsed.AddDate(0, 0, 1)
	}
	return from, to, true
}
