package ap

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/invoices", h.postInvoice)
	r.Post("/payments", h.paySupplier)
	r.Post("/returns", h.postReturn)
}

type itemRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

type invoiceRequest struct {
	SupplierID int64         `json:"supplier_id" validate:"required,gt=0"`
	Date       string        `json:"date"`
	Memo       string        `json:"memo"`
	Items      []itemRequest `json:"items" validate:"required,min=1,dive"`
}

type paymentRequest struct {
	SupplierID int64           `json:"supplier_id" validate:"required,gt=0"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method" validate:"required,oneof=CASH BANK"`
	Date       string          `json:"date"`
	Memo       string          `json:"memo"`
}

func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	parsed, err := time.Parse("2006-01-02", raw)
	return parsed, err == nil
}

func (h *Handler) postInvoice(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "date must be YYYY-MM-DD")
		return
	}
	in := InvoiceInput{SupplierID: req.SupplierID, Date: date, Memo: req.Memo}
	for _, item := range req.Items {
		in.Items = append(in.Items, InvoiceItemInput{ProductID: item.ProductID, Quantity: item.Quantity, UnitCost: item.UnitCost})
	}
	entry, err := h.service.PostInvoice(r.Context(), in)
	if err != nil {
		h.logger.Warn("post purchase invoice rejected", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) paySupplier(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "date must be YYYY-MM-DD")
		return
	}
	entry, err := h.service.PaySupplier(r.Context(), PaymentInput{
		SupplierID: req.SupplierID,
		Amount:     req.Amount,
		Method:     PaymentMethod(req.Method),
		Date:       date,
		Memo:       req.Memo,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) postReturn(w http.ResponseWriter, r *http.Request) {
	var req invoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "date must be YYYY-MM-DD")
		return
	}
	in := ReturnInput{SupplierID: req.SupplierID, Date: date, Memo: req.Memo}
	for _, item := range req.Items {
		in.Items = append(in.Items, ReturnItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	entry, err := h.service.PostPurchaseReturn(r.Context(), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}
