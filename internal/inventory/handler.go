package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// Handler serves the product catalogue and stock card views. Stock
// figures shown here are read-only; mutation happens through journal
// postings only.
type Handler struct {
	logger   *slog.Logger
	repo     RepositoryPort
	engine   *Engine
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, repo RepositoryPort, engine *Engine) *Handler {
	return &Handler{logger: logger, repo: repo, engine: engine, validate: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Get("/products/{id}", h.getProduct)
	r.Put("/products/{id}", h.updateProduct)
	r.Get("/products/{id}/movements", h.stockCard)
	r.Get("/audit", h.audit)
}

type productRequest struct {
	Code  string  `json:"code" validate:"required"`
	Name  string  `json:"name" validate:"required"`
	Brand *string `json:"brand"`
	Model *string `json:"model"`
}

type productView struct {
	Product
	AverageCost decimal.Decimal `json:"average_cost"`
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]productView, len(products))
	for i, p := range products {
		views[i] = productView{Product: p, AverageCost: p.AverageCost()}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": views})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid product id")
		return
	}
	product, err := h.repo.GetProduct(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, productView{Product: product, AverageCost: product.AverageCost()})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	product, err := h.repo.CreateProduct(r.Context(), Product{Code: req.Code, Name: req.Name, Brand: req.Brand, Model: req.Model})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid product id")
		return
	}
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.repo.UpdateProduct(r.Context(), id, Product{Code: req.Code, Name: req.Name, Brand: req.Brand, Model: req.Model}); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"updated": true})
}

type stockCardRow struct {
	Movement
	RunningQty decimal.Decimal `json:"running_qty"`
}

// stockCard replays the movement log in (posted_at, id) order with a
// running quantity column.
func (h *Handler) stockCard(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid product id")
		return
	}
	product, err := h.repo.GetProduct(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	movements, err := h.repo.ListMovements(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows := make([]stockCardRow, len(movements))
	running := decimal.Zero
	for i, m := range movements {
		running = running.Add(m.Quantity)
		rows[i] = stockCardRow{Movement: m, RunningQty: running}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"product":      productView{Product: product, AverageCost: product.AverageCost()},
		"movements":    rows,
		"qty_on_hand":  product.QtyOnHand,
		"average_cost": product.AverageCost(),
	})
}

func (h *Handler) audit(w http.ResponseWriter, r *http.Request) {
	discrepancies, err := h.engine.VerifyAll(r.Context())
	if err != nil {
		h.logger.Error("inventory audit", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"healthy":       len(discrepancies) == 0,
		"discrepancies": discrepancies,
	})
}

func productID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}
