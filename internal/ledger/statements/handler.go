package statements

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/trial-balance", h.trialBalance)
	r.Get("/income-statement", h.incomeStatement)
	r.Get("/balance-sheet", h.balanceSheet)
}

func periodFromQuery(r *http.Request) (Period, bool) {
	const layout = "2006-01-02"
	var p Period
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(layout, raw)
		if err != nil {
			return Period{}, false
		}
		p.From = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(layout, raw)
		if err != nil {
			return Period{}, false
		}
		p.To = parsed
	}
	return p, true
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	period, ok := periodFromQuery(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "from/to must be YYYY-MM-DD")
		return
	}
	tb, err := h.service.TrialBalance(r.Context(), period)
	if err != nil {
		h.logger.Error("build trial balance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"report": tb, "balanced": tb.Balanced()})
}

func (h *Handler) incomeStatement(w http.ResponseWriter, r *http.Request) {
	period, ok := periodFromQuery(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "from/to must be YYYY-MM-DD")
		return
	}
	is, err := h.service.IncomeStatement(r.Context(), period)
	if err != nil {
		h.logger.Error("build income statement", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, is)
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	period, ok := periodFromQuery(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "from/to must be YYYY-MM-DD")
		return
	}
	bs, err := h.service.BalanceSheet(r.Context(), period)
	if err != nil {
		h.logger.Error("build balance sheet", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"report": bs, "identity": bs.Identity()})
}
