package journal

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the journal module.
type Handler struct {
	logger    *slog.Logger
	poster    *Poster
	accounts  *accounts.Service
	integrity *IntegrityChecker
	validate  *validator.Validate
}

// NewHandler constructs the journal handler.
func NewHandler(logger *slog.Logger, poster *Poster, accountsSvc *accounts.Service, integrity *IntegrityChecker) *Handler {
	return &Handler{logger: logger, poster: poster, accounts: accountsSvc, integrity: integrity, validate: validator.New()}
}

// MountRoutes registers journal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.post)
	r.Get("/{id}", h.get)
	r.Post("/{id}/reverse", h.reverse)
	r.Get("/integrity", h.integrityCheck)
	r.Get("/accounts/{accountID}/ledger", h.accountLedger)
}

type postLineRequest struct {
	AccountCode string          `json:"account_code" validate:"required"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

type postRequest struct {
	Description string            `json:"description" validate:"required"`
	Date        string            `json:"date" validate:"required"`
	SourceID    string            `json:"source_id"`
	Lines       []postLineRequest `json:"lines" validate:"required,min=2,dive"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.poster.List(r.Context())
	if err != nil {
		h.logger.Error("list journals", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid entry id")
		return
	}
	entry, err := h.poster.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "date must be YYYY-MM-DD")
		return
	}
	dir, err := h.accounts.Directory(r.Context())
	if err != nil {
		h.logger.Error("load chart of accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	lines := make([]LineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		accountID, err := dir.Resolve(line.AccountCode)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		lines = append(lines, LineInput{AccountID: accountID, Debit: line.Debit, Credit: line.Credit})
	}
	sourceID := uuid.New()
	if req.SourceID != "" {
		parsed, err := uuid.Parse(req.SourceID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "source_id must be a UUID")
			return
		}
		sourceID = parsed
	}
	entry, err := h.poster.Post(r.Context(), PostingInput{
		Description:  req.Description,
		Date:         date,
		SourceModule: "manual",
		SourceID:     sourceID,
		Lines:        lines,
	})
	if err != nil {
		h.logger.Warn("post journal rejected", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) reverse(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid entry id")
		return
	}
	var req struct {
		Memo string `json:"memo"`
	}
	_ = httpx.DecodeJSON(r, &req)
	reversal, err := h.poster.Reverse(r.Context(), ReverseInput{EntryID: id, Memo: req.Memo})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, reversal)
}

func (h *Handler) integrityCheck(w http.ResponseWriter, r *http.Request) {
	report, err := h.integrity.Check(r.Context())
	if err != nil {
		h.logger.Error("ledger integrity check", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

type ledgerRow struct {
	AccountLine
	Running decimal.Decimal `json:"running"`
}

func (h *Handler) accountLedger(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "invalid account id")
		return
	}
	lines, running, err := h.poster.AccountLedger(r.Context(), accountID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows := make([]ledgerRow, len(lines))
	for i := range lines {
		rows[i] = ledgerRow{AccountLine: lines[i], Running: running[i]}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": rows})
}
