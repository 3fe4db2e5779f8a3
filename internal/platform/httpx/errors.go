package httpx

import (
	"errors"
	"net/http"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// RespondError maps ledger domain errors to HTTP responses using RFC7807.
// Typed failures carry enough detail for the caller to know what to fix;
// everything unexpected stays a bare 500.
func RespondError(w http.ResponseWriter, err error) {
	var unbalanced *shared.UnbalancedError
	var malformed *shared.MalformedLineError
	var notConfigured *shared.AccountNotConfiguredError
	switch {
	case errors.As(err, &unbalanced):
		Problem(w, http.StatusUnprocessableEntity, "Unbalanced Entry", unbalanced.Error())
	case errors.As(err, &malformed):
		Problem(w, http.StatusBadRequest, "Malformed Line", malformed.Error())
	case errors.As(err, &notConfigured):
		Problem(w, http.StatusConflict, "Account Not Configured", notConfigured.Error())
	case errors.Is(err, shared.ErrTooFewLines),
		errors.Is(err, shared.ErrNothingToPost),
		errors.Is(err, shared.ErrInvalidQuantity),
		errors.Is(err, shared.ErrInvalidUnitCost),
		errors.Is(err, shared.ErrInvalidPartyKind):
		Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	case errors.Is(err, shared.ErrJournalNotFound),
		errors.Is(err, shared.ErrAccountNotFound),
		errors.Is(err, shared.ErrPartyNotFound),
		errors.Is(err, shared.ErrProductNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidStatus),
		errors.Is(err, shared.ErrSourceAlreadyLinked):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrConcurrentBalanceConflict):
		Problem(w, http.StatusConflict, "Concurrent Update", err.Error())
	case errors.Is(err, shared.ErrNegativeStock):
		Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
