// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	ledger "github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// ErrBadRequest marks undecodable request bodies and parameters.
var ErrBadRequest = errors.New("bad request")

// RespondError maps domain errors to HTTP responses using RFC7807.
// Ledger errors carry a message localized for the request's Accept-Language.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	detail := ledger.Localize(err, ledger.MatchLanguage(r.Header.Get("Accept-Language")))
	if detail == "" {
		detail = err.Error()
	}
	switch ledger.KindOf(err) {
	case ledger.KindValidation:
		Problem(w, http.StatusBadRequest, "Validation Failed", detail)
		return
	case ledger.KindNotFound:
		Problem(w, http.StatusNotFound, "Not Found", detail)
		return
	case ledger.KindConflict:
		Problem(w, http.StatusConflict, "Conflict", detail)
		return
	case ledger.KindState:
		Problem(w, http.StatusConflict, "Invalid State", detail)
		return
	}
	switch {
	case errors.Is(err, ErrBadRequest):
		Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, shared.ErrMissingIdentity), errors.Is(err, shared.ErrInvalidIdentity):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
