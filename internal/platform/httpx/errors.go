package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/haiderali7066/Grocery-store-ERP/internal/shared"
)

// RespondError maps common error kinds to HTTP responses. Module handlers
// map their own domain errors first and fall through to this for the rest.
func RespondError(w http.ResponseWriter, err error) {
	var vErrs validator.ValidationErrors
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.As(err, &vErrs):
		Problem(w, http.StatusBadRequest, "Validation Failed", vErrs.Error())
	case errors.Is(err, shared.ErrAggregateHalted), errors.Is(err, shared.ErrConsistency):
		Problem(w, http.StatusConflict, "Ledger Halted", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
