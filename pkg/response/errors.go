package response

import (
	"errors"
	"net/http"

	"github.com/fkhayef/parkwise/internal/apperr"
)

// FromError maps a service error onto the envelope. Persistence details are
// not echoed back to the client.
func FromError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidAmount):
		Error(w, http.StatusBadRequest, "INVALID_AMOUNT", err.Error())
	case errors.Is(err, apperr.ErrInvalidPeriod):
		Error(w, http.StatusBadRequest, "INVALID_PERIOD", err.Error())
	case errors.Is(err, apperr.ErrValidation):
		Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, apperr.ErrDuplicate):
		Error(w, http.StatusConflict, "DUPLICATE", err.Error())
	case errors.Is(err, apperr.ErrInvalidTransition):
		Error(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, apperr.ErrLookup):
		BadGateway(w, "Owner account lookup failed")
	case errors.Is(err, apperr.ErrPersistence):
		ServiceUnavailable(w, "Storage is unavailable, retry the request")
	default:
		InternalError(w, "Internal server error")
	}
}
