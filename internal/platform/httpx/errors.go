package httpx

import (
	"errors"
	"net/http"

	"github.com/pixelfolio/pixelfolio/internal/shared"
)

// RespondError maps domain errors to envelope responses. Authentication
// failures collapse to a single public message so callers cannot probe which
// check failed; the distinct sentinels remain available for logging.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation),
		errors.Is(err, shared.ErrDuplicateEmail),
		errors.Is(err, shared.ErrInvalidRole),
		errors.Is(err, shared.ErrAlreadyPurchased),
		errors.Is(err, shared.ErrOwnPost):
		Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Fail(w, http.StatusUnauthorized, shared.ErrInvalidCredentials.Error())
	case errors.Is(err, shared.ErrUnauthenticated),
		errors.Is(err, shared.ErrInvalidToken),
		errors.Is(err, shared.ErrUnknownAccount):
		Fail(w, http.StatusUnauthorized, shared.ErrUnauthenticated.Error())
	case errors.Is(err, shared.ErrSuspended):
		Fail(w, http.StatusForbidden, shared.ErrSuspended.Error())
	case errors.Is(err, shared.ErrForbidden),
		errors.Is(err, shared.ErrSelfDemotion),
		errors.Is(err, shared.ErrSelfDeletion):
		Fail(w, http.StatusForbidden, err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Fail(w, http.StatusNotFound, shared.ErrNotFound.Error())
	default:
		Fail(w, http.StatusInternalServerError, "unexpected error")
	}
}
