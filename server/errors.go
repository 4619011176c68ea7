package server

import (
	"errors"
	"net/http"

	"github.com/existflow/projectdraft/internal/draft"
	"github.com/existflow/projectdraft/internal/logger"
	"github.com/existflow/projectdraft/internal/validation"
	"github.com/labstack/echo/v4"
)

// Error codes sent next to the message so clients can tell 409s apart
const (
	CodeStaleRevision  = "stale_revision"
	CodeStatusConflict = "status_conflict"
	CodeNotFound       = "not_found"
	CodeNotAllowed     = "not_allowed"
)

func errorCode(err error) string {
	switch {
	case errors.Is(err, draft.ErrStaleRevision):
		return CodeStaleRevision
	case errors.Is(err, draft.ErrStatusConflict):
		return CodeStatusConflict
	case errors.Is(err, draft.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, draft.ErrNotAllowed):
		return CodeNotAllowed
	default:
		return ""
	}
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, draft.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, draft.ErrStaleRevision), errors.Is(err, draft.ErrStatusConflict):
		return http.StatusConflict
	case errors.Is(err, draft.ErrNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, draft.ErrNoOwner), errors.Is(err, validation.ErrMalformed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes the JSON error body for err
func fail(c echo.Context, err error) error {
	var verr *draft.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  verr.Error(),
			"issues": verr.Issues,
		})
	}

	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			logger.F("uri", c.Request().RequestURI),
			logger.F("error", err.Error()))
		msg = "internal error"
	}
	body := map[string]string{"error": msg}
	if code := errorCode(err); code != "" {
		body["code"] = code
	}
	return c.JSON(status, body)
}
