// Package httperr translates service and store errors into HTTP responses.
// Translation lives here alone; repositories and services return domain
// errors and never touch status codes.
package httperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trialdata/trialdata/internal/platform/docstore"
)

// FromError maps an error bubbled out of a service to an echo HTTP error:
// conflicts to 409, missing records to 404, everything else to 400 as a
// validation failure. Uncaught non-error panics stay with the recovery
// middleware as 500s.
func FromError(err error) error {
	switch {
	case errors.Is(err, docstore.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, docstore.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
