package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"postboard/internal/errors"
)

func missingFields() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: errors.ErrMissingFields.Error(),
		Code:  "VALIDATION_FAILED",
	})
}

func invalidBody() *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: "invalid request body",
		Code:  "INVALID_BODY",
	})
}

// respondError maps a service error onto an HTTP error. Server side failures
// are logged; their cause is echoed to the client only when withDetails is
// set.
func respondError(c echo.Context, err error, withDetails bool) *echo.HTTPError {
	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse(withDetails))
}
