package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// handleValidate runs validation and warnings over a raw ProjectFormData body
func (s *Server) handleValidate(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
			return c.JSON(he.Code, map[string]string{"error": "request body too large"})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	report, err := s.svc.CheckJSON(raw)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, report)
}
