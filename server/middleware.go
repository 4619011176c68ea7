package server

import (
	"net/http"
	"strings"

	"github.com/existflow/projectdraft/internal/model"
	"github.com/labstack/echo/v4"
)

// Identity headers. They stand in for a session and carry no proof of identity.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// identityMiddleware copies the identity headers into the context
func (s *Server) identityMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
		if userID == "" && s.cfg.LegacyCurrentSlot {
			userID = model.LegacyDraftID
		}
		c.Set(ctxUserID, userID)
		c.Set(ctxRole, strings.TrimSpace(c.Request().Header.Get(HeaderUserRole)))
		return next(c)
	}
}

// requireIdentity rejects requests without an owner
func (s *Server) requireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if userID(c) == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "identity required"})
		}
		return next(c)
	}
}

func userID(c echo.Context) string {
	id, _ := c.Get(ctxUserID).(string)
	return id
}

func userRole(c echo.Context) string {
	role, _ := c.Get(ctxRole).(string)
	return role
}
