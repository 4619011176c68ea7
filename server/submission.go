package server

import (
	"net/http"

	"github.com/existflow/projectdraft/internal/draft"
	"github.com/existflow/projectdraft/internal/model"
	"github.com/labstack/echo/v4"
)

// SubmitResponse identifies the submitted record
type SubmitResponse struct {
	Success bool         `json:"success"`
	Key     string       `json:"key"`
	Status  model.Status `json:"status"`
}

// ApproveResponse carries the status after an approval step
type ApproveResponse struct {
	Success   bool         `json:"success"`
	NewStatus model.Status `json:"newStatus"`
}

// AuditResponse lists workflow history
type AuditResponse struct {
	Entries []model.AuditEntry `json:"entries"`
}

// handleSubmit validates the caller's draft and submits it
func (s *Server) handleSubmit(c echo.Context) error {
	id := c.Param("id")
	if id != userID(c) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "cannot submit another owner's draft"})
	}

	d, err := s.svc.Submit(c.Request().Context(), id, userID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, SubmitResponse{Success: true, Key: d.Key, Status: d.Status})
}

// handleApprove advances a submission according to the X-User-Role header
func (s *Server) handleApprove(c echo.Context) error {
	role := userRole(c)
	if role == "" {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "role required"})
	}

	d, err := s.svc.Approve(c.Request().Context(), c.Param("key"), userID(c), draft.Role(role))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ApproveResponse{Success: true, NewStatus: d.Status})
}

func (s *Server) handleAudit(c echo.Context) error {
	entries, err := s.svc.History(c.Request().Context(), c.Param("key"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, AuditResponse{Entries: entries})
}
