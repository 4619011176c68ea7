package server

import (
	"net/http"

	"github.com/existflow/projectdraft/internal/model"
	"github.com/labstack/echo/v4"
)

// SaveDraftRequest is the autosave payload
type SaveDraftRequest struct {
	ID       string                 `json:"id"` // optional, must match the caller
	Revision int64                  `json:"revision" validate:"gte=0"`
	Data     *model.ProjectFormData `json:"data" validate:"required"`
}

// DraftResponse wraps a draft that may be null
type DraftResponse struct {
	Draft *model.Draft `json:"draft"`
}

// handleSaveDraft upserts the caller's draft
func (s *Server) handleSaveDraft(c echo.Context) error {
	var req SaveDraftRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request: " + err.Error()})
	}

	owner := userID(c)
	if req.ID != "" && req.ID != owner {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "cannot write another owner's draft"})
	}

	if err := s.svc.SaveDraft(c.Request().Context(), owner, req.Revision, *req.Data); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// handleGetDraft returns the editable draft of :id, which must be the caller
func (s *Server) handleGetDraft(c echo.Context) error {
	id := c.Param("id")
	if id != userID(c) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "cannot read another owner's draft"})
	}
	return s.respondDraft(c, id)
}

func (s *Server) handleGetOwnDraft(c echo.Context) error {
	return s.respondDraft(c, userID(c))
}

func (s *Server) respondDraft(c echo.Context, owner string) error {
	d, err := s.svc.Load(c.Request().Context(), owner)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, DraftResponse{Draft: d})
}
