package model

import "time"

// Status is the lifecycle state of a persisted draft
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusReviewed  Status = "reviewed"
	StatusApproved  Status = "approved"
)

// LegacyDraftID is the fixed slot older clients wrote to before drafts were keyed by owner
const LegacyDraftID = "current"

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusReviewed, StatusApproved:
		return true
	}
	return false
}

// Draft is a persisted wizard snapshot owned by one user
type Draft struct {
	Key       string          `json:"key"`
	ID        string          `json:"id"` // owner id
	Status    Status          `json:"status"`
	Data      ProjectFormData `json:"data"`
	Revision  int64           `json:"revision"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// NewDraft creates a draft-status record
func NewDraft(key, ownerID string, data ProjectFormData, revision int64) Draft {
	now := time.Now().UTC()
	return Draft{
		Key:       key,
		ID:        ownerID,
		Status:    StatusDraft,
		Data:      data,
		Revision:  revision,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Editable returns true while autosave may still replace the data
func (d *Draft) Editable() bool {
	return d.Status == StatusDraft
}
