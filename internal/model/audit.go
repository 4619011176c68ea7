package model

import "time"

// Audit actions
const (
	ActionSubmitted = "submitted"
	ActionReviewed  = "reviewed"
	ActionApproved  = "approved"
)

// AuditEntry records one workflow transition of a draft
type AuditEntry struct {
	ID       string    `json:"id"`
	DraftKey string    `json:"draftKey"`
	OwnerID  string    `json:"ownerId"`
	Action   string    `json:"action"`
	Actor    string    `json:"actor"`
	At       time.Time `json:"at"`
}
