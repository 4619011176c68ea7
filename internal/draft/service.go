package draft

import (
	"context"
	"fmt"
	"time"

	"github.com/existflow/projectdraft/internal/logger"
	"github.com/existflow/projectdraft/internal/model"
	"github.com/existflow/projectdraft/internal/validation"
	"github.com/google/uuid"
)

// Role is the workflow role of the caller approving a submission
type Role string

const (
	RoleReviewer Role = "Reviewer"
	RoleApprover Role = "Approver"
)

type transition struct {
	from, to model.Status
	action   string
}

var transitions = map[Role]transition{
	RoleReviewer: {from: model.StatusSubmitted, to: model.StatusReviewed, action: model.ActionReviewed},
	RoleApprover: {from: model.StatusReviewed, to: model.StatusApproved, action: model.ActionApproved},
}

// ValidationError is returned by Submit when the draft does not pass validation
type ValidationError struct {
	Issues []validation.Issue
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("draft has %d validation issue(s)", len(e.Issues))
}

// Report is the outcome of checking form data
type Report struct {
	Valid    bool               `json:"valid"`
	Issues   []validation.Issue `json:"issues"`
	Warnings []string           `json:"warnings"`
}

// Service implements draft persistence and the submission workflow
type Service struct {
	store  Store
	engine *validation.Engine
	now    func() time.Time
}

// NewService wraps store. A nil engine uses validation.Default().
func NewService(store Store, engine *validation.Engine) *Service {
	if engine == nil {
		engine = validation.Default()
	}
	return &Service{
		store:  store,
		engine: engine,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Store returns the underlying store
func (s *Service) Store() Store {
	return s.store
}

// SaveDraft upserts the owner's draft. It satisfies autosave.Saver.
func (s *Service) SaveDraft(ctx context.Context, ownerID string, revision int64, data model.ProjectFormData) error {
	if err := s.store.Upsert(ctx, ownerID, data, revision); err != nil {
		return fmt.Errorf("save draft for %s: %w", ownerID, err)
	}
	logger.Debug("Draft saved",
		logger.F("owner", ownerID),
		logger.F("revision", revision),
		logger.F("step", data.StepName()))
	return nil
}

// Load returns the owner's editable draft or nil
func (s *Service) Load(ctx context.Context, ownerID string) (*model.Draft, error) {
	return s.store.Get(ctx, ownerID)
}

// Check validates data and derives warnings
func (s *Service) Check(data model.ProjectFormData) Report {
	return newReport(s.engine.Validate(data), data)
}

// CheckJSON is Check for an undecoded payload; numeric fields are coerced first
func (s *Service) CheckJSON(raw []byte) (Report, error) {
	data, res, err := s.engine.ValidateJSON(raw)
	if err != nil {
		return Report{}, err
	}
	return newReport(res, data), nil
}

func newReport(res validation.Result, data model.ProjectFormData) Report {
	issues := res.Issues
	if issues == nil {
		issues = []validation.Issue{}
	}
	return Report{
		Valid:    res.Valid(),
		Issues:   issues,
		Warnings: validation.Warnings(data),
	}
}

// Submit validates the owner's draft and moves it to submitted. A draft saved
// again between the check and the transition is not submitted (ErrStatusConflict).
func (s *Service) Submit(ctx context.Context, ownerID, actor string) (*model.Draft, error) {
	d, err := s.store.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNotFound
	}

	if res := s.engine.Validate(d.Data); !res.Valid() {
		return nil, &ValidationError{Issues: res.Issues}
	}

	if err := s.advance(ctx, d, transition{from: model.StatusDraft, to: model.StatusSubmitted, action: model.ActionSubmitted}, actor); err != nil {
		return nil, err
	}

	logger.Info("Draft submitted",
		logger.F("key", d.Key),
		logger.F("owner", ownerID),
		logger.F("actor", actor))
	return d, nil
}

// Approve advances a submission according to the caller's role:
// Reviewer moves submitted to reviewed, Approver moves reviewed to approved.
func (s *Service) Approve(ctx context.Context, key, actor string, role Role) (*model.Draft, error) {
	t, ok := transitions[role]
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrNotAllowed, role)
	}

	d, err := s.store.Find(ctx, key)
	if err != nil {
		return nil, err
	}
	if d.Status != t.from {
		return nil, fmt.Errorf("%w: %s cannot act on a %s draft", ErrNotAllowed, role, d.Status)
	}

	if err := s.advance(ctx, d, t, actor); err != nil {
		return nil, err
	}

	logger.Info("Draft status changed",
		logger.F("key", key),
		logger.F("status", string(d.Status)),
		logger.F("actor", actor))
	return d, nil
}

// advance applies t to d and records it in the audit trail
func (s *Service) advance(ctx context.Context, d *model.Draft, t transition, actor string) error {
	// the revision pins the data that was checked by the caller
	if err := s.store.UpdateStatus(ctx, d.Key, t.from, t.to, d.Revision); err != nil {
		return err
	}
	now := s.now()
	d.Status = t.to
	d.UpdatedAt = now

	entry := model.AuditEntry{
		ID:       uuid.New().String(),
		DraftKey: d.Key,
		OwnerID:  d.ID,
		Action:   t.action,
		Actor:    actor,
		At:       now,
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		return fmt.Errorf("status changed but audit failed: %w", err)
	}
	return nil
}

// History lists the audit entries of a draft in order
func (s *Service) History(ctx context.Context, key string) ([]model.AuditEntry, error) {
	if _, err := s.store.Find(ctx, key); err != nil {
		return nil, err
	}
	return s.store.ListAudit(ctx, key)
}
