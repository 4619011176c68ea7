// Package client talks to the draft API. It implements autosave.Saver so the
// terminal wizard can autosave over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/existflow/projectdraft/internal/draft"
	"github.com/existflow/projectdraft/internal/model"
	"github.com/existflow/projectdraft/internal/validation"
)

// Identity headers understood by the server
const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"
)

// APIError is a non-2xx response
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the error code, then the status, onto the draft package errors
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "stale_revision":
		return draft.ErrStaleRevision
	case "status_conflict":
		return draft.ErrStatusConflict
	case "not_found":
		return draft.ErrNotFound
	case "not_allowed":
		return draft.ErrNotAllowed
	}

	switch e.StatusCode {
	case http.StatusNotFound:
		return draft.ErrNotFound
	case http.StatusForbidden:
		return draft.ErrNotAllowed
	case http.StatusConflict:
		return draft.ErrStaleRevision
	default:
		return nil
	}
}

// Client is the draft API client
type Client struct {
	baseURL    string
	ownerID    string
	httpClient *http.Client
}

// New creates a client for serverURL acting as ownerID
func New(serverURL, ownerID string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(serverURL, "/"),
		ownerID:    ownerID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient replaces the underlying http.Client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// OwnerID returns the identity sent with each request
func (c *Client) OwnerID() string {
	return c.ownerID
}

func (c *Client) do(ctx context.Context, method, path, owner, role string, body interface{}, out interface{}) error {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if owner != "" {
		req.Header.Set(headerUserID, owner)
	}
	if role != "" {
		req.Header.Set(headerUserRole, role)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnprocessableEntity {
		var verr struct {
			Issues []validation.Issue `json:"issues"`
		}
		if err := json.Unmarshal(respBody, &verr); err == nil {
			return &draft.ValidationError{Issues: verr.Issues}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		msg := strings.TrimSpace(string(respBody))
		if json.Unmarshal(respBody, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Code: e.Code, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Health checks that the server is reachable
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", "", "", nil, nil)
}

// SaveDraft uploads a full snapshot. It satisfies autosave.Saver.
func (c *Client) SaveDraft(ctx context.Context, ownerID string, revision int64, data model.ProjectFormData) error {
	body := map[string]interface{}{
		"id":       ownerID,
		"revision": revision,
		"data":     data,
	}
	return c.do(ctx, http.MethodPost, "/api/v1/draft", ownerID, "", body, nil)
}

// GetDraft fetches the editable draft of ownerID, or nil when there is none.
// An empty ownerID means the client's own identity.
func (c *Client) GetDraft(ctx context.Context, ownerID string) (*model.Draft, error) {
	path := "/api/v1/draft"
	if ownerID != "" {
		path += "/" + url.PathEscape(ownerID)
	} else {
		ownerID = c.ownerID
	}

	var out struct {
		Draft *model.Draft `json:"draft"`
	}
	if err := c.do(ctx, http.MethodGet, path, ownerID, "", nil, &out); err != nil {
		return nil, err
	}
	return out.Draft, nil
}

// Validate checks a raw ProjectFormData document on the server
func (c *Client) Validate(ctx context.Context, raw []byte) (*draft.Report, error) {
	var report draft.Report
	if err := c.do(ctx, http.MethodPost, "/api/v1/validate", c.ownerID, "", raw, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Submit submits the client's draft. Invalid drafts return *draft.ValidationError.
func (c *Client) Submit(ctx context.Context) (string, error) {
	var out struct {
		Key string `json:"key"`
	}
	path := "/api/v1/draft/" + url.PathEscape(c.ownerID) + "/submit"
	if err := c.do(ctx, http.MethodPost, path, c.ownerID, "", nil, &out); err != nil {
		return "", err
	}
	return out.Key, nil
}

// Approve advances submission key acting with role
func (c *Client) Approve(ctx context.Context, key string, role draft.Role) (model.Status, error) {
	var out struct {
		NewStatus model.Status `json:"newStatus"`
	}
	path := "/api/v1/submissions/" + url.PathEscape(key) + "/approve"
	if err := c.do(ctx, http.MethodPost, path, c.ownerID, string(role), nil, &out); err != nil {
		return "", err
	}
	return out.NewStatus, nil
}

// History returns the audit trail of submission key
func (c *Client) History(ctx context.Context, key string) ([]model.AuditEntry, error) {
	var out struct {
		Entries []model.AuditEntry `json:"entries"`
	}
	path := "/api/v1/submissions/" + url.PathEscape(key) + "/audit"
	if err := c.do(ctx, http.MethodGet, path, c.ownerID, "", nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// IsUnreachable reports whether err is a transport failure rather than an API error
func IsUnreachable(err error) bool {
	var apiErr *APIError
	var verr *draft.ValidationError
	return err != nil && !errors.As(err, &apiErr) && !errors.As(err, &verr)
}
