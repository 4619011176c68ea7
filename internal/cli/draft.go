package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/existflow/projectdraft/internal/client"
	"github.com/existflow/projectdraft/internal/draft"
	"github.com/existflow/projectdraft/internal/validation"
	"github.com/spf13/cobra"
)

const requestTimeout = 30 * time.Second

// errInvalid makes the command exit non-zero after the issues were printed
var errInvalid = errors.New("draft is not valid")

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Work with saved drafts",
	Long: `Read, upload, validate and submit drafts on the server.

Examples:
  projectdraft draft get
  projectdraft draft push form.json
  projectdraft draft validate form.json
  projectdraft draft submit
  projectdraft draft approve <key> --role Reviewer
  projectdraft draft history <key>`,
}

var draftGetCmd = &cobra.Command{
	Use:   "get [owner-id]",
	Short: "Print the editable draft of an owner (default: you)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDraftGet,
}

var draftPushCmd = &cobra.Command{
	Use:   "push <file.json>",
	Short: "Upload form data as your draft",
	Args:  cobra.ExactArgs(1),
	RunE:  runDraftPush,
}

var draftValidateCmd = &cobra.Command{
	Use:   "validate <file.json>",
	Short: "Validate form data without saving it",
	Args:  cobra.ExactArgs(1),
	RunE:  runDraftValidate,
}

var draftSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit your draft for review",
	Args:  cobra.NoArgs,
	RunE:  runDraftSubmit,
}

var draftApproveCmd = &cobra.Command{
	Use:   "approve <key>",
	Short: "Review or approve a submission",
	Args:  cobra.ExactArgs(1),
	RunE:  runDraftApprove,
}

var draftHistoryCmd = &cobra.Command{
	Use:   "history <key>",
	Short: "Show the audit trail of a submission",
	Args:  cobra.ExactArgs(1),
	RunE:  runDraftHistory,
}

var (
	validateRemote bool
	approveRole    string
)

func init() {
	draftValidateCmd.Flags().BoolVar(&validateRemote, "remote", false, "Validate on the server")
	draftApproveCmd.Flags().StringVar(&approveRole, "role", string(draft.RoleReviewer), "Role to act as (Reviewer, Approver)")

	draftCmd.AddCommand(draftGetCmd)
	draftCmd.AddCommand(draftPushCmd)
	draftCmd.AddCommand(draftValidateCmd)
	draftCmd.AddCommand(draftSubmitCmd)
	draftCmd.AddCommand(draftApproveCmd)
	draftCmd.AddCommand(draftHistoryCmd)
}

func runDraftGet(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	owner := ""
	if len(args) == 1 {
		owner = args[0]
	}
	d, err := c.GetDraft(ctx, owner)
	if err != nil {
		return explain(err)
	}
	if d == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No draft saved.")
		return nil
	}
	return printJSON(cmd.OutOrStdout(), d)
}

func runDraftPush(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	data, typeIssues, err := validation.Decode(raw)
	if err != nil {
		return err
	}

	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	if err := c.SaveDraft(ctx, c.OwnerID(), time.Now().UnixNano(), data); err != nil {
		return explain(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Draft saved for %s (step: %s)\n", c.OwnerID(), data.StepName())
	if len(typeIssues) > 0 {
		fmt.Fprintf(out, "  %d numeric field(s) were not numbers and were saved as 0\n", len(typeIssues))
	}
	return nil
}

func runDraftValidate(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	var report *draft.Report
	if validateRemote {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
		defer cancel()
		if report, err = c.Validate(ctx, raw); err != nil {
			return explain(err)
		}
	} else {
		r, err := checkLocal(raw)
		if err != nil {
			return err
		}
		report = &r
	}

	printReport(cmd.OutOrStdout(), *report)
	if !report.Valid {
		return errInvalid
	}
	return nil
}

// checkLocal validates raw form data without a store
func checkLocal(raw []byte) (draft.Report, error) {
	return draft.NewService(draft.NewMemoryStore(), nil).CheckJSON(raw)
}

func runDraftSubmit(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	key, err := c.Submit(ctx)
	var verr *draft.ValidationError
	if errors.As(err, &verr) {
		printIssues(cmd.OutOrStdout(), verr.Issues)
		return errInvalid
	}
	if err != nil {
		return explain(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Submitted: %s\n", key)
	return nil
}

func runDraftApprove(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	status, err := c.Approve(ctx, args[0], draft.Role(approveRole))
	if err != nil {
		return explain(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is now %s\n", args[0], status)
	return nil
}

func runDraftHistory(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	entries, err := c.History(ctx, args[0])
	if err != nil {
		return explain(err)
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No history.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s  %-10s by %s\n", e.At.Local().Format("2006-01-02 15:04:05"), e.Action, e.Actor)
	}
	return nil
}

func printReport(w io.Writer, r draft.Report) {
	if r.Valid {
		fmt.Fprintln(w, "✓ Valid")
	} else {
		printIssues(w, r.Issues)
	}
	for _, msg := range r.Warnings {
		fmt.Fprintf(w, "⚠ %s\n", msg)
	}
}

func printIssues(w io.Writer, issues []validation.Issue) {
	fmt.Fprintf(w, "✗ %d issue(s):\n", len(issues))
	for _, is := range issues {
		fmt.Fprintf(w, "  %s\n", is)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// explain adds a hint to errors a user can act on
func explain(err error) error {
	switch {
	case client.IsUnreachable(err):
		return fmt.Errorf("%w (is the server running at %s?)", err, cfg.Client.ServerURL)
	case errors.Is(err, draft.ErrStaleRevision):
		return fmt.Errorf("%w: a newer version was saved from another session", err)
	case errors.Is(err, draft.ErrStatusConflict):
		return fmt.Errorf("%w: the draft changed while it was being processed, try again", err)
	case errors.Is(err, draft.ErrNotAllowed):
		return fmt.Errorf("%w: check --owner and --role", err)
	}
	return err
}
