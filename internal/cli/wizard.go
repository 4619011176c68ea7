package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/projectdraft/internal/autosave"
	"github.com/existflow/projectdraft/internal/draft"
	"github.com/existflow/projectdraft/internal/logger"
	"github.com/existflow/projectdraft/internal/model"
	"github.com/existflow/projectdraft/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var wizardLocal bool

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Edit your draft in the terminal wizard",
	Long: `Open the five-step project form. Edits are saved automatically
after a short pause; ctrl+s saves immediately.

By default drafts are saved to the server. With --local they are written
straight to the store configured under storage.`,
	Args: cobra.NoArgs,
	RunE: runWizard,
}

func init() {
	wizardCmd.Flags().BoolVar(&wizardLocal, "local", false, "Save to the configured store instead of the server")
}

// wizardBackend is what the wizard needs from the server or the local store
type wizardBackend struct {
	saver  autosave.Saver
	load   func(ctx context.Context) (*model.Draft, error)
	submit tui.SubmitFunc
	close  func() error
}

func runWizard(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("the wizard needs an interactive terminal; use 'projectdraft draft push' to upload a file")
	}

	owner, err := resolveOwner(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	backend, err := openBackend(ctx, owner)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.close(); err != nil {
			logger.Warn("Failed to close draft store", logger.F("error", err))
		}
	}()

	loadCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	existing, err := backend.load(loadCtx)
	cancel()
	if err != nil {
		return explain(err)
	}
	opts := []autosave.Option{
		autosave.WithDelay(cfg.Autosave.Debounce()),
		autosave.WithSavedDisplay(cfg.Autosave.SavedDisplay()),
	}
	initial := model.InitialData()
	if existing != nil {
		initial = existing.Data
		opts = append(opts, autosave.WithBaseRevision(existing.Revision))
		logger.Info("Resuming draft", logger.F("owner", owner), logger.F("revision", existing.Revision))
	}

	coord := autosave.New(owner, backend.saver, opts...)
	defer coord.Close()

	logger.Info("Launching wizard", logger.F("owner", owner), logger.F("local", wizardLocal))
	m := tui.NewModel(owner, initial, coord, backend.submit)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", logger.F("error", err))
		return fmt.Errorf("failed to run wizard: %w", err)
	}

	// Save whatever the debounce window still holds
	flushCtx, cancelFlush := context.WithTimeout(context.Background(), requestTimeout)
	defer cancelFlush()
	if err := coord.Flush(flushCtx); err != nil {
		return fmt.Errorf("last changes were not saved: %w", explain(err))
	}

	logger.Info("Wizard exited normally")
	return nil
}

func openBackend(ctx context.Context, owner string) (*wizardBackend, error) {
	if !wizardLocal {
		c, err := newClient()
		if err != nil {
			return nil, err
		}
		return &wizardBackend{
			saver:  c,
			load:   func(ctx context.Context) (*model.Draft, error) { return c.GetDraft(ctx, "") },
			submit: c.Submit,
			close:  func() error { return nil },
		}, nil
	}

	store, err := draft.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open draft store: %w", err)
	}
	svc := draft.NewService(store, nil)
	return &wizardBackend{
		saver: svc,
		load:  func(ctx context.Context) (*model.Draft, error) { return svc.Load(ctx, owner) },
		submit: func(ctx context.Context) (string, error) {
			d, err := svc.Submit(ctx, owner, owner)
			if err != nil {
				return "", err
			}
			return d.Key, nil
		},
		close: store.Close,
	}, nil
}
