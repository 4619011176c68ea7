package cli

import (
	"fmt"
	"os/user"

	"github.com/existflow/projectdraft/internal/client"
	"github.com/existflow/projectdraft/internal/config"
	"github.com/existflow/projectdraft/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfgPath    string
	logLevel   string
	logFile    string
	logConsole bool
	ownerFlag  string
	serverFlag string

	// cfg is loaded before any command runs
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "projectdraft",
	Short: "ProjectDraft - project form drafts with autosave",
	Long: `ProjectDraft keeps project-form drafts saved while you edit them,
validates them and moves them through review and approval.

Run 'projectdraft' without arguments to launch the wizard.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var loaded *config.Config
		var err error
		if cfgPath != "" {
			loaded, err = config.LoadFile(cfgPath)
		} else {
			loaded, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded

		// Override with CLI flags if provided
		configChanged := false
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
			configChanged = true
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFile = logFile
			configChanged = true
		}
		if cmd.Flags().Changed("log-console") {
			cfg.LogConsole = logConsole
			configChanged = true
		}
		if cmd.Flags().Changed("server") {
			cfg.Client.ServerURL = serverFlag
		}
		if cmd.Flags().Changed("owner") {
			cfg.Client.OwnerID = ownerFlag
		}

		// Logging flags are remembered
		if configChanged {
			if err := cfg.Save(cfgPath); err != nil {
				logger.Warn("Failed to save config", logger.F("error", err))
			}
		}

		logConfig := logger.Config{
			Level:      logger.ParseLevel(cfg.LogLevel),
			FilePath:   cfg.LogFile,
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxAge:     7,
			MaxBackups: 5,
			Console:    cfg.LogConsole,
		}
		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Info("ProjectDraft started", logger.F("command", cmd.Name()))
		return nil
	},
	RunE: runWizard,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("ProjectDraft exiting", logger.F("command", cmd.Name()))
		logger.Close()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (default ~/.projectdraft/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")
	rootCmd.PersistentFlags().StringVar(&ownerFlag, "owner", "", "Owner id sent as X-User-ID")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Server URL")

	rootCmd.Flags().BoolVar(&wizardLocal, "local", false, "Save to the configured store instead of the server")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(wizardCmd)
	rootCmd.AddCommand(keygenCmd)
}

// resolveOwner picks the owner id from --owner, the config, then the login name
func resolveOwner(c *config.Config) (string, error) {
	if c.Client.OwnerID != "" {
		return c.Client.OwnerID, nil
	}
	u, err := user.Current()
	if err != nil || u.Username == "" {
		return "", fmt.Errorf("no owner id: pass --owner or set client.owner_id")
	}
	return u.Username, nil
}

// newClient builds an API client for the resolved owner
func newClient() (*client.Client, error) {
	owner, err := resolveOwner(cfg)
	if err != nil {
		return nil, err
	}
	return client.New(cfg.Client.ServerURL, owner), nil
}
