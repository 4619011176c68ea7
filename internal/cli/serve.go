package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/existflow/projectdraft/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the draft API server",
	Long: `Run the HTTP API that stores drafts and validates them.

Examples:
  projectdraft serve
  projectdraft serve --addr :9090
  DATABASE_URL=postgres://localhost/drafts projectdraft serve`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr = serveAddr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.Run(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}
