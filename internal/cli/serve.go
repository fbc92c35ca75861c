package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"careerpath/internal/adapter/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the JSON API:
  POST /api/ask            {"question": "..."}
  POST /api/resume         multipart form: resume (file), email
  POST /api/recommend      {"skills": ["..."]}
  GET  /api/jobs/skills    ?title=...
  GET  /health`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, needs{graph: true, vectors: true, lazyLLM: true})
		if err != nil {
			return err
		}
		defer a.Close()

		serverCfg := a.cfg.Server
		if serveAddr != "" {
			serverCfg.Addr = serveAddr
		}

		srv := httpapi.New(serverCfg, a.advisorUseCase(), a.matchUseCase(), a.logger)
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}
