package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/colrun/packages/server"
)

var (
	serveEnvFlags    environmentFlags
	serveAddrFlag    string
	serveOriginsFlag []string
	serveRevealFlag  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve [collection]",
	Short: "Serve a collection over HTTP",
	Long: `Start an HTTP API that lists the collection items and runs selected
items on request. Runs without an environment in the request body use the
server's environment and keep its changes for the next run.

Endpoints:
  GET  /health       Server health
  GET  /collection   Collection info and items
  GET  /environment  Server environment, sensitive values masked
  POST /execute      Run {"selectedIndices": [...], "environment": {...}}

Examples:
  colrun serve api.json -e local.postman_environment.json
  colrun serve api.json --addr 127.0.0.1:3001 --cors-origin http://localhost:8000`,
	Args: cobra.MaximumNArgs(1),
	RunE: serveCommand,
}

func init() {
	serveEnvFlags.register(serveCmd.Flags())
	serveCmd.Flags().StringVar(&serveAddrFlag, "addr", getEnvString("COLRUN_ADDR", ""), "Address to listen on (env: COLRUN_ADDR)")
	serveCmd.Flags().StringSliceVar(&serveOriginsFlag, "cors-origin", nil, "Allowed CORS origin; repeatable, * allows any")
	serveCmd.Flags().BoolVar(&serveRevealFlag, "reveal", false, "Serve sensitive environment values unmasked")
}

func serveCommand(cmd *cobra.Command, args []string) error {
	path, err := collectionPath(args)
	if err != nil {
		return err
	}
	col, err := loadCollection(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := serveEnvFlags.load(ctx)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	addr := cfg.Server.Addr
	if serveAddrFlag != "" {
		addr = serveAddrFlag
	}
	origins := cfg.Server.CORSOrigins
	if len(serveOriginsFlag) > 0 {
		origins = serveOriginsFlag
	}

	srv, err := server.New(server.Dependencies{
		Logger:      logger,
		Runner:      newRunner(cfg.TimeoutDuration(), cfg.DelayDuration()),
		Collection:  col,
		Environment: e,
		Addr:        addr,
	},
		server.WithCORSOrigins(origins...),
		server.WithVersion(version),
		server.WithReveal(serveRevealFlag),
	)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
