package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fsroute/fsroute/app"
	"github.com/fsroute/fsroute/config"
)

func newServeCmd() *cobra.Command {
	var configFile string
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the routes directory and static assets",
		Long: `Serve builds the route table from the configured routes directory and
starts the HTTP server. Route files without a registration are skipped
with a warning; with no routes at all a default GET / route is seeded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Server.Address = address
			}

			logger, err := cfg.Logger.Build()
			if err != nil {
				return err
			}
			defer logger.Sync()

			application, err := app.NewApp(
				app.WithConfig(cfg),
				app.WithLogger(logger),
			)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- application.Run()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				stop()
				return application.Shutdown(context.Background())
			}
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "configuration file")
	cmd.Flags().StringVarP(&address, "address", "a", "", "listen address override")

	return cmd
}
