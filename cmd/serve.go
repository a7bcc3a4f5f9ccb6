package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/legal-harvester/internal/api"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/logger"
	"github.com/jonesrussell/north-cloud/legal-harvester/internal/scheduler"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			d, err := newDeps(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			return serve(ctx, d)
		},
	}
}

func serve(ctx context.Context, d *deps) error {
	sched, err := scheduler.New(d.Config.Scheduler.Spec, d.Harvester, d.Logger)
	if err != nil {
		return err
	}
	if err = sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	d.Logger.Info("Legal harvester started",
		logger.String("version", Version),
		logger.Strings("sources", d.Harvester.Enabled()),
	)

	router := api.NewRouter(d.Registry, d.Harvester, d.Metrics.Handler(), d.Logger)
	return api.Serve(ctx, d.Config.Server.Address, router, d.Logger)
}
