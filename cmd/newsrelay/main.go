package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"NewsRelay/internal/app"
	"NewsRelay/internal/config"
	"NewsRelay/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "newsrelay",
		Short:         "Scrape, review, translate and republish content items",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "ingest [source|all]",
			Short: "Pull candidates from configured sources into the store",
			Args:  cobra.MaximumNArgs(1),
			RunE: withApp(func(ctx context.Context, a *app.Application, args []string) error {
				source := "all"
				if len(args) > 0 {
					source = args[0]
				}
				return a.Pipeline().Ingest(ctx, source)
			}),
		},
		&cobra.Command{
			Use:   "review",
			Short: "Run the review batch over pending items",
			Args:  cobra.NoArgs,
			RunE: withApp(func(ctx context.Context, a *app.Application, _ []string) error {
				return a.Pipeline().Review(ctx)
			}),
		},
		&cobra.Command{
			Use:   "translate",
			Short: "Fetch detail and translate accepted items",
			Args:  cobra.NoArgs,
			RunE: withApp(func(ctx context.Context, a *app.Application, _ []string) error {
				return a.Pipeline().Translate(ctx)
			}),
		},
		&cobra.Command{
			Use:   "publish",
			Short: "Deliver translated items to the channel",
			Args:  cobra.NoArgs,
			RunE: withApp(func(ctx context.Context, a *app.Application, _ []string) error {
				return a.Pipeline().Publish(ctx)
			}),
		},
		&cobra.Command{
			Use:   "retain",
			Short: "Sweep records beyond the retention cap",
			Args:  cobra.NoArgs,
			RunE: withApp(func(ctx context.Context, a *app.Application, _ []string) error {
				_, err := a.Pipeline().Retain(ctx)
				return err
			}),
		},
		&cobra.Command{
			Use:   "run",
			Short: "Run full pipeline cycles on the configured cron schedule",
			Args:  cobra.NoArgs,
			RunE: withApp(func(ctx context.Context, a *app.Application, _ []string) error {
				return a.RunForever(ctx)
			}),
		},
	)

	return root
}

func withApp(fn func(ctx context.Context, a *app.Application, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := config.Load()
		logger := logging.New(cfg.Logging.Level)

		application, err := app.New(cfg, logger)
		if err != nil {
			logger.Error("startup failed", "error", err)
			return err
		}
		defer application.Close()

		if err := fn(ctx, application, args); err != nil {
			logger.Error("stage failed", "command", cmd.Name(), "error", err)
			return err
		}
		return nil
	}
}
