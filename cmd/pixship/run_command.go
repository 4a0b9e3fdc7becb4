package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"pixship/internal/config"
	"pixship/internal/dispatch"
	"pixship/internal/encoder"
	"pixship/internal/history"
	"pixship/internal/logging"
	"pixship/internal/notifications"
	"pixship/internal/pipeline"
	"pixship/internal/preflight"
	"pixship/internal/runlock"
	"pixship/internal/vcs"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var mode string
	var skipPublish bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Convert new images, archive originals, log URLs and publish",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("mode") {
				if err := cfg.OverrideMode(mode); err != nil {
					return fmt.Errorf("--mode: %w", err)
				}
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}

			lock, err := runlock.Acquire(cfg.LockPath())
			if err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			report := preflight.RunAll(cfg, preflight.Options{SkipPublish: skipPublish})
			if blocking := report.Blocking(); len(blocking) > 0 {
				return errors.New("preflight failed:\n  " + strings.Join(blocking, "\n  "))
			}
			for _, check := range report.Checks {
				if !check.Passed {
					logging.WarnWithContext(logger, "preflight warning", "preflight_warning",
						logging.String("check", check.Name),
						logging.String("detail", check.Detail),
					)
				}
			}

			runner, closeDeps, err := buildRunner(cfg, logger)
			if err != nil {
				return err
			}
			defer closeDeps()

			result, err := runner.Run(cmd.Context(), pipeline.Options{SkipPublish: skipPublish})
			if err != nil {
				logging.ErrorWithContext(logger, "run aborted", "run_setup_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check paths.input_dir and its permissions"),
				)
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderRunSummary(cfg, result))
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Publish mode for this run (plain or forced_with_signal)")
	cmd.Flags().BoolVar(&skipPublish, "skip-publish", false, "Convert, archive and log without touching git")
	return cmd
}

func buildRunner(cfg *config.Config, logger *slog.Logger) (*pipeline.Runner, func(), error) {
	converter, err := encoder.New(cfg.Encoder)
	if err != nil {
		return nil, nil, fmt.Errorf("encoder: %w", err)
	}
	git, err := vcs.New(cfg.Paths.RepoDir, cfg.Publish.Remote, cfg.Publish.Branch)
	if err != nil {
		return nil, nil, fmt.Errorf("git: %w", err)
	}

	closer := func() {}
	var recorder history.Recorder = history.NopRecorder{}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.HistoryDBPath())
		if err != nil {
			logging.WarnWithContext(logger, "history unavailable", "history_open_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "this run will not appear in pixship history"),
			)
		} else {
			recorder = store
			closer = func() { _ = store.Close() }
		}
	}

	runner, err := pipeline.New(cfg, pipeline.Dependencies{
		Converter: converter,
		Publisher: git,
		Signaler:  dispatch.New(cfg),
		Recorder:  recorder,
		Notifier:  notifications.NewService(cfg),
		Logger:    logger,
	})
	if err != nil {
		closer()
		return nil, nil, err
	}
	return runner, closer, nil
}
