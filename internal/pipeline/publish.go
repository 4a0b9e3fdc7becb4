package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"pixship/internal/dispatch"
	"pixship/internal/logging"
	"pixship/internal/services"
	"pixship/internal/vcs"
)

// publish stages, commits and pushes the repository, then optionally sends
// the deployment signal. Every failure is downgraded to a warning.
func (r *Runner) publish(ctx context.Context, logger *slog.Logger, report *Report) Outcome {
	ctx = services.WithStage(ctx, "publish")
	logger = logging.WithContext(ctx, r.logger)
	pub := r.deps.Publisher

	if err := pub.AddAll(ctx); err != nil {
		r.publishWarning(ctx, logger, report, "git add failed", "commit_failed", err)
		return OutcomeCommitFailed
	}

	if err := pub.Commit(ctx, r.cfg.CommitMessage(report.Converted)); err != nil {
		if errors.Is(err, vcs.ErrNothingToCommit) {
			logger.Info("nothing to commit")
			return OutcomeNothingToCommit
		}
		r.publishWarning(ctx, logger, report, "git commit failed", "commit_failed", err)
		return OutcomeCommitFailed
	}
	logger.Info("committed", logging.Int("images", report.Converted))

	force := r.cfg.SignalEnabled()
	if err := pub.Push(ctx, force); err != nil {
		r.publishWarning(ctx, logger, report, "git push failed", "push_failed", err)
		return OutcomePushFailed
	}
	logger.Info("pushed",
		logging.String("remote", r.cfg.Publish.Remote),
		logging.String("branch", r.cfg.Publish.Branch),
		logging.Bool("force", force),
	)

	if !r.cfg.SignalEnabled() {
		return OutcomeCommittedAndPushed
	}
	return r.signal(ctx, logger, report)
}

func (r *Runner) signal(ctx context.Context, logger *slog.Logger, report *Report) Outcome {
	if r.deps.Signaler == nil {
		r.skipSignal(logger, report)
		return OutcomePushedNoSignal
	}
	err := r.deps.Signaler.Signal(services.WithStage(ctx, "signal"))
	switch {
	case err == nil:
		logger.Info("deployment signal sent")
		return OutcomePushedWithSignal
	case errors.Is(err, dispatch.ErrNoToken):
		r.skipSignal(logger, report)
		return OutcomePushedNoSignal
	default:
		r.publishWarning(ctx, logger, report, "deployment signal failed", "signal_failed", err)
		return OutcomePushedNoSignal
	}
}

func (r *Runner) skipSignal(logger *slog.Logger, report *Report) {
	report.warn("dispatch token not configured; deployment signal skipped")
	logging.WarnWithContext(logger, "deployment signal skipped", "signal_skipped",
		logging.String(logging.FieldErrorHint, "set dispatch.token or PIXSHIP_DISPATCH_TOKEN"),
		logging.String(logging.FieldImpact, "deploy workflow was not triggered"),
	)
}

func (r *Runner) publishWarning(ctx context.Context, logger *slog.Logger, report *Report, msg, eventType string, err error) {
	report.warn(msg + ": " + err.Error())
	logging.WarnWithContext(logger, msg, eventType,
		logging.Error(err),
		logging.String(logging.FieldImpact, "converted images are not yet live"),
	)
	if notifyErr := r.deps.Notifier.NotifyWarning(ctx, "publish", err); notifyErr != nil {
		logger.Debug("warning notification failed", logging.Error(notifyErr))
	}
}
