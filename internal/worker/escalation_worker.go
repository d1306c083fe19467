package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/civic-issue-service/internal/config"
	"github.com/spec-kit/civic-issue-service/internal/repository"
	"github.com/spec-kit/civic-issue-service/internal/service"
)

// EscalationWorker periodically flags unresolved issues that have been
// sitting past the configured staleness window.
type EscalationWorker struct {
	issues       repository.IssueRepository
	issueService *service.IssueService
	cfg          config.EscalationConfig
	logger       *zap.Logger
}

// NewEscalationWorker constructs the worker.
func NewEscalationWorker(issues repository.IssueRepository, issueService *service.IssueService, cfg config.EscalationConfig, logger *zap.Logger) *EscalationWorker {
	return &EscalationWorker{
		issues:       issues,
		issueService: issueService,
		cfg:          cfg,
		logger:       logger,
	}
}

// Run sweeps on a ticker until the context is cancelled. The first sweep
// happens immediately.
func (w *EscalationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.SweepInterval())
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *EscalationWorker) sweep(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -w.cfg.StaleAfterDays)
	stale, err := w.issues.ListStaleUnresolved(ctx, cutoff)
	if err != nil {
		w.logger.Error("escalation sweep list", zap.Error(err))
		return
	}
	if len(stale) == 0 {
		return
	}

	var escalated int
	for i := range stale {
		if _, err := w.issueService.Escalate(ctx, "", stale[i].ID, "unresolved past staleness window"); err != nil {
			w.logger.Error("escalation sweep", zap.String("issue_id", stale[i].ID), zap.Error(err))
			continue
		}
		escalated++
	}
	w.logger.Info("escalation sweep complete",
		zap.Int("stale", len(stale)),
		zap.Int("escalated", escalated),
		zap.Time("cutoff", cutoff))
}
