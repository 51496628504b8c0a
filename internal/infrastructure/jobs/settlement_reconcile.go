package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"rete.backend/internal/domain/entities"
	"rete.backend/pkg/logger"
)

const (
	DefaultReconcileInterval = time.Minute
	DefaultReconcileBatch    = 100
)

// SettlementReconciler resolves PENDING settlements against the chain
type SettlementReconciler interface {
	ReconcilePending(ctx context.Context, policy entities.ReconcilePolicy, limit int) ([]*entities.ReconcileResult, error)
}

// SettlementReconcileJob periodically reconciles stale PENDING settlements
type SettlementReconcileJob struct {
	reconciler SettlementReconciler
	policy     entities.ReconcilePolicy
	batch      int
	interval   time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
}

func NewSettlementReconcileJob(reconciler SettlementReconciler, policy entities.ReconcilePolicy, interval time.Duration, batch int) *SettlementReconcileJob {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	if batch <= 0 {
		batch = DefaultReconcileBatch
	}
	if !policy.Valid() {
		policy = entities.ReconcilePolicyLeavePending
	}
	return &SettlementReconcileJob{
		reconciler: reconciler,
		policy:     policy,
		batch:      batch,
		interval:   interval,
		stop:       make(chan struct{}),
	}
}

// Start blocks until ctx is cancelled or Stop is called.
func (j *SettlementReconcileJob) Start(ctx context.Context) {
	logger.Info(ctx, "Starting settlement reconcile job",
		zap.Duration("interval", j.interval),
		zap.String("policy", string(j.policy)),
	)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Settlement reconcile job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Settlement reconcile job stopped")
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *SettlementReconcileJob) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
}

func (j *SettlementReconcileJob) runOnce(ctx context.Context) {
	results, err := j.reconciler.ReconcilePending(ctx, j.policy, j.batch)
	if err != nil {
		logger.Error(ctx, "Failed to reconcile pending settlements", zap.Error(err))
		return
	}
	if len(results) == 0 {
		return
	}

	counts := map[entities.ReconcileOutcome]int{}
	for _, r := range results {
		counts[r.Outcome]++
	}
	logger.Info(ctx, "Reconciled pending settlements",
		zap.Int("total", len(results)),
		zap.Int("completed", counts[entities.ReconcileOutcomeCompleted]),
		zap.Int("failed", counts[entities.ReconcileOutcomeFailed]),
		zap.Int("unchanged", counts[entities.ReconcileOutcomeUnchanged]),
	)
}
