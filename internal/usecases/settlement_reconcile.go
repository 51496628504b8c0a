package usecases

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
	"rete.backend/pkg/logger"
)

// ReconcileTransaction resolves one PENDING settlement from the chain's view
// of its broadcast hash. Ledger effects are applied at most once: a record
// resolved concurrently reports already-resolved.
func (u *SettlementUsecase) ReconcileTransaction(ctx context.Context, id uuid.UUID, policy entities.ReconcilePolicy) (*entities.ReconcileResult, error) {
	if !policy.Valid() {
		return nil, domainerrors.Validation("unknown reconcile policy " + string(policy))
	}
	tx, err := u.settlements.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("settlement not found")
		}
		return nil, err
	}

	result, err := u.reconcile(ctx, tx, policy)
	if err != nil {
		return nil, err
	}
	u.metrics.Reconciled(string(result.Outcome))
	logger.Info(withSettlement(ctx, tx), "Settlement reconciled",
		zap.String("kind", string(tx.Kind)),
		zap.String("tx_hash", tx.TxHash.String),
		zap.String("outcome", string(result.Outcome)),
		zap.String("reason", result.Reason),
	)
	return result, nil
}

// ReconcilePending reconciles up to limit PENDING settlements older than the
// configured minimum age. Per-record errors are logged and skipped.
func (u *SettlementUsecase) ReconcilePending(ctx context.Context, policy entities.ReconcilePolicy, limit int) ([]*entities.ReconcileResult, error) {
	if !policy.Valid() {
		return nil, domainerrors.Validation("unknown reconcile policy " + string(policy))
	}
	pending, err := u.settlements.ListPending(ctx, u.now().Add(-u.cfg.ReconcileMinAge), limit)
	if err != nil {
		return nil, err
	}

	results := make([]*entities.ReconcileResult, 0, len(pending))
	for _, tx := range pending {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		result, err := u.ReconcileTransaction(ctx, tx.ID, policy)
		if err != nil {
			logger.Warn(withSettlement(ctx, tx), "Failed to reconcile settlement",
				zap.Error(err),
			)
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

func (u *SettlementUsecase) reconcile(ctx context.Context, tx *entities.SettlementTransaction, policy entities.ReconcilePolicy) (*entities.ReconcileResult, error) {
	if !tx.IsPending() {
		return resolvedResult(tx), nil
	}
	expired := !u.now().Before(tx.AuthorizationDeadline)

	if !tx.TxHash.Valid || tx.TxHash.String == "" {
		if !expired {
			return unchangedResult(tx, "not broadcast and authorization still valid"), nil
		}
		return u.failByPolicy(ctx, nil, tx, policy, "authorization expired before broadcast")
	}

	_, profile, err := u.profileFor(ctx, tx.CommunityID)
	if err != nil {
		return nil, err
	}
	state, err := u.gateway.ReceiptStatus(ctx, profile, tx.TxHash.String)
	if err != nil {
		return nil, err
	}

	switch state {
	case entities.ReceiptStateSuccess:
		effects, err := u.effectsOf(ctx, tx)
		if err != nil {
			return nil, err
		}
		if err := u.complete(ctx, profile, tx, effects); err != nil {
			if errors.Is(err, domainerrors.ErrStatusConflict) {
				return resolvedResult(tx), nil
			}
			return nil, err
		}
		return &entities.ReconcileResult{TransactionID: tx.ID, Outcome: entities.ReconcileOutcomeCompleted, Status: tx.Status}, nil
	case entities.ReceiptStateReverted:
		return u.failByPolicy(ctx, profile, tx, policy, "transaction reverted")
	default:
		if !expired {
			return unchangedResult(tx, "receipt not found yet"), nil
		}
		return u.failByPolicy(ctx, profile, tx, policy, "receipt missing after authorization deadline")
	}
}

func (u *SettlementUsecase) failByPolicy(ctx context.Context, profile *entities.ChainProfile, tx *entities.SettlementTransaction, policy entities.ReconcilePolicy, reason string) (*entities.ReconcileResult, error) {
	if policy == entities.ReconcilePolicyLeavePending {
		return unchangedResult(tx, reason), nil
	}
	if err := u.fail(ctx, profile, tx, reason); err != nil {
		if errors.Is(err, domainerrors.ErrStatusConflict) {
			return resolvedResult(tx), nil
		}
		return nil, err
	}
	return &entities.ReconcileResult{TransactionID: tx.ID, Outcome: entities.ReconcileOutcomeFailed, Status: tx.Status, Reason: reason}, nil
}

// effectsOf rebuilds the ledger effects the original request would have
// applied on completion.
func (u *SettlementUsecase) effectsOf(ctx context.Context, tx *entities.SettlementTransaction) ([]balanceEffect, error) {
	amount := tx.EffectiveAmount()
	switch tx.Kind {
	case entities.SettlementKindMint:
		if tx.ToAccountID == nil {
			return nil, nil
		}
		return []balanceEffect{{accountID: *tx.ToAccountID, delta: amount}}, nil
	case entities.SettlementKindTransfer:
		var effects []balanceEffect
		if tx.FromAccountID != nil {
			effects = append(effects, balanceEffect{accountID: *tx.FromAccountID, delta: -amount})
		}
		if tx.ToAccountID != nil {
			effects = append(effects, balanceEffect{accountID: *tx.ToAccountID, delta: amount})
		}
		return effects, nil
	case entities.SettlementKindPurchase:
		if tx.FromAccountID == nil {
			return nil, nil
		}
		return []balanceEffect{{accountID: *tx.FromAccountID, delta: -amount}}, nil
	case entities.SettlementKindBurn:
		if tx.FromAccountID == nil {
			return nil, nil
		}
		holder, err := u.getAccount(ctx, *tx.FromAccountID)
		if err != nil {
			return nil, err
		}
		if holder.IsProvider() {
			return nil, nil
		}
		return []balanceEffect{{accountID: holder.ID, delta: -amount}}, nil
	}
	return nil, domainerrors.Validation("unknown settlement kind " + string(tx.Kind))
}

func resolvedResult(tx *entities.SettlementTransaction) *entities.ReconcileResult {
	return &entities.ReconcileResult{TransactionID: tx.ID, Outcome: entities.ReconcileOutcomeResolved, Status: tx.Status}
}

func unchangedResult(tx *entities.SettlementTransaction, reason string) *entities.ReconcileResult {
	return &entities.ReconcileResult{TransactionID: tx.ID, Outcome: entities.ReconcileOutcomeUnchanged, Status: tx.Status, Reason: reason}
}
