package realtime

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"rete.backend/internal/domain/entities"
	"rete.backend/pkg/logger"
)

// Notifier publishes settlement and balance events. Publishing is best
// effort; failures are logged and never returned to the settlement flow.
type Notifier struct {
	broadcaster Broadcaster
}

// NewNotifier creates a notifier publishing through b
func NewNotifier(b Broadcaster) *Notifier {
	return &Notifier{broadcaster: b}
}

// TransactionEvent sends a transaction-update to both parties and the community
func (n *Notifier) TransactionEvent(ctx context.Context, view *entities.TransactionView, eventType entities.TransactionEventType) {
	if view == nil || view.SettlementTransaction == nil {
		return
	}
	tx := view.SettlementTransaction

	groups := make([]string, 0, 3)
	if tx.FromAccountID != nil {
		groups = append(groups, AccountGroup(*tx.FromAccountID))
	}
	if tx.ToAccountID != nil {
		groups = append(groups, AccountGroup(*tx.ToAccountID))
	}
	if tx.CommunityID != uuid.Nil {
		groups = append(groups, CommunityGroup(tx.CommunityID))
	}

	msg, err := NewMessage(TypeTransactionUpdate, TransactionUpdate{Transaction: view, Type: eventType})
	if err == nil {
		err = n.broadcaster.Broadcast(ctx, groups, msg)
	}
	if err != nil {
		logger.Warn(ctx, "Failed to publish transaction event",
			zap.String("settlement_id", tx.ID.String()),
			zap.String("event", string(eventType)),
			zap.Error(err),
		)
	}
}

// BalanceChanged sends a balance-update to the account's own group only
func (n *Notifier) BalanceChanged(ctx context.Context, accountID uuid.UUID, balance int64) {
	msg, err := NewMessage(TypeBalanceUpdate, BalanceUpdate{Balance: balance})
	if err == nil {
		err = n.broadcaster.Broadcast(ctx, []string{AccountGroup(accountID)}, msg)
	}
	if err != nil {
		logger.Warn(ctx, "Failed to publish balance event",
			zap.String("account_id", accountID.String()),
			zap.Error(err),
		)
	}
}
