package entities

import "github.com/google/uuid"

// ProviderBalance derives a provider's balance from settlement history:
// completed purchases credited to the provider minus completed burns taken
// from the provider. Pending and failed records are ignored.
func ProviderBalance(providerID uuid.UUID, history []*SettlementTransaction) int64 {
	var balance int64
	for _, tx := range history {
		if tx == nil || tx.Status != SettlementStatusCompleted {
			continue
		}
		switch tx.Kind {
		case SettlementKindPurchase:
			if tx.ToAccountID != nil && *tx.ToAccountID == providerID {
				balance += tx.EffectiveAmount()
			}
		case SettlementKindBurn:
			if tx.FromAccountID != nil && *tx.FromAccountID == providerID {
				balance -= tx.EffectiveAmount()
			}
		}
	}
	return balance
}
