package usecases

import (
	"context"

	"github.com/google/uuid"
	"rete.backend/internal/domain/entities"
	"rete.backend/internal/domain/repositories"
)

// viewBuilder resolves counterpart display names, caching lookups across
// the settlements of one listing.
type viewBuilder struct {
	accounts repositories.AccountRepository
	products repositories.ProductRepository
	names    map[uuid.UUID]string
	product  map[uuid.UUID]string
}

func newViewBuilder(accounts repositories.AccountRepository, products repositories.ProductRepository) *viewBuilder {
	return &viewBuilder{
		accounts: accounts,
		products: products,
		names:    map[uuid.UUID]string{},
		product:  map[uuid.UUID]string{},
	}
}

func (b *viewBuilder) build(ctx context.Context, tx *entities.SettlementTransaction) *entities.TransactionView {
	view := &entities.TransactionView{SettlementTransaction: tx}
	if tx.FromAccountID != nil {
		view.FromName = b.accountName(ctx, *tx.FromAccountID)
	}
	if tx.ToAccountID != nil {
		view.ToName = b.accountName(ctx, *tx.ToAccountID)
	}
	if tx.ProductID != nil {
		view.ProductName = b.productName(ctx, *tx.ProductID)
	}
	return view
}

func (b *viewBuilder) buildAll(ctx context.Context, txs []*entities.SettlementTransaction) []*entities.TransactionView {
	out := make([]*entities.TransactionView, 0, len(txs))
	for _, tx := range txs {
		out = append(out, b.build(ctx, tx))
	}
	return out
}

func (b *viewBuilder) accountName(ctx context.Context, id uuid.UUID) string {
	if name, ok := b.names[id]; ok {
		return name
	}
	var name string
	if account, err := b.accounts.GetByID(ctx, id); err == nil {
		name = account.Name
		if name == "" {
			name = account.Email
		}
	}
	b.names[id] = name
	return name
}

func (b *viewBuilder) productName(ctx context.Context, id uuid.UUID) string {
	if name, ok := b.product[id]; ok {
		return name
	}
	var name string
	if p, err := b.products.GetByID(ctx, id); err == nil {
		name = p.Name
	}
	b.product[id] = name
	return name
}
