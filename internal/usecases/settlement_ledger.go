package usecases

import (
	"context"

	"github.com/google/uuid"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
	"rete.backend/pkg/utils"
)

// balanceOf returns the spendable balance of account. Provider balances are
// derived from the community's completed history.
func (u *SettlementUsecase) balanceOf(ctx context.Context, account *entities.Account) (int64, error) {
	if !account.IsProvider() {
		return account.Balance, nil
	}
	history, err := u.settlements.ListCompletedByCommunity(ctx, account.CommunityID)
	if err != nil {
		return 0, err
	}
	return entities.ProviderBalance(account.ID, history), nil
}

// GetBalance returns the ledger balance of an account
func (u *SettlementUsecase) GetBalance(ctx context.Context, accountID uuid.UUID) (*entities.BalanceView, error) {
	account, err := u.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	balance, err := u.balanceOf(ctx, account)
	if err != nil {
		return nil, err
	}
	return &entities.BalanceView{AccountID: account.ID, Balance: balance, Derived: account.IsProvider()}, nil
}

// GetProviderBalance returns the derived balance of a provider in communityID.
// The caller must belong to the community.
func (u *SettlementUsecase) GetProviderBalance(ctx context.Context, callerID, communityID, providerID uuid.UUID) (*entities.BalanceView, error) {
	caller, err := u.getAccount(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.Role != entities.AccountRoleAdmin && caller.CommunityID != communityID {
		return nil, domainerrors.Forbidden("not a member of this community")
	}
	provider, err := u.getAccount(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !provider.IsProvider() || provider.CommunityID != communityID {
		return nil, domainerrors.NotFound("provider not found in community")
	}
	return u.GetBalance(ctx, provider.ID)
}

// ListTransactions returns a page of the account's settlement history
func (u *SettlementUsecase) ListTransactions(ctx context.Context, accountID uuid.UUID, pagination utils.PaginationParams) ([]*entities.TransactionView, utils.PaginationMeta, error) {
	txs, total, err := u.settlements.ListByAccount(ctx, accountID, pagination)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	views := newViewBuilder(u.accounts, u.products).buildAll(ctx, txs)
	return views, utils.CalculateMeta(total, pagination.Page, pagination.Limit), nil
}

// ListPendingTransactions returns the account's unresolved settlements so a
// reconnecting client can catch up on events it missed.
func (u *SettlementUsecase) ListPendingTransactions(ctx context.Context, accountID uuid.UUID) ([]*entities.TransactionView, error) {
	txs, err := u.settlements.ListPendingByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return newViewBuilder(u.accounts, u.products).buildAll(ctx, txs), nil
}
