package usecases

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/google/uuid"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
)

// Burn destroys amount from the coordinator's own balance or from the
// community member named in input.
func (u *SettlementUsecase) Burn(ctx context.Context, callerID, communityID uuid.UUID, input *entities.BurnInput) (*entities.BurnedItem, error) {
	if input == nil || input.Amount <= 0 {
		return nil, domainerrors.Validation("amount must be greater than zero")
	}
	coordinator, err := u.requireCoordinator(ctx, callerID, communityID)
	if err != nil {
		return nil, err
	}

	holder := coordinator
	if input.AccountID != nil && *input.AccountID != coordinator.ID {
		if holder, err = u.getAccount(ctx, *input.AccountID); err != nil {
			return nil, err
		}
	}
	if holder.CommunityID != communityID {
		return nil, domainerrors.Validation("account is not a member of this community")
	}
	balance, err := u.balanceOf(ctx, holder)
	if err != nil {
		return nil, err
	}
	if balance < input.Amount {
		return nil, domainerrors.Validation(fmt.Sprintf("insufficient balance: have %d, burning %d", balance, input.Amount))
	}

	cc, err := u.loadChain(ctx, communityID)
	if err != nil {
		return nil, err
	}
	key, err := walletKey(ctx, u.wallets, u.vault, coordinator.ID)
	if err != nil {
		return nil, err
	}

	tx, err := u.burn(ctx, cc, key, holder, input.Amount)
	if err != nil {
		return nil, err
	}
	return &entities.BurnedItem{AccountID: holder.ID, Amount: input.Amount, TxHash: tx.TxHash.String, TransactionID: tx.ID}, nil
}

// BurnAll burns every non-zero balance in the community, provider balances
// included. Holders are processed in order and independently.
func (u *SettlementUsecase) BurnAll(ctx context.Context, callerID, communityID uuid.UUID) (*entities.BurnAllResult, error) {
	coordinator, err := u.requireCoordinator(ctx, callerID, communityID)
	if err != nil {
		return nil, err
	}
	cc, err := u.loadChain(ctx, communityID)
	if err != nil {
		return nil, err
	}
	key, err := walletKey(ctx, u.wallets, u.vault, coordinator.ID)
	if err != nil {
		return nil, err
	}

	holders, err := u.accounts.ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, err
	}
	history, err := u.settlements.ListCompletedByCommunity(ctx, communityID)
	if err != nil {
		return nil, err
	}

	result := &entities.BurnAllResult{
		Burned: []entities.BurnedItem{},
		Errors: []entities.ItemError{},
	}
	for _, holder := range holders {
		amount := holder.Balance
		if holder.IsProvider() {
			amount = entities.ProviderBalance(holder.ID, history)
		}
		if amount <= 0 {
			continue
		}
		tx, err := u.burn(ctx, cc, key, holder, amount)
		if err != nil {
			result.Errors = append(result.Errors, entities.ItemError{Target: holder.Email, Amount: amount, Error: err.Error()})
			continue
		}
		result.Burned = append(result.Burned, entities.BurnedItem{AccountID: holder.ID, Amount: amount, TxHash: tx.TxHash.String, TransactionID: tx.ID})
		result.TotalBurned += amount
		result.UsersAffected++
	}
	return result, nil
}

// burn runs one BurnAuthorization settlement signed by the coordinator key.
// Provider balances are derived, so only non-provider holders are debited.
func (u *SettlementUsecase) burn(ctx context.Context, cc *chainContext, key *ecdsa.PrivateKey, holder *entities.Account, amount int64) (*entities.SettlementTransaction, error) {
	if holder.WalletAddress == "" {
		return nil, domainerrors.NotFound("holder has no custodial wallet")
	}
	from := holder.ID
	tx := &entities.SettlementTransaction{
		Kind:          entities.SettlementKindBurn,
		Amount:        amount,
		FromAccountID: &from,
	}
	if err := u.begin(ctx, cc, tx); err != nil {
		return nil, err
	}

	signerAddr := addressOf(key)
	err := u.queue.Do(ctx, laneFor(key, entities.NonceKindBurn), func(ctx context.Context) error {
		wei := cc.toWei(amount)
		auth, err := u.signer.Sign(ctx, u.authorization(cc, entities.NonceKindBurn, key, holder.WalletAddress, wei, tx.AuthorizationDeadline))
		if err != nil {
			return err
		}
		hash, err := u.gateway.SubmitBurn(ctx, cc.profile, cc.relay, cc.token, signerAddr, holder.WalletAddress, wei, auth)
		if err != nil {
			return err
		}
		if err := u.submitted(ctx, tx, hash, amount); err != nil {
			return err
		}
		_, err = u.gateway.WaitForReceipt(ctx, cc.profile, hash)
		return err
	})
	if err != nil {
		u.abandon(ctx, tx, err)
		return nil, err
	}

	var effects []balanceEffect
	if !holder.IsProvider() {
		effects = append(effects, balanceEffect{accountID: holder.ID, delta: -amount})
	}
	if err := u.settle(ctx, cc.profile, tx, effects); err != nil {
		return nil, err
	}
	return tx, nil
}
