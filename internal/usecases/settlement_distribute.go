package usecases

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"strings"

	"github.com/google/uuid"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
)

// Distribute mints tokens to community members. Recipients are processed in
// order and independently: a failed recipient is reported in Errors and the
// batch continues.
func (u *SettlementUsecase) Distribute(ctx context.Context, callerID, communityID uuid.UUID, input *entities.DistributeInput) (*entities.DistributeResult, error) {
	if input == nil || len(input.Recipients) == 0 {
		return nil, domainerrors.Validation("at least one recipient is required")
	}
	for _, item := range input.Recipients {
		if strings.TrimSpace(item.Email) == "" {
			return nil, domainerrors.Validation("recipient email is required")
		}
		if item.Amount <= 0 {
			return nil, domainerrors.Validation("amount must be greater than zero")
		}
	}

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

	result := &entities.DistributeResult{
		Distributed: []entities.DistributedItem{},
		Errors:      []entities.ItemError{},
	}
	for _, item := range input.Recipients {
		recipient, err := u.distributionRecipient(ctx, communityID, item.Email)
		if err != nil {
			result.Errors = append(result.Errors, entities.ItemError{Target: item.Email, Amount: item.Amount, Error: err.Error()})
			continue
		}
		tx, err := u.mint(ctx, cc, coordinator, key, recipient, item.Amount)
		if err != nil {
			result.Errors = append(result.Errors, entities.ItemError{Target: item.Email, Amount: item.Amount, Error: err.Error()})
			continue
		}
		result.Distributed = append(result.Distributed, entities.DistributedItem{
			Email:         recipient.Email,
			AccountID:     recipient.ID,
			Amount:        item.Amount,
			TxHash:        tx.TxHash.String,
			TransactionID: tx.ID,
		})
		result.TotalDistributed += item.Amount
	}
	return result, nil
}

func (u *SettlementUsecase) distributionRecipient(ctx context.Context, communityID uuid.UUID, email string) (*entities.Account, error) {
	recipient, err := u.accounts.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("account not found")
		}
		return nil, err
	}
	if recipient.CommunityID != communityID {
		return nil, domainerrors.Validation("recipient is not a member of this community")
	}
	if recipient.IsProvider() {
		return nil, domainerrors.Validation("providers cannot receive distributions")
	}
	if recipient.WalletAddress == "" {
		return nil, domainerrors.NotFound("recipient has no custodial wallet")
	}
	return recipient, nil
}

// mint runs one MintAuthorization settlement for recipient. The nonce read,
// signature, broadcast and confirmation run inside the coordinator's MINT lane.
func (u *SettlementUsecase) mint(ctx context.Context, cc *chainContext, coordinator *entities.Account, key *ecdsa.PrivateKey, recipient *entities.Account, amount int64) (*entities.SettlementTransaction, error) {
	from, to := coordinator.ID, recipient.ID
	tx := &entities.SettlementTransaction{
		Kind:          entities.SettlementKindMint,
		Amount:        amount,
		FromAccountID: &from,
		ToAccountID:   &to,
	}
	if err := u.begin(ctx, cc, tx); err != nil {
		return nil, err
	}

	signerAddr := addressOf(key)
	err := u.queue.Do(ctx, laneFor(key, entities.NonceKindMint), func(ctx context.Context) error {
		wei := cc.toWei(amount)
		auth, err := u.signer.Sign(ctx, u.authorization(cc, entities.NonceKindMint, key, recipient.WalletAddress, wei, tx.AuthorizationDeadline))
		if err != nil {
			return err
		}
		hash, err := u.gateway.SubmitMint(ctx, cc.profile, cc.relay, cc.token, signerAddr, recipient.WalletAddress, wei, auth)
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

	if err := u.settle(ctx, cc.profile, tx, []balanceEffect{{accountID: recipient.ID, delta: amount}}); err != nil {
		return nil, err
	}
	return tx, nil
}
