package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
)

// Transfer moves tokens between two community members through a permit
// granted to the relay wallet followed by transferFrom. Any failing step
// aborts the request and leaves the settlement PENDING.
func (u *SettlementUsecase) Transfer(ctx context.Context, senderID uuid.UUID, input *entities.TransferInput) (*entities.TransactionView, error) {
	if input == nil || input.Amount <= 0 {
		return nil, domainerrors.Validation("amount must be greater than zero")
	}
	if strings.TrimSpace(input.RecipientEmail) == "" {
		return nil, domainerrors.Validation("recipient email is required")
	}

	sender, err := u.getAccount(ctx, senderID)
	if err != nil {
		return nil, err
	}
	recipient, err := u.accounts.GetByEmail(ctx, strings.TrimSpace(input.RecipientEmail))
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("recipient not found")
		}
		return nil, err
	}
	if recipient.ID == sender.ID {
		return nil, domainerrors.Validation("cannot transfer to yourself")
	}
	if recipient.CommunityID != sender.CommunityID {
		return nil, domainerrors.Validation("recipient is not a member of your community")
	}
	if sender.IsProvider() || recipient.IsProvider() {
		return nil, domainerrors.Validation("provider balances cannot take part in peer transfers")
	}
	if recipient.WalletAddress == "" {
		return nil, domainerrors.NotFound("recipient has no custodial wallet")
	}
	if sender.Balance < input.Amount {
		return nil, domainerrors.Validation(fmt.Sprintf("insufficient balance: have %d, sending %d", sender.Balance, input.Amount))
	}

	from, to := sender.ID, recipient.ID
	tx := &entities.SettlementTransaction{
		Kind:          entities.SettlementKindTransfer,
		Amount:        input.Amount,
		FromAccountID: &from,
		ToAccountID:   &to,
	}
	return u.pull(ctx, sender, recipient.WalletAddress, tx, func(settled int64) []balanceEffect {
		return []balanceEffect{
			{accountID: sender.ID, delta: -settled},
			{accountID: recipient.ID, delta: settled},
		}
	})
}

// Purchase pays a product's provider with the permit mechanism of Transfer.
// Only the buyer's stored balance is debited; the provider's is derived.
func (u *SettlementUsecase) Purchase(ctx context.Context, buyerID uuid.UUID, input *entities.PurchaseInput) (*entities.TransactionView, error) {
	if input == nil || input.ProductID == uuid.Nil {
		return nil, domainerrors.Validation("product is required")
	}
	buyer, err := u.getAccount(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	product, err := u.products.GetByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("product not found")
		}
		return nil, err
	}
	if !product.IsAvailable || product.CommunityID != buyer.CommunityID {
		return nil, domainerrors.Validation("product is not available in your community")
	}
	if product.Price <= 0 {
		return nil, domainerrors.Validation("product has no price")
	}
	provider, err := u.getAccount(ctx, product.ProviderID)
	if err != nil {
		return nil, err
	}
	if provider.ID == buyer.ID {
		return nil, domainerrors.Validation("cannot purchase your own product")
	}
	if buyer.IsProvider() {
		return nil, domainerrors.Validation("providers cannot make purchases")
	}
	if provider.WalletAddress == "" {
		return nil, domainerrors.NotFound("provider has no custodial wallet")
	}
	if buyer.Balance < product.Price {
		return nil, domainerrors.Validation(fmt.Sprintf("insufficient balance: have %d, price %d", buyer.Balance, product.Price))
	}

	from, to, productID := buyer.ID, provider.ID, product.ID
	tx := &entities.SettlementTransaction{
		Kind:          entities.SettlementKindPurchase,
		Amount:        product.Price,
		FromAccountID: &from,
		ToAccountID:   &to,
		ProductID:     &productID,
	}
	return u.pull(ctx, buyer, provider.WalletAddress, tx, func(settled int64) []balanceEffect {
		return []balanceEffect{{accountID: buyer.ID, delta: -settled}}
	})
}

// pull signs a permit from owner to the relay wallet, submits it, reads the
// granted allowance and transfers the lesser of it and the requested amount
// to toAddress.
func (u *SettlementUsecase) pull(ctx context.Context, owner *entities.Account, toAddress string, tx *entities.SettlementTransaction, effects func(settled int64) []balanceEffect) (*entities.TransactionView, error) {
	cc, err := u.loadChain(ctx, owner.CommunityID)
	if err != nil {
		return nil, err
	}
	key, err := walletKey(ctx, u.wallets, u.vault, owner.ID)
	if err != nil {
		return nil, err
	}
	if err := u.begin(ctx, cc, tx); err != nil {
		return nil, err
	}

	ownerAddr := addressOf(key)
	spender := addressOf(cc.relay)
	err = u.queue.Do(ctx, laneFor(key, entities.NonceKindPermit), func(ctx context.Context) error {
		wei := cc.toWei(tx.Amount)
		auth, err := u.signer.Sign(ctx, u.authorization(cc, entities.NonceKindPermit, key, spender, wei, tx.AuthorizationDeadline))
		if err != nil {
			return err
		}
		permitHash, err := u.gateway.SubmitPermit(ctx, cc.profile, cc.relay, cc.token, ownerAddr, spender, wei, auth)
		if err != nil {
			return err
		}
		if err := u.settlements.MarkPermitSubmitted(context.WithoutCancel(ctx), tx.ID, permitHash); err != nil {
			return err
		}
		tx.PermitTxHash.SetValid(permitHash)
		if _, err := u.gateway.WaitForReceipt(ctx, cc.profile, permitHash); err != nil {
			return err
		}

		allowance, err := u.gateway.Allowance(ctx, cc.profile, cc.token, ownerAddr, spender)
		if err != nil {
			return err
		}
		value := wei
		if allowance.Cmp(wei) < 0 {
			value = allowance
		}
		settled := cc.fromWei(value)
		if settled <= 0 {
			return domainerrors.Chain("permit granted no allowance", nil)
		}
		value = cc.toWei(settled)

		hash, err := u.gateway.SubmitTransferFrom(ctx, cc.profile, cc.relay, cc.token, ownerAddr, toAddress, value)
		if err != nil {
			return err
		}
		if err := u.submitted(ctx, tx, hash, settled); err != nil {
			return err
		}
		_, err = u.gateway.WaitForReceipt(ctx, cc.profile, hash)
		return err
	})
	if err != nil {
		u.abandon(ctx, tx, err)
		return nil, err
	}

	if err := u.settle(ctx, cc.profile, tx, effects(tx.SettledAmount)); err != nil {
		return nil, err
	}
	view := newViewBuilder(u.accounts, u.products).build(ctx, tx)
	view.ExplorerURL = cc.profile.TxURL(tx.TxHash.String)
	return view, nil
}
