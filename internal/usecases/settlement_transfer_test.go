package usecases_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
	"rete.backend/pkg/utils"
)

func TestSettlementUsecase_Transfer_PermitThenPull(t *testing.T) {
	f := newSettlementFixture(t)
	alice := f.addAccount(t, "alice@rete.test", entities.AccountRoleMember, 100)
	bob := f.addAccount(t, "bob@rete.test", entities.AccountRoleMember, 0)
	permitHash, pullHash := txHash("0a"), txHash("0b")

	f.gateway.On("SubmitPermit", mock.Anything, f.profile, mock.Anything, testTokenAddress, alice.WalletAddress, f.relayAddress(), wei(40), mock.Anything).Return(permitHash, nil).Once()
	f.receipt(permitHash)
	f.gateway.On("Allowance", mock.Anything, f.profile, testTokenAddress, alice.WalletAddress, f.relayAddress()).Return(utils.ToBaseUnits(40, testDecimals), nil).Once()
	f.gateway.On("SubmitTransferFrom", mock.Anything, f.profile, mock.Anything, testTokenAddress, alice.WalletAddress, bob.WalletAddress, wei(40)).Return(pullHash, nil).Once()
	f.receipt(pullHash)
	f.settlements.On("Resolve", mock.Anything, mock.Anything, entities.SettlementStatusCompleted, "").Return(nil).Once()
	f.accounts.On("AdjustBalance", mock.Anything, alice.ID, int64(-40)).Return(int64(60), nil).Once()
	f.accounts.On("AdjustBalance", mock.Anything, bob.ID, int64(40)).Return(int64(40), nil).Once()

	view, err := f.uc.Transfer(context.Background(), alice.ID, &entities.TransferInput{RecipientEmail: "bob@rete.test", Amount: 40})
	require.NoError(t, err)
	assert.Equal(t, entities.SettlementKindTransfer, view.Kind)
	assert.Equal(t, entities.SettlementStatusCompleted, view.Status)
	assert.Equal(t, pullHash, view.TxHash.String)
	assert.Equal(t, permitHash, view.PermitTxHash.String)
	assert.Equal(t, int64(40), view.SettledAmount)
	assert.Equal(t, "alice", view.FromName)
	assert.Equal(t, "bob", view.ToName)
	assert.Equal(t, "https://sepolia.basescan.org/tx/"+pullHash, view.ExplorerURL)

	require.Len(t, f.signed, 1)
	assert.Equal(t, entities.NonceKindPermit, f.signed[0].Kind)
	assert.Equal(t, f.relayAddress(), f.signed[0].Counterparty)
	f.settlements.AssertCalled(t, "MarkPermitSubmitted", mock.Anything, view.ID, permitHash)
	f.settlements.AssertCalled(t, "MarkSubmitted", mock.Anything, view.ID, pullHash, int64(40))
	f.gateway.AssertExpectations(t)
	f.accounts.AssertExpectations(t)
}

func TestSettlementUsecase_Transfer_SettlesGrantedAllowance(t *testing.T) {
	f := newSettlementFixture(t)
	alice := f.addAccount(t, "alice@rete.test", entities.AccountRoleMember, 100)
	bob := f.addAccount(t, "bob@rete.test", entities.AccountRoleMember, 0)

	f.gateway.On("SubmitPermit", mock.Anything, f.profile, mock.Anything, testTokenAddress, alice.WalletAddress, f.relayAddress(), wei(40), mock.Anything).Return(txHash("1a"), nil).Once()
	f.receipt(txHash("1a"))
	f.gateway.On("Allowance", mock.Anything, f.profile, testTokenAddress, alice.WalletAddress, f.relayAddress()).Return(utils.ToBaseUnits(25, testDecimals), nil).Once()
	f.gateway.On("SubmitTransferFrom", mock.Anything, f.profile, mock.Anything, testTokenAddress, alice.WalletAddress, bob.WalletAddress, wei(25)).Return(txHash("1b"), nil).Once()
	f.receipt(txHash("1b"))
	f.settlements.On("Resolve", mock.Anything, mock.Anything, entities.SettlementStatusCompleted, "").Return(nil).Once()
	f.accounts.On("AdjustBalance", mock.Anything, alice.ID, int64(-25)).Return(int64(75), nil).Once()
	f.accounts.On("AdjustBalance", mock.Anything, bob.ID, int64(25)).Return(int64(25), nil).Once()

	view, err := f.uc.Transfer(context.Background(), alice.ID, &entities.TransferInput{RecipientEmail: "bob@rete.test", Amount: 40})
	require.NoError(t, err)
	assert.Equal(t, int64(40), view.Amount)
	assert.Equal(t, int64(25), view.SettledAmount)
	assert.Equal(t, int64(25), view.EffectiveAmount())
	f.accounts.AssertExpectations(t)
}

func TestSettlementUsecase_Transfer_PullsWholeTokenUnits(t *testing.T) {
	f := newSettlementFixture(t)
	alice := f.addAccount(t, "alice@rete.test", entities.AccountRoleMember, 100)
	bob := f.addAccount(t, "bob@rete.test", entities.AccountRoleMember, 0)
	allowance := new(big.Int).Add(utils.ToBaseUnits(7, testDecimals), big.NewInt(5))

	f.gateway.On("SubmitPermit", mock.Anything, f.profile, mock.Anything, testTokenAddress, alice.WalletAddress, f.relayAddress(), wei(40), mock.Anything).Return(txHash("3a"), nil).Once()
	f.receipt(txHash("3a"))
	f.gateway.On("Allowance", mock.Anything, f.profile, testTokenAddress, alice.WalletAddress, f.relayAddress()).Return(allowance, nil).Once()
	f.gateway.On("SubmitTransferFrom", mock.Anything, f.profile, mock.Anything, testTokenAddress, alice.WalletAddress, bob.WalletAddress, wei(7)).Return(txHash("3b"), nil).Once()
	f.receipt(txHash("3b"))
	f.settlements.On("Resolve", mock.Anything, mock.Anything, entities.SettlementStatusCompleted, "").Return(nil).Once()
	f.accounts.On("AdjustBalance", mock.Anything, alice.ID, int64(-7)).Return(int64(93), nil).Once()
	f.accounts.On("AdjustBalance", mock.Anything, bob.ID, int64(7)).Return(int64(7), nil).Once()

	view, err := f.uc.Transfer(context.Background(), alice.ID, &entities.TransferInput{RecipientEmail: "bob@rete.test", Amount: 40})
	require.NoError(t, err)
	assert.Equal(t, int64(7), view.SettledAmount)
	f.gateway.AssertExpectations(t)
	f.accounts.AssertExpectations(t)
}

func TestSettlementUsecase_Transfer_ZeroAllowanceLeavesPending(t *testing.T) {
	f := newSettlementFixture(t)
	alice := f.addAccount(t, "alice@rete.test", entities.AccountRoleMember, 100)
	f.addAccount(t, "bob@rete.test", entities.AccountRoleMember, 0)

	f.gateway.On("SubmitPermit", mock.Anything, f.profile, mock.Anything, testTokenAddress, alice.WalletAddress, f.relayAddress(), wei(10), mock.Anything).Return(txHash("2a"), nil).Once()
	f.receipt(txHash("2a"))
	f.gateway.On("Allowance", mock.Anything, f.profile, testTokenAddress, alice.WalletAddress, f.relayAddress()).Return(utils.ToBaseUnits(0, testDecimals), nil).Once()

	_, err := f.uc.Transfer(context.Background(), alice.ID, &entities.TransferInput{RecipientEmail: "bob@rete.test", Amount: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrChain)

	created := f.createdRecords()
	require.Len(t, created, 1)
	assert.Equal(t, entities.SettlementStatusPending, created[0].Status)
	assert.Equal(t, txHash("2a"), created[0].PermitTxHash.String)
	f.gateway.AssertNotCalled(t, "SubmitTransferFrom", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.accounts.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementUsecase_Transfer_Validation(t *testing.T) {
	f := newSettlementFixture(t)
	alice := f.addAccount(t, "alice@rete.test", entities.AccountRoleMember, 100)
	f.addAccount(t, "shop@rete.test", entities.AccountRoleProvider, 0)
	stranger := f.addAccount(t, "stranger@rete.test", entities.AccountRoleMember, 0)
	stranger.CommunityID = uuid.New()
	f.addAccount(t, "bob@rete.test", entities.AccountRoleMember, 0)
	f.accounts.On("GetByEmail", mock.Anything, "nobody@rete.test").Return(nil, domainerrors.ErrNotFound)
	ctx := context.Background()

	cases := []struct {
		name  string
		input *entities.TransferInput
		want  error
	}{
		{"zero amount", &entities.TransferInput{RecipientEmail: "bob@rete.test", Amount: 0}, domainerrors.ErrInvalidInput},
		{"self", &entities.TransferInput{RecipientEmail: "alice@rete.test", Amount: 1}, domainerrors.ErrInvalidInput},
		{"unknown recipient", &entities.TransferInput{RecipientEmail: "nobody@rete.test", Amount: 1}, domainerrors.ErrNotFound},
		{"other community", &entities.TransferInput{RecipientEmail: "stranger@rete.test", Amount: 1}, domainerrors.ErrInvalidInput},
		{"provider recipient", &entities.TransferInput{RecipientEmail: "shop@rete.test", Amount: 1}, domainerrors.ErrInvalidInput},
		{"insufficient balance", &entities.TransferInput{RecipientEmail: "bob@rete.test", Amount: 101}, domainerrors.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.Transfer(ctx, alice.ID, tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	f.settlements.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSettlementUsecase_Purchase_DebitsBuyerOnly(t *testing.T) {
	f := newSettlementFixture(t)
	alice := f.addAccount(t, "alice@rete.test", entities.AccountRoleMember, 100)
	shop := f.addAccount(t, "shop@rete.test", entities.AccountRoleProvider, 0)
	product := &entities.Product{ID: uuid.New(), ProviderID: shop.ID, CommunityID: f.communityID, Name: "Bread", Price: 30, IsAvailable: true}
	f.products.On("GetByID", mock.Anything, product.ID).Return(product, nil)

	f.gateway.On("SubmitPermit", mock.Anything, f.profile, mock.Anything, testTokenAddress, alice.WalletAddress, f.relayAddress(), wei(30), mock.Anything).Return(txHash("3a"), nil).Once()
	f.receipt(txHash("3a"))
	f.gateway.On("Allowance", mock.Anything, f.profile, testTokenAddress, alice.WalletAddress, f.relayAddress()).Return(utils.ToBaseUnits(30, testDecimals), nil).Once()
	f.gateway.On("SubmitTransferFrom", mock.Anything, f.profile, mock.Anything, testTokenAddress, alice.WalletAddress, shop.WalletAddress, wei(30)).Return(txHash("3b"), nil).Once()
	f.receipt(txHash("3b"))
	f.settlements.On("Resolve", mock.Anything, mock.Anything, entities.SettlementStatusCompleted, "").Return(nil).Once()
	f.accounts.On("AdjustBalance", mock.Anything, alice.ID, int64(-30)).Return(int64(70), nil).Once()

	f.settlements.On("ListCompletedByCommunity", mock.Anything, f.communityID).Return([]*entities.SettlementTransaction{}, nil).Maybe()

	view, err := f.uc.Purchase(context.Background(), alice.ID, &entities.PurchaseInput{ProductID: product.ID})
	require.NoError(t, err)
	assert.Equal(t, entities.SettlementKindPurchase, view.Kind)
	assert.Equal(t, "Bread", view.ProductName)
	assert.Equal(t, product.ID, *view.ProductID)
	assert.Equal(t, shop.ID, *view.ToAccountID)

	f.accounts.AssertNotCalled(t, "AdjustBalance", mock.Anything, shop.ID, mock.Anything)
	f.accounts.AssertExpectations(t)
	f.notifier.AssertCalled(t, "BalanceChanged", mock.Anything, alice.ID, int64(70))
}

func TestSettlementUsecase_Purchase_Validation(t *testing.T) {
	f := newSettlementFixture(t)
	alice := f.addAccount(t, "alice@rete.test", entities.AccountRoleMember, 10)
	shop := f.addAccount(t, "shop@rete.test", entities.AccountRoleProvider, 0)
	ctx := context.Background()

	offer := func(price int64, available bool, community uuid.UUID) uuid.UUID {
		p := &entities.Product{ID: uuid.New(), ProviderID: shop.ID, CommunityID: community, Name: "Item", Price: price, IsAvailable: available}
		f.products.On("GetByID", mock.Anything, p.ID).Return(p, nil)
		return p.ID
	}
	missing := uuid.New()
	f.products.On("GetByID", mock.Anything, missing).Return(nil, domainerrors.ErrNotFound)

	_, err := f.uc.Purchase(ctx, alice.ID, &entities.PurchaseInput{ProductID: missing})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = f.uc.Purchase(ctx, alice.ID, &entities.PurchaseInput{ProductID: offer(5, false, f.communityID)})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)

	_, err = f.uc.Purchase(ctx, alice.ID, &entities.PurchaseInput{ProductID: offer(5, true, uuid.New())})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)

	_, err = f.uc.Purchase(ctx, alice.ID, &entities.PurchaseInput{ProductID: offer(11, true, f.communityID)})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)

	_, err = f.uc.Purchase(ctx, shop.ID, &entities.PurchaseInput{ProductID: offer(5, true, f.communityID)})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)

	_, err = f.uc.Purchase(ctx, alice.ID, &entities.PurchaseInput{})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)

	f.settlements.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
