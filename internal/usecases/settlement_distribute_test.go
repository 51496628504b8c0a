package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
)

func TestSettlementUsecase_Distribute_MintsAndCredits(t *testing.T) {
	f := newSettlementFixture(t)
	alice := f.addAccount(t, "alice@rete.test", entities.AccountRoleMember, 0)
	hash := txHash("a1")

	f.gateway.On("SubmitMint", mock.Anything, f.profile, mock.Anything, testTokenAddress, f.addressOf(f.coordinator), alice.WalletAddress, wei(100), mock.Anything).Return(hash, nil).Once()
	f.receipt(hash)
	f.settlements.On("Resolve", mock.Anything, mock.Anything, entities.SettlementStatusCompleted, "").Return(nil).Once()
	f.accounts.On("AdjustBalance", mock.Anything, alice.ID, int64(100)).Return(int64(100), nil).Once()

	result, err := f.uc.Distribute(context.Background(), f.coordinator.ID, f.communityID, &entities.DistributeInput{
		Recipients: []entities.DistributionItem{{Email: "alice@rete.test", Amount: 100}},
	})
	require.NoError(t, err)
	require.Len(t, result.Distributed, 1)
	assert.Empty(t, result.Errors)
	assert.Equal(t, int64(100), result.TotalDistributed)
	assert.Equal(t, hash, result.Distributed[0].TxHash)
	assert.Equal(t, alice.ID, result.Distributed[0].AccountID)

	created := f.createdRecords()
	require.Len(t, created, 1)
	tx := created[0]
	assert.Equal(t, entities.SettlementKindMint, tx.Kind)
	assert.Equal(t, entities.SettlementStatusCompleted, tx.Status)
	assert.Equal(t, hash, tx.TxHash.String)
	assert.Equal(t, f.coordinator.ID, *tx.FromAccountID)
	assert.Equal(t, alice.ID, *tx.ToAccountID)
	assert.Equal(t, f.now.Add(time.Hour), tx.AuthorizationDeadline)
	assert.Equal(t, result.Distributed[0].TransactionID, tx.ID)

	assert.Equal(t, []entities.TransactionEventType{entities.TransactionEventCreated, entities.TransactionEventCompleted}, f.eventTypes())
	f.notifier.AssertCalled(t, "BalanceChanged", mock.Anything, alice.ID, int64(100))

	require.Len(t, f.signed, 1)
	assert.Equal(t, entities.NonceKindMint, f.signed[0].Kind)
	assert.Equal(t, alice.WalletAddress, f.signed[0].Counterparty)
	assert.Equal(t, "Rete Coin", f.signed[0].TokenName)
	assert.Equal(t, tx.AuthorizationDeadline, f.signed[0].Deadline)
	f.gateway.AssertExpectations(t)
	f.accounts.AssertExpectations(t)
}

func TestSettlementUsecase_Distribute_CollectsItemErrors(t *testing.T) {
	f := newSettlementFixture(t)
	alice := f.addAccount(t, "alice@rete.test", entities.AccountRoleMember, 0)
	bob := f.addAccount(t, "bob@rete.test", entities.AccountRoleMember, 10)
	f.accounts.On("GetByEmail", mock.Anything, "unknown@x").Return(nil, domainerrors.ErrNotFound)

	f.gateway.On("SubmitMint", mock.Anything, f.profile, mock.Anything, testTokenAddress, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(txHash("b2"), nil).Twice()
	f.receipt(txHash("b2"))
	f.settlements.On("Resolve", mock.Anything, mock.Anything, entities.SettlementStatusCompleted, "").Return(nil).Twice()
	f.accounts.On("AdjustBalance", mock.Anything, alice.ID, int64(50)).Return(int64(50), nil).Once()
	f.accounts.On("AdjustBalance", mock.Anything, bob.ID, int64(25)).Return(int64(35), nil).Once()

	result, err := f.uc.Distribute(context.Background(), f.coordinator.ID, f.communityID, &entities.DistributeInput{
		Recipients: []entities.DistributionItem{
			{Email: "alice@rete.test", Amount: 50},
			{Email: "unknown@x", Amount: 10},
			{Email: "bob@rete.test", Amount: 25},
		},
	})
	require.NoError(t, err)
	assert.Len(t, result.Distributed, 2)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "unknown@x", result.Errors[0].Target)
	assert.Equal(t, "account not found", result.Errors[0].Error)
	assert.Equal(t, int64(75), result.TotalDistributed)
	assert.Equal(t, "alice@rete.test", result.Distributed[0].Email)
	assert.Equal(t, "bob@rete.test", result.Distributed[1].Email)
	f.accounts.AssertExpectations(t)
}

func TestSettlementUsecase_Distribute_RejectsBeforeAnyMutation(t *testing.T) {
	f := newSettlementFixture(t)
	member := f.addAccount(t, "member@rete.test", entities.AccountRoleMember, 0)
	ctx := context.Background()

	_, err := f.uc.Distribute(ctx, f.coordinator.ID, f.communityID, &entities.DistributeInput{
		Recipients: []entities.DistributionItem{{Email: "member@rete.test", Amount: 10}, {Email: "x@rete.test", Amount: 0}},
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)

	_, err = f.uc.Distribute(ctx, f.coordinator.ID, f.communityID, &entities.DistributeInput{})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidInput)

	_, err = f.uc.Distribute(ctx, member.ID, f.communityID, &entities.DistributeInput{
		Recipients: []entities.DistributionItem{{Email: "member@rete.test", Amount: 10}},
	})
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	other := uuid.New()
	admin := f.addAccount(t, "admin@rete.test", entities.AccountRoleAdmin, 0)
	f.tokens.On("GetByCommunityID", mock.Anything, other).Return(nil, domainerrors.ErrNotFound)
	_, err = f.uc.Distribute(ctx, admin.ID, other, &entities.DistributeInput{
		Recipients: []entities.DistributionItem{{Email: "member@rete.test", Amount: 10}},
	})
	assert.ErrorIs(t, err, domainerrors.ErrTokenNotDeployed)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	f.settlements.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.gateway.AssertNotCalled(t, "SubmitMint", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementUsecase_Distribute_RejectsProvidersAndForeignAccounts(t *testing.T) {
	f := newSettlementFixture(t)
	f.addAccount(t, "shop@rete.test", entities.AccountRoleProvider, 0)
	stranger := f.addAccount(t, "stranger@rete.test", entities.AccountRoleMember, 0)
	stranger.CommunityID = uuid.New()

	result, err := f.uc.Distribute(context.Background(), f.coordinator.ID, f.communityID, &entities.DistributeInput{
		Recipients: []entities.DistributionItem{{Email: "shop@rete.test", Amount: 5}, {Email: "stranger@rete.test", Amount: 5}},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Distributed)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0].Error, "providers")
	assert.Contains(t, result.Errors[1].Error, "not a member")
	f.settlements.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSettlementUsecase_Distribute_ChainFailureLeavesPending(t *testing.T) {
	f := newSettlementFixture(t)
	alice := f.addAccount(t, "alice@rete.test", entities.AccountRoleMember, 0)

	f.gateway.On("SubmitMint", mock.Anything, f.profile, mock.Anything, testTokenAddress, mock.Anything, alice.WalletAddress, wei(40), mock.Anything).
		Return("", domainerrors.Chain("mintWithSig failed", errors.New("execution reverted: invalid signature"))).Once()

	result, err := f.uc.Distribute(context.Background(), f.coordinator.ID, f.communityID, &entities.DistributeInput{
		Recipients: []entities.DistributionItem{{Email: "alice@rete.test", Amount: 40}},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Distributed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Error, "invalid signature")

	created := f.createdRecords()
	require.Len(t, created, 1)
	assert.Equal(t, entities.SettlementStatusPending, created[0].Status)
	assert.False(t, created[0].TxHash.Valid)
	assert.Equal(t, []entities.TransactionEventType{entities.TransactionEventCreated}, f.eventTypes())
	f.settlements.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.accounts.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementUsecase_Distribute_ConfirmationTimeoutKeepsHash(t *testing.T) {
	f := newSettlementFixture(t)
	alice := f.addAccount(t, "alice@rete.test", entities.AccountRoleMember, 0)
	hash := txHash("c3")

	f.gateway.On("SubmitMint", mock.Anything, f.profile, mock.Anything, testTokenAddress, mock.Anything, alice.WalletAddress, wei(40), mock.Anything).Return(hash, nil).Once()
	f.gateway.On("WaitForReceipt", mock.Anything, f.profile, hash).Return(nil, domainerrors.Chain("confirmation timed out", context.DeadlineExceeded)).Once()

	result, err := f.uc.Distribute(context.Background(), f.coordinator.ID, f.communityID, &entities.DistributeInput{
		Recipients: []entities.DistributionItem{{Email: "alice@rete.test", Amount: 40}},
	})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)

	created := f.createdRecords()
	require.Len(t, created, 1)
	assert.Equal(t, entities.SettlementStatusPending, created[0].Status)
	assert.Equal(t, hash, created[0].TxHash.String)
	f.settlements.AssertCalled(t, "MarkSubmitted", mock.Anything, created[0].ID, hash, int64(40))
	f.accounts.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementUsecase_Distribute_AdoptsReconciledCompletion(t *testing.T) {
	f := newSettlementFixture(t)
	alice := f.addAccount(t, "alice@rete.test", entities.AccountRoleMember, 0)
	hash := txHash("c3")

	f.gateway.On("SubmitMint", mock.Anything, f.profile, mock.Anything, testTokenAddress, mock.Anything, alice.WalletAddress, wei(100), mock.Anything).Return(hash, nil).Once()
	f.receipt(hash)
	f.settlements.On("Resolve", mock.Anything, mock.Anything, entities.SettlementStatusCompleted, "").Return(domainerrors.ErrStatusConflict).Once()
	stored := &entities.SettlementTransaction{}
	f.settlements.On("GetByID", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		*stored = *f.createdRecords()[0]
		stored.Status = entities.SettlementStatusCompleted
	}).Return(stored, nil).Once()

	result, err := f.uc.Distribute(context.Background(), f.coordinator.ID, f.communityID, &entities.DistributeInput{
		Recipients: []entities.DistributionItem{{Email: "alice@rete.test", Amount: 100}},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Distributed, 1)
	assert.Equal(t, hash, result.Distributed[0].TxHash)
	assert.Equal(t, int64(100), result.TotalDistributed)
	f.accounts.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettlementUsecase_Distribute_StatusConflictOnFailedRecord(t *testing.T) {
	f := newSettlementFixture(t)
	f.addAccount(t, "alice@rete.test", entities.AccountRoleMember, 0)
	hash := txHash("d4")

	f.gateway.On("SubmitMint", mock.Anything, f.profile, mock.Anything, testTokenAddress, mock.Anything, mock.Anything, wei(100), mock.Anything).Return(hash, nil).Once()
	f.receipt(hash)
	f.settlements.On("Resolve", mock.Anything, mock.Anything, entities.SettlementStatusCompleted, "").Return(domainerrors.ErrStatusConflict).Once()
	f.settlements.On("GetByID", mock.Anything, mock.Anything).Return(&entities.SettlementTransaction{Status: entities.SettlementStatusFailed}, nil).Once()

	result, err := f.uc.Distribute(context.Background(), f.coordinator.ID, f.communityID, &entities.DistributeInput{
		Recipients: []entities.DistributionItem{{Email: "alice@rete.test", Amount: 100}},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Distributed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "alice@rete.test", result.Errors[0].Target)
}

func TestSettlementUsecase_Distribute_RecordsHashAfterCancel(t *testing.T) {
	f := newSettlementFixture(t)
	f.addAccount(t, "alice@rete.test", entities.AccountRoleMember, 0)
	hash := txHash("e5")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.gateway.On("SubmitMint", mock.Anything, f.profile, mock.Anything, testTokenAddress, mock.Anything, mock.Anything, wei(100), mock.Anything).Run(func(mock.Arguments) {
		cancel()
	}).Return(hash, nil).Once()
	confirming := make(chan struct{})
	f.gateway.On("WaitForReceipt", mock.Anything, f.profile, hash).Run(func(mock.Arguments) {
		close(confirming)
	}).Return(nil, context.Canceled).Once()

	result, err := f.uc.Distribute(ctx, f.coordinator.ID, f.communityID, &entities.DistributeInput{
		Recipients: []entities.DistributionItem{{Email: "alice@rete.test", Amount: 100}},
	})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	select {
	case <-confirming:
	case <-time.After(time.Second):
		t.Fatal("settlement never reached confirmation")
	}

	live := mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })
	f.settlements.AssertCalled(t, "MarkSubmitted", live, f.createdRecords()[0].ID, hash, int64(100))
	assert.Equal(t, entities.SettlementStatusPending, f.createdRecords()[0].Status)
	f.settlements.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
