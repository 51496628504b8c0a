package usecases

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
	"rete.backend/internal/domain/repositories"
	"rete.backend/pkg/logger"
)

var generateKey = crypto.GenerateKey

// WalletUsecase manages the custodial wallets held for accounts
type WalletUsecase struct {
	accounts repositories.AccountRepository
	wallets  repositories.WalletRepository
	uow      repositories.UnitOfWork
	vault    KeyVault
}

// NewWalletUsecase creates a new wallet usecase
func NewWalletUsecase(accounts repositories.AccountRepository, wallets repositories.WalletRepository, uow repositories.UnitOfWork, vault KeyVault) *WalletUsecase {
	return &WalletUsecase{accounts: accounts, wallets: wallets, uow: uow, vault: vault}
}

// CreateCustodialWallet generates a keypair for the account and stores the
// private key as a vault record. The account's first wallet becomes its
// default and its address is mirrored on the account.
func (u *WalletUsecase) CreateCustodialWallet(ctx context.Context, accountID uuid.UUID) (*entities.CustodialWallet, error) {
	if _, err := u.accounts.GetByID(ctx, accountID); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("account not found")
		}
		return nil, err
	}

	key, err := generateKey()
	if err != nil {
		return nil, domainerrors.Crypto("failed to generate wallet key", err)
	}
	record, err := u.vault.Encrypt(hex.EncodeToString(crypto.FromECDSA(key)))
	if err != nil {
		return nil, domainerrors.Crypto("failed to encrypt wallet key", err)
	}

	wallet := &entities.CustodialWallet{
		AccountID:           accountID,
		Address:             addressOf(key),
		EncryptedPrivateKey: record,
	}
	err = u.uow.Do(ctx, func(ctx context.Context) error {
		existing, err := u.wallets.ListByAccountID(ctx, accountID)
		if err != nil {
			return err
		}
		wallet.IsDefault = len(existing) == 0
		if err := u.wallets.Create(ctx, wallet); err != nil {
			return err
		}
		if wallet.IsDefault {
			return u.accounts.UpdateWalletAddress(ctx, accountID, wallet.Address)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Custodial wallet created",
		zap.String("account_id", accountID.String()),
		zap.String("address", wallet.Address),
		zap.Bool("is_default", wallet.IsDefault),
	)
	return wallet, nil
}

// ListWallets returns the account's custodial wallets
func (u *WalletUsecase) ListWallets(ctx context.Context, accountID uuid.UUID) ([]*entities.CustodialWallet, error) {
	return u.wallets.ListByAccountID(ctx, accountID)
}

// SetDefaultWallet makes walletID the account's signing wallet
func (u *WalletUsecase) SetDefaultWallet(ctx context.Context, accountID, walletID uuid.UUID) (*entities.CustodialWallet, error) {
	wallet, err := u.wallets.GetByID(ctx, walletID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("wallet not found")
		}
		return nil, err
	}
	if wallet.AccountID != accountID {
		return nil, domainerrors.Forbidden("wallet belongs to another account")
	}

	err = u.uow.Do(ctx, func(ctx context.Context) error {
		if err := u.wallets.SetDefault(ctx, accountID, walletID); err != nil {
			return err
		}
		return u.accounts.UpdateWalletAddress(ctx, accountID, wallet.Address)
	})
	if err != nil {
		return nil, err
	}
	wallet.IsDefault = true
	return wallet, nil
}
