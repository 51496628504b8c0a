package usecases

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
	"rete.backend/internal/domain/repositories"
	"rete.backend/internal/infrastructure/signer"
)

// Keys are decrypted per operation and never cached.

func decryptKey(vault KeyVault, record, what string) (*ecdsa.PrivateKey, error) {
	plain, err := vault.Decrypt(record)
	if err != nil {
		return nil, domainerrors.Crypto("failed to decrypt "+what, err)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(plain), "0x"))
	if err != nil {
		return nil, domainerrors.Crypto("invalid "+what, err)
	}
	return key, nil
}

func relayKey(vault KeyVault, profile *entities.ChainProfile) (*ecdsa.PrivateKey, error) {
	if strings.TrimSpace(profile.EncryptedAdminKey) == "" {
		return nil, domainerrors.Configuration("chain profile " + profile.Name + " has no admin key")
	}
	return decryptKey(vault, profile.EncryptedAdminKey, "admin key")
}

func walletKey(ctx context.Context, wallets repositories.WalletRepository, vault KeyVault, accountID uuid.UUID) (*ecdsa.PrivateKey, error) {
	wallet, err := wallets.GetDefaultByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("custodial wallet not found")
		}
		return nil, err
	}
	return decryptKey(vault, wallet.EncryptedPrivateKey, "wallet key")
}

func addressOf(key *ecdsa.PrivateKey) string {
	return crypto.PubkeyToAddress(key.PublicKey).Hex()
}

// laneFor is the queue lane serializing the signer's nonce counter of kind
func laneFor(key *ecdsa.PrivateKey, kind entities.NonceKind) string {
	return signer.QueueKey(crypto.PubkeyToAddress(key.PublicKey), kind)
}
