package usecases

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
	"rete.backend/internal/domain/repositories"
)

type accountLookup struct {
	repositories.AccountRepository
}

func (accountLookup) GetByID(_ context.Context, id uuid.UUID) (*entities.Account, error) {
	return &entities.Account{ID: id}, nil
}

func TestCreateCustodialWallet_KeyGenerationFailure(t *testing.T) {
	orig := generateKey
	t.Cleanup(func() { generateKey = orig })
	generateKey = func() (*ecdsa.PrivateKey, error) {
		return nil, errors.New("entropy source unavailable")
	}

	uc := NewWalletUsecase(accountLookup{}, nil, nil, stubVault{})
	_, err := uc.CreateCustodialWallet(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domainerrors.ErrCrypto)
	assert.Equal(t, "failed to generate wallet key", err.Error())
}
