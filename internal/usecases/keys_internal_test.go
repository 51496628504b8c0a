package usecases

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
)

type stubVault struct {
	plain string
	err   error
}

func (v stubVault) Encrypt(plaintext string) (string, error) { return plaintext, v.err }
func (v stubVault) Decrypt(string) (string, error)           { return v.plain, v.err }

func TestDecryptKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	raw := hex.EncodeToString(crypto.FromECDSA(key))

	got, err := decryptKey(stubVault{plain: "0x" + raw + "\n"}, "record", "wallet key")
	require.NoError(t, err)
	assert.Equal(t, addressOf(key), addressOf(got))

	_, err = decryptKey(stubVault{err: errors.New("cipher: message authentication failed")}, "record", "wallet key")
	assert.ErrorIs(t, err, domainerrors.ErrCrypto)
	assert.Equal(t, "failed to decrypt wallet key", err.Error())

	_, err = decryptKey(stubVault{plain: "not-hex"}, "record", "admin key")
	assert.ErrorIs(t, err, domainerrors.ErrCrypto)
	assert.Equal(t, "invalid admin key", err.Error())
}

func TestRelayKey_RequiresConfiguredKey(t *testing.T) {
	_, err := relayKey(stubVault{}, &entities.ChainProfile{Name: "base-sepolia"})
	assert.ErrorIs(t, err, domainerrors.ErrConfiguration)
}
