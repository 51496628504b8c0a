package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	keyVaultSalt   = "rete-custodial-key-vault"
	keyVaultIVSize = 16
	keyVaultKeyLen = 32
	scryptN        = 16384
	scryptR        = 8
	scryptP        = 1
)

var (
	// ErrCrypto classifies every key vault failure.
	ErrCrypto = errors.New("crypto error")

	ErrMalformedRecord = fmt.Errorf("%w: malformed encrypted record", ErrCrypto)
	ErrTampered        = fmt.Errorf("%w: authentication failed", ErrCrypto)

	randomIV  = rand.Read
	deriveKey = scrypt.Key
)

// KeyVault encrypts custodial private keys at rest using AES-256-GCM.
// The symmetric key is derived once from the master secret.
type KeyVault struct {
	aead cipher.AEAD
}

// NewKeyVault derives the vault key from masterSecret.
func NewKeyVault(masterSecret string) (*KeyVault, error) {
	if strings.TrimSpace(masterSecret) == "" {
		return nil, fmt.Errorf("%w: master secret is empty", ErrCrypto)
	}

	key, err := deriveKey([]byte(masterSecret), []byte(keyVaultSalt), scryptN, scryptR, scryptP, keyVaultKeyLen)
	if err != nil {
		return nil, fmt.Errorf("%w: derive key: %v", ErrCrypto, err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, keyVaultIVSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	return &KeyVault{aead: aead}, nil
}

// Encrypt returns "iv:authTag:ciphertext", each part hex encoded.
func (v *KeyVault) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, keyVaultIVSize)
	if _, err := randomIV(iv); err != nil {
		return "", fmt.Errorf("%w: generate iv: %v", ErrCrypto, err)
	}

	sealed := v.aead.Seal(nil, iv, []byte(plaintext), nil)
	tagStart := len(sealed) - v.aead.Overhead()
	ciphertext, tag := sealed[:tagStart], sealed[tagStart:]

	return strings.Join([]string{
		hex.EncodeToString(iv),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	}, ":"), nil
}

// Decrypt reverses Encrypt. It never returns partial plaintext.
func (v *KeyVault) Decrypt(record string) (string, error) {
	parts := strings.Split(record, ":")
	if len(parts) != 3 {
		return "", ErrMalformedRecord
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != keyVaultIVSize {
		return "", ErrMalformedRecord
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != v.aead.Overhead() {
		return "", ErrMalformedRecord
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrMalformedRecord
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := v.aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", ErrTampered
	}
	return string(plaintext), nil
}
