package main

import (
	"crypto/ecdsa"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
	vault "rete.backend/pkg/crypto"
)

var (
	printfFn   = fmt.Printf
	fatalfFn   = log.Fatalf
	loadDotenv = godotenv.Load
	generateFn = crypto.GenerateKey
)

const usage = `usage:
  keyvault generate            generate a key and print its encrypted record
  keyvault encrypt <hex-key>   encrypt an existing private key
  keyvault address <record>    decrypt a record and print its address

KEY_VAULT_SECRET must be set.`

// sealed is an encrypted key record with the address it controls
type sealed struct {
	Address string
	Record  string
}

func seal(v *vault.KeyVault, key *ecdsa.PrivateKey) (*sealed, error) {
	record, err := v.Encrypt(fmt.Sprintf("%x", crypto.FromECDSA(key)))
	if err != nil {
		return nil, err
	}
	return &sealed{Address: crypto.PubkeyToAddress(key.PublicKey).Hex(), Record: record}, nil
}

func run(args []string, secret string) (*sealed, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("missing command\n%s", usage)
	}
	v, err := vault.NewKeyVault(secret)
	if err != nil {
		return nil, err
	}

	switch args[0] {
	case "generate":
		key, err := generateFn()
		if err != nil {
			return nil, err
		}
		return seal(v, key)
	case "encrypt":
		if len(args) < 2 {
			return nil, fmt.Errorf("missing private key\n%s", usage)
		}
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(args[1]), "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		return seal(v, key)
	case "address":
		if len(args) < 2 {
			return nil, fmt.Errorf("missing record\n%s", usage)
		}
		plain, err := v.Decrypt(args[1])
		if err != nil {
			return nil, err
		}
		key, err := crypto.HexToECDSA(plain)
		if err != nil {
			return nil, fmt.Errorf("record does not hold a private key: %w", err)
		}
		return &sealed{Address: crypto.PubkeyToAddress(key.PublicKey).Hex(), Record: args[1]}, nil
	}
	return nil, fmt.Errorf("unknown command %q\n%s", args[0], usage)
}

func main() {
	_ = loadDotenv()

	out, err := run(os.Args[1:], os.Getenv("KEY_VAULT_SECRET"))
	if err != nil {
		fatalfFn("keyvault: %v", err)
		return
	}

	printfFn("Address: %s\n", out.Address)
	printfFn("Encrypted: %s\n", out.Record)
}
