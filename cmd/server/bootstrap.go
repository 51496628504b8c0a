package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
	"rete.backend/internal/config"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
	"rete.backend/internal/domain/repositories"
	"rete.backend/internal/usecases"
	"rete.backend/pkg/logger"
)

// seedChainProfile registers the configured chain as a profile unless one
// with the same chain ID exists. The relay key must decrypt with the vault.
func seedChainProfile(ctx context.Context, profiles repositories.ChainProfileRepository, v usecases.KeyVault, cfg config.BlockchainConfig) error {
	if cfg.AdminKeyEncrypted == "" || cfg.FactoryAddress == "" {
		logger.Warn(ctx, "Default chain profile not configured, skipping seed",
			zap.Int64("chain_id", cfg.ChainID),
		)
		return nil
	}
	if !common.IsHexAddress(cfg.FactoryAddress) {
		return domainerrors.Configuration("FACTORY_ADDRESS is not a valid address")
	}

	existing, err := profiles.GetByChainID(ctx, cfg.ChainID)
	if err == nil {
		logger.Debug(ctx, "Chain profile already registered", zap.String("profile_id", existing.ID.String()))
		return nil
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return err
	}

	plain, err := v.Decrypt(cfg.AdminKeyEncrypted)
	if err != nil {
		return domainerrors.Crypto("failed to decrypt relay key", err)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(plain, "0x"))
	if err != nil {
		return domainerrors.Crypto("relay key is not a valid private key", err)
	}

	profile := &entities.ChainProfile{
		Name:              cfg.ProfileName,
		RPCURL:            cfg.RPCURL,
		ChainID:           cfg.ChainID,
		FactoryAddress:    common.HexToAddress(cfg.FactoryAddress).Hex(),
		ExplorerURL:       cfg.ExplorerURL,
		EncryptedAdminKey: cfg.AdminKeyEncrypted,
		AdminAddress:      crypto.PubkeyToAddress(key.PublicKey).Hex(),
	}
	if err := profiles.Create(ctx, profile); err != nil {
		return fmt.Errorf("create chain profile: %w", err)
	}

	logger.Info(ctx, "Chain profile seeded",
		zap.String("profile_id", profile.ID.String()),
		zap.String("chain", profile.CAIP2ID()),
		zap.String("relay", profile.AdminAddress),
	)
	return nil
}
