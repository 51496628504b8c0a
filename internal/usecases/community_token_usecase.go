package usecases

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
	"rete.backend/internal/domain/repositories"
	"rete.backend/pkg/logger"
)

// CommunityTokenUsecase deploys and inspects community token contracts
type CommunityTokenUsecase struct {
	accounts       repositories.AccountRepository
	wallets        repositories.WalletRepository
	tokens         repositories.CommunityTokenRepository
	profiles       repositories.ChainProfileRepository
	gateway        ChainGateway
	vault          KeyVault
	defaultChainID int64
}

// NewCommunityTokenUsecase creates a new community token usecase.
// defaultChainID selects the chain profile when a deploy request names none.
func NewCommunityTokenUsecase(
	accounts repositories.AccountRepository,
	wallets repositories.WalletRepository,
	tokens repositories.CommunityTokenRepository,
	profiles repositories.ChainProfileRepository,
	gateway ChainGateway,
	vault KeyVault,
	defaultChainID int64,
) *CommunityTokenUsecase {
	return &CommunityTokenUsecase{
		accounts:       accounts,
		wallets:        wallets,
		tokens:         tokens,
		profiles:       profiles,
		gateway:        gateway,
		vault:          vault,
		defaultChainID: defaultChainID,
	}
}

// Deploy creates the community's token through the profile's factory. The
// caller's default wallet owns the contract and the relay wallet is its
// admin spender.
func (u *CommunityTokenUsecase) Deploy(ctx context.Context, callerID, communityID uuid.UUID, input *entities.DeployTokenInput) (*entities.CommunityToken, error) {
	if input == nil || strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Symbol) == "" {
		return nil, domainerrors.Validation("token name and symbol are required")
	}
	if err := u.requireCoordinator(ctx, callerID, communityID); err != nil {
		return nil, err
	}

	existing, err := u.tokens.GetByCommunityID(ctx, communityID)
	if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.IsDeployed() {
		return nil, domainerrors.Conflict("community token already deployed")
	}

	profile, err := u.profileFor(ctx, input.ChainProfileID)
	if err != nil {
		return nil, err
	}
	relay, err := relayKey(u.vault, profile)
	if err != nil {
		return nil, err
	}
	owner, err := u.wallets.GetDefaultByAccountID(ctx, callerID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("custodial wallet not found")
		}
		return nil, err
	}

	name, symbol := strings.TrimSpace(input.Name), strings.ToUpper(strings.TrimSpace(input.Symbol))
	address, txHash, err := u.gateway.CreateToken(ctx, profile, relay, name, symbol, owner.Address, addressOf(relay))
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, domainerrors.Chain("token creation event not found in receipt "+txHash, nil)
	}

	token := &entities.CommunityToken{
		CommunityID:    communityID,
		ChainProfileID: profile.ID,
		TokenAddress:   null.StringFrom(*address),
		Name:           name,
		Symbol:         symbol,
	}
	if existing != nil {
		token.ID = existing.ID
	}
	if err := u.tokens.Save(ctx, token); err != nil {
		return nil, err
	}

	logger.Info(ctx, "Community token deployed",
		zap.String("community_id", communityID.String()),
		zap.String("token_address", *address),
		zap.String("tx_hash", txHash),
		zap.String("chain", profile.CAIP2ID()),
	)
	return token, nil
}

// GetTokenInfo returns the community's token record and, once deployed, its
// on-chain metadata.
func (u *CommunityTokenUsecase) GetTokenInfo(ctx context.Context, communityID uuid.UUID) (*entities.TokenInfo, error) {
	token, err := u.tokens.GetByCommunityID(ctx, communityID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.TokenNotDeployed()
		}
		return nil, err
	}
	profile, err := u.profiles.GetByID(ctx, token.ChainProfileID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("chain profile not found")
		}
		return nil, err
	}

	info := &entities.TokenInfo{Token: token, Chain: profile.CAIP2ID()}
	if !token.IsDeployed() {
		return info, nil
	}
	meta, err := u.gateway.TokenMetadata(ctx, profile, token.TokenAddress.String)
	if err != nil {
		return nil, err
	}
	info.Metadata = meta
	return info, nil
}

// Reset clears the community's token address so a new token can be deployed.
// Settlement history is kept.
func (u *CommunityTokenUsecase) Reset(ctx context.Context, callerID, communityID uuid.UUID) error {
	if err := u.requireCoordinator(ctx, callerID, communityID); err != nil {
		return err
	}
	if err := u.tokens.ResetAddress(ctx, communityID); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.TokenNotDeployed()
		}
		return err
	}
	logger.Warn(ctx, "Community token reset", zap.String("community_id", communityID.String()))
	return nil
}

func (u *CommunityTokenUsecase) requireCoordinator(ctx context.Context, callerID, communityID uuid.UUID) error {
	caller, err := u.accounts.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.NotFound("account not found")
		}
		return err
	}
	if !caller.CanCoordinate(communityID) {
		return domainerrors.Forbidden("only the community coordinator can manage the token")
	}
	return nil
}

func (u *CommunityTokenUsecase) profileFor(ctx context.Context, id *uuid.UUID) (*entities.ChainProfile, error) {
	var (
		profile *entities.ChainProfile
		err     error
	)
	if id != nil && *id != uuid.Nil {
		profile, err = u.profiles.GetByID(ctx, *id)
	} else {
		profile, err = u.profiles.GetByChainID(ctx, u.defaultChainID)
	}
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("chain profile not found")
		}
		return nil, err
	}
	return profile, nil
}
