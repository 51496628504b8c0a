package entities

import (
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// CommunityToken binds a community to its deployed token contract
type CommunityToken struct {
	ID             uuid.UUID   `json:"id"`
	CommunityID    uuid.UUID   `json:"communityId"`
	ChainProfileID uuid.UUID   `json:"chainProfileId"`
	TokenAddress   null.String `json:"tokenAddress"`
	Name           string      `json:"name"`
	Symbol         string      `json:"symbol"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// IsDeployed reports whether settlements may reference this token.
func (t *CommunityToken) IsDeployed() bool {
	return t.TokenAddress.Valid && t.TokenAddress.String != ""
}

// TokenMetadata is the on-chain view of a token contract.
// AdminBurnEnabled is nil when the contract does not expose the flag.
type TokenMetadata struct {
	Address          string   `json:"address"`
	Name             string   `json:"name"`
	Symbol           string   `json:"symbol"`
	Decimals         uint8    `json:"decimals"`
	TotalSupply      *big.Int `json:"totalSupply"`
	Owner            string   `json:"owner"`
	AdminSpender     string   `json:"adminSpender"`
	MintPaused       bool     `json:"mintPaused"`
	AdminBurnEnabled *bool    `json:"adminBurnEnabled,omitempty"`
}

// DeployTokenInput represents input for deploying a community token
type DeployTokenInput struct {
	Name           string     `json:"name" binding:"required,min=2,max=64"`
	Symbol         string     `json:"symbol" binding:"required,min=2,max=11"`
	ChainProfileID *uuid.UUID `json:"chainProfileId,omitempty"`
}

// TokenInfo is the community token joined with its live chain metadata
type TokenInfo struct {
	Token    *CommunityToken `json:"token"`
	Chain    string          `json:"chain"`
	Metadata *TokenMetadata  `json:"metadata,omitempty"`
}
