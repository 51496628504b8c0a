package entities

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ChainProfile describes a target EVM chain and the relay wallet that pays gas on it
type ChainProfile struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	RPCURL            string    `json:"rpcUrl"`
	ChainID           int64     `json:"chainId"`
	FactoryAddress    string    `json:"factoryAddress"`
	ExplorerURL       string    `json:"explorerUrl,omitempty"`
	EncryptedAdminKey string    `json:"-"`
	AdminAddress      string    `json:"adminAddress"`
	CreatedAt         time.Time `json:"createdAt"`
}

// CAIP2ID returns the CAIP-2 formatted chain ID
func (p *ChainProfile) CAIP2ID() string {
	return "eip155:" + strconv.FormatInt(p.ChainID, 10)
}

// TxURL links a transaction hash to the profile's block explorer, if one is set.
func (p *ChainProfile) TxURL(hash string) string {
	if p.ExplorerURL == "" || hash == "" {
		return ""
	}
	base := p.ExplorerURL
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + "/tx/" + hash
}
