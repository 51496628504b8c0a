package blockchain

import (
	"fmt"
	"strings"
	"sync"

	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
)

var (
	dialProfileClient    = NewEVMClient
	beforeDialClientHook = func(string) {}
)

// ClientFactory keeps one dialed client per RPC endpoint and checks it
// against the chain profile that asked for it.
type ClientFactory struct {
	clients map[string]*EVMClient
	mu      sync.RWMutex
}

func NewClientFactory() *ClientFactory {
	return &ClientFactory{clients: make(map[string]*EVMClient)}
}

// ForProfile returns the client for profile.RPCURL, dialing it on first use.
// An endpoint serving a different chain than the profile declares is a
// configuration error.
func (f *ClientFactory) ForProfile(profile *entities.ChainProfile) (*EVMClient, error) {
	if profile == nil || strings.TrimSpace(profile.RPCURL) == "" {
		return nil, domainerrors.Configuration("chain profile has no RPC URL")
	}
	c, err := f.endpoint(profile.RPCURL)
	if err != nil {
		return nil, domainerrors.Chain("failed to connect to RPC endpoint", err)
	}
	if c.ChainID() == nil || c.ChainID().Int64() != profile.ChainID {
		return nil, domainerrors.Configuration(fmt.Sprintf("RPC endpoint reports chain id %v, profile %q expects %d", c.ChainID(), profile.Name, profile.ChainID))
	}
	return c, nil
}

func (f *ClientFactory) endpoint(rpcURL string) (*EVMClient, error) {
	f.mu.RLock()
	c, ok := f.clients[rpcURL]
	f.mu.RUnlock()
	if ok {
		return c, nil
	}

	beforeDialClientHook(rpcURL)

	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.clients[rpcURL]; ok {
		return c, nil
	}

	c, err := dialProfileClient(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	f.clients[rpcURL] = c
	return c, nil
}

// Register installs client for rpcURL, replacing any cached one.
func (f *ClientFactory) Register(rpcURL string, client *EVMClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[rpcURL] = client
}

// Close closes every cached client
func (f *ClientFactory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for url, c := range f.clients {
		c.Close()
		delete(f.clients, url)
	}
}
