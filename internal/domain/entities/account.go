package entities

import (
	"time"

	"github.com/google/uuid"
)

// AccountRole represents the role an account holds in its community
type AccountRole string

const (
	AccountRoleAdmin       AccountRole = "ADMIN"
	AccountRoleCoordinator AccountRole = "COORDINATOR"
	AccountRoleMember      AccountRole = "MEMBER"
	AccountRoleProvider    AccountRole = "PROVIDER"
)

// Account represents a community participant with a cached token balance.
// Provider balances are never stored here; see ProviderBalance.
type Account struct {
	ID            uuid.UUID   `json:"id"`
	Email         string      `json:"email"`
	Name          string      `json:"name"`
	Role          AccountRole `json:"role"`
	CommunityID   uuid.UUID   `json:"communityId"`
	WalletAddress string      `json:"walletAddress"`
	Balance       int64       `json:"balance"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// IsProvider reports whether the account's balance is derived from history.
func (a *Account) IsProvider() bool {
	return a.Role == AccountRoleProvider
}

// CanCoordinate reports whether the account may mint or burn for communityID.
func (a *Account) CanCoordinate(communityID uuid.UUID) bool {
	if a.Role == AccountRoleAdmin {
		return true
	}
	return a.Role == AccountRoleCoordinator && a.CommunityID == communityID
}
