package entities

import "github.com/google/uuid"

// Product is a marketplace listing owned by a provider. Read-only here.
type Product struct {
	ID          uuid.UUID `json:"id"`
	ProviderID  uuid.UUID `json:"providerId"`
	CommunityID uuid.UUID `json:"communityId"`
	Name        string    `json:"name"`
	Price       int64     `json:"price"`
	IsAvailable bool      `json:"isAvailable"`
}
