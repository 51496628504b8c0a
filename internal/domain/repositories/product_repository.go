package repositories

import (
	"context"

	"github.com/google/uuid"
	"rete.backend/internal/domain/entities"
)

// ProductRepository reads marketplace listings
type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Product, error)
}
