package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
	"rete.backend/internal/interfaces/http/middleware"
	"rete.backend/internal/interfaces/http/response"
	"rete.backend/internal/usecases"
)

type communityTokenService interface {
	Deploy(ctx context.Context, callerID, communityID uuid.UUID, input *entities.DeployTokenInput) (*entities.CommunityToken, error)
	GetTokenInfo(ctx context.Context, communityID uuid.UUID) (*entities.TokenInfo, error)
	Reset(ctx context.Context, callerID, communityID uuid.UUID) error
}

// TokenHandler handles community token endpoints
type TokenHandler struct {
	tokenUsecase communityTokenService
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(tokenUsecase *usecases.CommunityTokenUsecase) *TokenHandler {
	return &TokenHandler{tokenUsecase: tokenUsecase}
}

// GetToken returns the community token with its chain metadata
// GET /api/v1/communities/:communityId/token
func (h *TokenHandler) GetToken(c *gin.Context) {
	communityID, err := uuid.Parse(c.Param("communityId"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid community ID"))
		return
	}

	info, err := h.tokenUsecase.GetTokenInfo(c.Request.Context(), communityID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, info)
}

// DeployToken deploys the community token through the factory
// POST /api/v1/communities/:communityId/token
func (h *TokenHandler) DeployToken(c *gin.Context) {
	callerID, ok := middleware.GetAccountID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("account not authenticated"))
		return
	}
	communityID, err := uuid.Parse(c.Param("communityId"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid community ID"))
		return
	}

	var input entities.DeployTokenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	token, err := h.tokenUsecase.Deploy(c.Request.Context(), callerID, communityID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message": "Community token deployed",
		"token":   token,
	})
}

// ResetToken clears the deployed address so the token can be redeployed
// DELETE /api/v1/communities/:communityId/token
func (h *TokenHandler) ResetToken(c *gin.Context) {
	callerID, ok := middleware.GetAccountID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("account not authenticated"))
		return
	}
	communityID, err := uuid.Parse(c.Param("communityId"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid community ID"))
		return
	}

	if err := h.tokenUsecase.Reset(c.Request.Context(), callerID, communityID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Community token reset"})
}
