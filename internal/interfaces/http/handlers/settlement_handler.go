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
	"rete.backend/pkg/utils"
)

type settlementService interface {
	GetBalance(ctx context.Context, accountID uuid.UUID) (*entities.BalanceView, error)
	GetProviderBalance(ctx context.Context, callerID, communityID, providerID uuid.UUID) (*entities.BalanceView, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID, pagination utils.PaginationParams) ([]*entities.TransactionView, utils.PaginationMeta, error)
	ListPendingTransactions(ctx context.Context, accountID uuid.UUID) ([]*entities.TransactionView, error)
	Transfer(ctx context.Context, senderID uuid.UUID, input *entities.TransferInput) (*entities.TransactionView, error)
	Purchase(ctx context.Context, buyerID uuid.UUID, input *entities.PurchaseInput) (*entities.TransactionView, error)
	Distribute(ctx context.Context, callerID, communityID uuid.UUID, input *entities.DistributeInput) (*entities.DistributeResult, error)
	Burn(ctx context.Context, callerID, communityID uuid.UUID, input *entities.BurnInput) (*entities.BurnedItem, error)
	BurnAll(ctx context.Context, callerID, communityID uuid.UUID) (*entities.BurnAllResult, error)
}

// SettlementHandler handles balance and settlement endpoints
type SettlementHandler struct {
	settlementUsecase settlementService
}

// NewSettlementHandler creates a new settlement handler
func NewSettlementHandler(settlementUsecase *usecases.SettlementUsecase) *SettlementHandler {
	return &SettlementHandler{settlementUsecase: settlementUsecase}
}

// GetBalance returns the caller's balance
// GET /api/v1/balance
func (h *SettlementHandler) GetBalance(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("account not authenticated"))
		return
	}

	balance, err := h.settlementUsecase.GetBalance(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, balance)
}

// GetProviderBalance returns a provider's derived balance
// GET /api/v1/communities/:communityId/providers/:providerId/balance
func (h *SettlementHandler) GetProviderBalance(c *gin.Context) {
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
	providerID, err := uuid.Parse(c.Param("providerId"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid provider ID"))
		return
	}

	balance, err := h.settlementUsecase.GetProviderBalance(c.Request.Context(), callerID, communityID, providerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, balance)
}

// ListTransactions lists the caller's settlements, newest first
// GET /api/v1/transactions
func (h *SettlementHandler) ListTransactions(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("account not authenticated"))
		return
	}

	pagination := utils.ParsePagination(c.Query("page"), c.Query("limit"))
	items, meta, err := h.settlementUsecase.ListTransactions(c.Request.Context(), accountID, pagination)
	if err != nil {
		response.Error(c, err)
		return
	}
	if items == nil {
		items = []*entities.TransactionView{}
	}

	response.Success(c, http.StatusOK, gin.H{
		"items": items,
		"meta":  meta,
	})
}

// ListPendingTransactions lists the caller's unresolved settlements
// GET /api/v1/transactions/pending
func (h *SettlementHandler) ListPendingTransactions(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("account not authenticated"))
		return
	}

	items, err := h.settlementUsecase.ListPendingTransactions(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if items == nil {
		items = []*entities.TransactionView{}
	}

	response.Success(c, http.StatusOK, gin.H{"items": items})
}

// Transfer moves tokens from the caller to another member
// POST /api/v1/transfers
func (h *SettlementHandler) Transfer(c *gin.Context) {
	var input entities.TransferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("account not authenticated"))
		return
	}

	view, err := h.settlementUsecase.Transfer(c.Request.Context(), accountID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, view)
}

// Purchase pays a provider for a product
// POST /api/v1/purchases
func (h *SettlementHandler) Purchase(c *gin.Context) {
	var input entities.PurchaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("account not authenticated"))
		return
	}

	view, err := h.settlementUsecase.Purchase(c.Request.Context(), accountID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, view)
}

// Distribute mints tokens to community members
// POST /api/v1/communities/:communityId/distributions
func (h *SettlementHandler) Distribute(c *gin.Context) {
	callerID, communityID, ok := h.communityScope(c)
	if !ok {
		return
	}

	var input entities.DistributeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	result, err := h.settlementUsecase.Distribute(c.Request.Context(), callerID, communityID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Burn destroys tokens held by one member, the caller by default
// POST /api/v1/communities/:communityId/burns
func (h *SettlementHandler) Burn(c *gin.Context) {
	callerID, communityID, ok := h.communityScope(c)
	if !ok {
		return
	}

	var input entities.BurnInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	item, err := h.settlementUsecase.Burn(c.Request.Context(), callerID, communityID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, item)
}

// BurnAll burns every positive balance in the community
// POST /api/v1/communities/:communityId/burns/all
func (h *SettlementHandler) BurnAll(c *gin.Context) {
	callerID, communityID, ok := h.communityScope(c)
	if !ok {
		return
	}

	result, err := h.settlementUsecase.BurnAll(c.Request.Context(), callerID, communityID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

func (h *SettlementHandler) communityScope(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	callerID, ok := middleware.GetAccountID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("account not authenticated"))
		return uuid.Nil, uuid.Nil, false
	}
	communityID, err := uuid.Parse(c.Param("communityId"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid community ID"))
		return uuid.Nil, uuid.Nil, false
	}
	return callerID, communityID, true
}
