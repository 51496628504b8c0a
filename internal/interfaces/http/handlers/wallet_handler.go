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

type walletService interface {
	CreateCustodialWallet(ctx context.Context, accountID uuid.UUID) (*entities.CustodialWallet, error)
	ListWallets(ctx context.Context, accountID uuid.UUID) ([]*entities.CustodialWallet, error)
	SetDefaultWallet(ctx context.Context, accountID, walletID uuid.UUID) (*entities.CustodialWallet, error)
}

// WalletHandler handles custodial wallet endpoints
type WalletHandler struct {
	walletUsecase walletService
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(walletUsecase *usecases.WalletUsecase) *WalletHandler {
	return &WalletHandler{walletUsecase: walletUsecase}
}

// CreateWallet generates a new custodial wallet for the caller
// POST /api/v1/wallets
func (h *WalletHandler) CreateWallet(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("account not authenticated"))
		return
	}

	wallet, err := h.walletUsecase.CreateCustodialWallet(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message": "Wallet created successfully",
		"wallet":  wallet,
	})
}

// ListWallets lists wallets for the caller
// GET /api/v1/wallets
func (h *WalletHandler) ListWallets(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("account not authenticated"))
		return
	}

	wallets, err := h.walletUsecase.ListWallets(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if wallets == nil {
		wallets = []*entities.CustodialWallet{}
	}

	response.Success(c, http.StatusOK, gin.H{"wallets": wallets})
}

// SetDefaultWallet makes a wallet the caller's signing wallet
// PUT /api/v1/wallets/:id/default
func (h *WalletHandler) SetDefaultWallet(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid wallet ID"))
		return
	}

	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("account not authenticated"))
		return
	}

	wallet, err := h.walletUsecase.SetDefaultWallet(c.Request.Context(), accountID, walletID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Default wallet updated",
		"wallet":  wallet,
	})
}
