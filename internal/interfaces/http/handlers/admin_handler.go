package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
	"rete.backend/internal/interfaces/http/response"
	"rete.backend/internal/usecases"
)

const defaultReconcileLimit = 100

type reconcileService interface {
	ReconcileTransaction(ctx context.Context, id uuid.UUID, policy entities.ReconcilePolicy) (*entities.ReconcileResult, error)
	ReconcilePending(ctx context.Context, policy entities.ReconcilePolicy, limit int) ([]*entities.ReconcileResult, error)
}

// AdminHandler handles operator endpoints
type AdminHandler struct {
	settlementUsecase reconcileService
	defaultPolicy     entities.ReconcilePolicy
}

// NewAdminHandler creates a new admin handler. defaultPolicy applies when a
// request does not name one.
func NewAdminHandler(settlementUsecase *usecases.SettlementUsecase, defaultPolicy entities.ReconcilePolicy) *AdminHandler {
	return &AdminHandler{settlementUsecase: settlementUsecase, defaultPolicy: defaultPolicy}
}

// ReconcileSettlement resolves one pending settlement against the chain
// POST /api/v1/admin/settlements/:id/reconcile?policy=mark-failed
func (h *AdminHandler) ReconcileSettlement(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid settlement ID"))
		return
	}

	result, err := h.settlementUsecase.ReconcileTransaction(c.Request.Context(), id, h.policy(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ReconcilePending reconciles a batch of stale pending settlements
// POST /api/v1/admin/settlements/reconcile?policy=leave-pending&limit=50
func (h *AdminHandler) ReconcilePending(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultReconcileLimit)))
	if err != nil || limit < 1 {
		response.Error(c, domainerrors.BadRequest("invalid limit"))
		return
	}

	results, err := h.settlementUsecase.ReconcilePending(c.Request.Context(), h.policy(c), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	if results == nil {
		results = []*entities.ReconcileResult{}
	}

	response.Success(c, http.StatusOK, gin.H{
		"results": results,
		"count":   len(results),
	})
}

func (h *AdminHandler) policy(c *gin.Context) entities.ReconcilePolicy {
	if p := c.Query("policy"); p != "" {
		return entities.ReconcilePolicy(p)
	}
	return h.defaultPolicy
}
