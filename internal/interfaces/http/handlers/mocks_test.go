package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"rete.backend/internal/domain/entities"
	"rete.backend/internal/interfaces/http/middleware"
	"rete.backend/pkg/utils"
)

type settlementServiceMock struct{ mock.Mock }

func (m *settlementServiceMock) GetBalance(ctx context.Context, accountID uuid.UUID) (*entities.BalanceView, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BalanceView), args.Error(1)
}

func (m *settlementServiceMock) GetProviderBalance(ctx context.Context, callerID, communityID, providerID uuid.UUID) (*entities.BalanceView, error) {
	args := m.Called(ctx, callerID, communityID, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BalanceView), args.Error(1)
}

func (m *settlementServiceMock) ListTransactions(ctx context.Context, accountID uuid.UUID, pagination utils.PaginationParams) ([]*entities.TransactionView, utils.PaginationMeta, error) {
	args := m.Called(ctx, accountID, pagination)
	items, _ := args.Get(0).([]*entities.TransactionView)
	return items, args.Get(1).(utils.PaginationMeta), args.Error(2)
}

func (m *settlementServiceMock) ListPendingTransactions(ctx context.Context, accountID uuid.UUID) ([]*entities.TransactionView, error) {
	args := m.Called(ctx, accountID)
	items, _ := args.Get(0).([]*entities.TransactionView)
	return items, args.Error(1)
}

func (m *settlementServiceMock) Transfer(ctx context.Context, senderID uuid.UUID, input *entities.TransferInput) (*entities.TransactionView, error) {
	args := m.Called(ctx, senderID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TransactionView), args.Error(1)
}

func (m *settlementServiceMock) Purchase(ctx context.Context, buyerID uuid.UUID, input *entities.PurchaseInput) (*entities.TransactionView, error) {
	args := m.Called(ctx, buyerID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TransactionView), args.Error(1)
}

func (m *settlementServiceMock) Distribute(ctx context.Context, callerID, communityID uuid.UUID, input *entities.DistributeInput) (*entities.DistributeResult, error) {
	args := m.Called(ctx, callerID, communityID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.DistributeResult), args.Error(1)
}

func (m *settlementServiceMock) Burn(ctx context.Context, callerID, communityID uuid.UUID, input *entities.BurnInput) (*entities.BurnedItem, error) {
	args := m.Called(ctx, callerID, communityID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BurnedItem), args.Error(1)
}

func (m *settlementServiceMock) BurnAll(ctx context.Context, callerID, communityID uuid.UUID) (*entities.BurnAllResult, error) {
	args := m.Called(ctx, callerID, communityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BurnAllResult), args.Error(1)
}

type walletServiceMock struct{ mock.Mock }

func (m *walletServiceMock) CreateCustodialWallet(ctx context.Context, accountID uuid.UUID) (*entities.CustodialWallet, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CustodialWallet), args.Error(1)
}

func (m *walletServiceMock) ListWallets(ctx context.Context, accountID uuid.UUID) ([]*entities.CustodialWallet, error) {
	args := m.Called(ctx, accountID)
	items, _ := args.Get(0).([]*entities.CustodialWallet)
	return items, args.Error(1)
}

func (m *walletServiceMock) SetDefaultWallet(ctx context.Context, accountID, walletID uuid.UUID) (*entities.CustodialWallet, error) {
	args := m.Called(ctx, accountID, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CustodialWallet), args.Error(1)
}

type tokenServiceMock struct{ mock.Mock }

func (m *tokenServiceMock) Deploy(ctx context.Context, callerID, communityID uuid.UUID, input *entities.DeployTokenInput) (*entities.CommunityToken, error) {
	args := m.Called(ctx, callerID, communityID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CommunityToken), args.Error(1)
}

func (m *tokenServiceMock) GetTokenInfo(ctx context.Context, communityID uuid.UUID) (*entities.TokenInfo, error) {
	args := m.Called(ctx, communityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TokenInfo), args.Error(1)
}

func (m *tokenServiceMock) Reset(ctx context.Context, callerID, communityID uuid.UUID) error {
	return m.Called(ctx, callerID, communityID).Error(0)
}

type reconcileServiceMock struct{ mock.Mock }

func (m *reconcileServiceMock) ReconcileTransaction(ctx context.Context, id uuid.UUID, policy entities.ReconcilePolicy) (*entities.ReconcileResult, error) {
	args := m.Called(ctx, id, policy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ReconcileResult), args.Error(1)
}

func (m *reconcileServiceMock) ReconcilePending(ctx context.Context, policy entities.ReconcilePolicy, limit int) ([]*entities.ReconcileResult, error) {
	args := m.Called(ctx, policy, limit)
	items, _ := args.Get(0).([]*entities.ReconcileResult)
	return items, args.Error(1)
}

// newTestRouter returns a router whose requests are authenticated as accountID
// unless accountID is uuid.Nil.
func newTestRouter(accountID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if accountID != uuid.Nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.AccountIDKey, accountID)
			c.Next()
		})
	}
	return r
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch v := body.(type) {
		case string:
			buf.WriteString(v)
		default:
			_ = json.NewEncoder(&buf).Encode(v)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
