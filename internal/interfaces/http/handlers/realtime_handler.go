package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
	"rete.backend/internal/infrastructure/realtime"
	"rete.backend/internal/interfaces/http/response"
	"rete.backend/pkg/jwt"
	"rete.backend/pkg/logger"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
)

type requestAuthenticator interface {
	Authenticate(r *http.Request) (*jwt.Claims, error)
}

type accountLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error)
}

type clientRegistry interface {
	Register(c *realtime.Client)
	Unregister(c *realtime.Client)
}

// RealtimeHandler upgrades authenticated sessions to websocket connections
// that receive settlement and balance events.
type RealtimeHandler struct {
	auth           requestAuthenticator
	accounts       accountLookup
	hub            clientRegistry
	originPatterns []string
	clientBuffer   int
}

// NewRealtimeHandler creates a new realtime handler
func NewRealtimeHandler(auth requestAuthenticator, accounts accountLookup, hub clientRegistry, originPatterns []string, clientBuffer int) *RealtimeHandler {
	return &RealtimeHandler{
		auth:           auth,
		accounts:       accounts,
		hub:            hub,
		originPatterns: originPatterns,
		clientBuffer:   clientBuffer,
	}
}

// Connect serves the realtime websocket
// GET /api/v1/realtime
func (h *RealtimeHandler) Connect(c *gin.Context) {
	claims, err := h.auth.Authenticate(c.Request)
	if err != nil {
		response.Error(c, domainerrors.Unauthorized("session required"))
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		logger.Warn(c.Request.Context(), "Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx := c.Request.Context()
	account, reason := h.handshake(ctx, conn, claims)
	if reason != "" {
		logger.Info(ctx, "Realtime handshake rejected",
			zap.String("account_id", claims.AccountID.String()),
			zap.String("reason", reason),
		)
		_ = conn.Close(websocket.StatusPolicyViolation, reason)
		return
	}

	client := realtime.NewClient(account.ID, account.CommunityID, h.clientBuffer)
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	ack, _ := realtime.NewMessage(realtime.TypeAuthenticated, realtime.Authenticated{
		AccountID:   account.ID,
		CommunityID: account.CommunityID,
	})
	if err := h.write(ctx, conn, ack); err != nil {
		return
	}

	// Clients only send the handshake; CloseRead detects disconnects.
	ctx = conn.CloseRead(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-client.Messages():
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "closed")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				logger.Debug(ctx, "Realtime write failed", zap.Error(err))
				return
			}
		}
	}
}

// handshake reads the authenticate frame and binds it to the session. It
// returns a close reason when the connection must be rejected.
func (h *RealtimeHandler) handshake(ctx context.Context, conn *websocket.Conn, claims *jwt.Claims) (*entities.Account, string) {
	readCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	var req realtime.AuthenticateRequest
	if err := wsjson.Read(readCtx, conn, &req); err != nil || req.Type != realtime.TypeAuthenticate {
		return nil, realtime.ReasonAuthRequired
	}
	if req.AccountID != claims.AccountID {
		return nil, realtime.ReasonIdentityMismatch
	}

	account, err := h.accounts.GetByID(ctx, req.AccountID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, realtime.ReasonAccountNotFound
		}
		return nil, realtime.ReasonAuthRequired
	}
	if req.CommunityID != nil && *req.CommunityID != account.CommunityID {
		return nil, realtime.ReasonCommunityMismatch
	}
	if claims.CommunityID != uuid.Nil && claims.CommunityID != account.CommunityID {
		return nil, realtime.ReasonCommunityMismatch
	}
	return account, ""
}

func (h *RealtimeHandler) write(ctx context.Context, conn *websocket.Conn, msg realtime.Message) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, msg)
}
