package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
	"rete.backend/internal/interfaces/http/response"
	"rete.backend/pkg/jwt"
	"rete.backend/pkg/logger"
	"rete.backend/pkg/redis"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// SessionHeader carries the session id issued by the auth service
	SessionHeader = "X-Session-Id"
	// SessionCookie is the cookie fallback for browsers (websocket upgrades)
	SessionCookie = "session_id"

	AccountIDKey   = "accountId"
	CommunityIDKey = "communityId"
	EmailKey       = "accountEmail"
	RoleKey        = "accountRole"
)

var (
	ErrMissingCredentials = errors.New("authentication required")
	ErrSessionMismatch    = errors.New("session does not match its access token")
)

// TokenValidator validates access tokens
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwt.Claims, error)
}

// SessionReader resolves session ids to their stored tokens
type SessionReader interface {
	GetSession(ctx context.Context, sessionID string) (*redis.SessionData, error)
}

// Authenticator resolves the caller identity of a request. A session id
// (header or cookie) takes precedence over a bearer token.
type Authenticator struct {
	tokens   TokenValidator
	sessions SessionReader
}

// NewAuthenticator creates an authenticator. sessions may be nil, which
// disables session ids.
func NewAuthenticator(tokens TokenValidator, sessions SessionReader) *Authenticator {
	return &Authenticator{tokens: tokens, sessions: sessions}
}

// Authenticate returns the claims of the request's session or bearer token.
func (a *Authenticator) Authenticate(r *http.Request) (*jwt.Claims, error) {
	if sessionID := sessionIDFrom(r); sessionID != "" && a.sessions != nil {
		session, err := a.sessions.GetSession(r.Context(), sessionID)
		if err != nil {
			return nil, err
		}
		claims, err := a.tokens.ValidateToken(session.AccessToken)
		if err != nil {
			return nil, err
		}
		if session.AccountID != "" && session.AccountID != claims.AccountID.String() {
			return nil, ErrSessionMismatch
		}
		return claims, nil
	}

	header := r.Header.Get(AuthorizationHeader)
	if !strings.HasPrefix(header, BearerPrefix) {
		return nil, ErrMissingCredentials
	}
	return a.tokens.ValidateToken(strings.TrimPrefix(header, BearerPrefix))
}

func sessionIDFrom(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

// AuthMiddleware rejects unauthenticated requests and stores the caller
// identity in the gin context.
func AuthMiddleware(auth *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := auth.Authenticate(c.Request)
		if err != nil {
			logger.Warn(c.Request.Context(), "Authentication failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			msg := "invalid credentials"
			switch {
			case errors.Is(err, ErrMissingCredentials):
				msg = "authentication required"
			case errors.Is(err, jwt.ErrExpiredToken):
				msg = "token has expired"
			case errors.Is(err, redis.ErrSessionNotFound):
				msg = "session not found"
			}
			response.Error(c, domainerrors.Unauthorized(msg))
			c.Abort()
			return
		}

		SetIdentity(c, claims)
		c.Next()
	}
}

// SetIdentity stores claims in the gin context
func SetIdentity(c *gin.Context, claims *jwt.Claims) {
	c.Set(AccountIDKey, claims.AccountID)
	c.Set(CommunityIDKey, claims.CommunityID)
	c.Set(EmailKey, claims.Email)
	c.Set(RoleKey, claims.Role)
	if c.Request != nil {
		c.Request = c.Request.WithContext(logger.With(c.Request.Context(), logger.AccountIDKey, claims.AccountID.String()))
	}
}

// GetAccountID gets the caller's account ID from context
func GetAccountID(c *gin.Context) (uuid.UUID, bool) {
	id, exists := c.Get(AccountIDKey)
	if !exists {
		return uuid.Nil, false
	}
	v, ok := id.(uuid.UUID)
	return v, ok
}

// GetCommunityID gets the caller's community ID from context
func GetCommunityID(c *gin.Context) (uuid.UUID, bool) {
	id, exists := c.Get(CommunityIDKey)
	if !exists {
		return uuid.Nil, false
	}
	v, ok := id.(uuid.UUID)
	return v, ok
}

// GetRole gets the caller's role from context
func GetRole(c *gin.Context) (string, bool) {
	role, exists := c.Get(RoleKey)
	if !exists {
		return "", false
	}
	v, ok := role.(string)
	return v, ok
}

// RequireRole creates a middleware that requires one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := GetRole(c)
		if !exists {
			response.Error(c, domainerrors.Unauthorized("account role not found"))
			c.Abort()
			return
		}

		for _, r := range roles {
			if strings.EqualFold(role, r) {
				c.Next()
				return
			}
		}

		response.Error(c, domainerrors.Forbidden("insufficient permissions"))
		c.Abort()
	}
}

// RequireAdmin creates a middleware that requires the admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(string(entities.AccountRoleAdmin))
}
