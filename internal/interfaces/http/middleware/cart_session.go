package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jhk/storefront/internal/infrastructure/auth"
	"github.com/jhk/storefront/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Cart session context keys
const (
	CartSessionIDKey     = "cart_session_id"
	DefaultSessionCookie = "cart_session"
	DefaultSessionHeader = "X-Cart-Session"
)

// CartSessionConfig holds configuration for the cart session middleware
type CartSessionConfig struct {
	// Tokens signs and verifies session tokens (required)
	Tokens *auth.SessionTokenService
	// CookieName carries the token for browsers
	CookieName string
	// HeaderName carries the token for API clients and is echoed on new sessions
	HeaderName string
	// CookieSecure marks the cookie HTTPS-only
	CookieSecure bool
	Logger       *zap.Logger
}

// CartSession resolves the shopper's cart session from a signed token in
// the session cookie or header. A missing, expired or forged token starts a
// fresh session; the new token is returned as cookie and header. Requests
// are never rejected.
func CartSession(cfg CartSessionConfig) gin.HandlerFunc {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultSessionCookie
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultSessionHeader
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		sessionID, ok := sessionFromRequest(c, cfg)
		if !ok {
			sessionID = uuid.New()
			token, _, err := cfg.Tokens.Issue(sessionID)
			if err != nil {
				cfg.Logger.Error("Failed to issue cart session token", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "ERR_INTERNAL",
						"message": "Could not start a cart session",
					},
				})
				return
			}
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     cfg.CookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(cfg.Tokens.TTL().Seconds()),
				HttpOnly: true,
				Secure:   cfg.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
			c.Header(cfg.HeaderName, token)
		}

		c.Set(CartSessionIDKey, sessionID)
		c.Set(logger.GinCartSessionKey, sessionID.String())

		ctx := c.Request.Context()
		ctx, _ = logger.WithCartSession(ctx, logger.FromContext(ctx), sessionID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// sessionFromRequest prefers the header over the cookie
func sessionFromRequest(c *gin.Context, cfg CartSessionConfig) (uuid.UUID, bool) {
	token := strings.TrimSpace(c.GetHeader(cfg.HeaderName))
	if token == "" {
		if cookie, err := c.Cookie(cfg.CookieName); err == nil {
			token = cookie
		}
	}
	if token == "" {
		return uuid.Nil, false
	}

	sessionID, err := cfg.Tokens.Parse(token)
	if err != nil {
		cfg.Logger.Debug("Discarding cart session token",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path),
		)
		return uuid.Nil, false
	}
	return sessionID, true
}

// GetCartSessionID returns the session resolved by CartSession, or uuid.Nil
func GetCartSessionID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(CartSessionIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
