package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTypeCartSession marks tokens that carry a guest cart session
const TokenTypeCartSession = "cart_session"

// DefaultIssuer is the iss claim of session tokens
const DefaultIssuer = "jhk-storefront"

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// SessionClaims are the claims of a cart session token
type SessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
	TokenType string `json:"token_type"`
}

// SessionTokenService signs and verifies cart session tokens (HS256).
// The token only proves the session id was issued by this service;
// it carries no cart content.
type SessionTokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// SessionTokenOption configures a SessionTokenService
type SessionTokenOption func(*SessionTokenService)

// WithIssuer overrides the iss claim
func WithIssuer(issuer string) SessionTokenOption {
	return func(s *SessionTokenService) {
		s.issuer = issuer
	}
}

// WithTokenClock replaces the clock used for iat/exp
func WithTokenClock(now func() time.Time) SessionTokenOption {
	return func(s *SessionTokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSessionTokenService creates the service. An empty secret gets a random
// per-process key, so sessions do not survive a restart; production config
// requires an explicit secret.
func NewSessionTokenService(secret string, ttl time.Duration, opts ...SessionTokenOption) (*SessionTokenService, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}

	s := &SessionTokenService{
		secret: key,
		ttl:    ttl,
		issuer: DefaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns how long issued tokens stay valid
func (s *SessionTokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for sessionID
func (s *SessionTokenService) Issue(sessionID uuid.UUID) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   sessionID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SessionID: sessionID.String(),
		TokenType: TokenTypeCartSession,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies tokenString and returns its session id
func (s *SessionTokenService) Parse(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return s.secret, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrExpiredToken
		}
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrInvalidClaims
	}
	if claims.TokenType != TokenTypeCartSession {
		return uuid.Nil, ErrInvalidTokenType
	}

	id, err := uuid.Parse(claims.SessionID)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidClaims
	}
	return id, nil
}
