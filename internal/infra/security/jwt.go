package security

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cevi/onlinemat-sub000/internal/infra/config"
)

// ErrInvalidAccessToken indicates the token failed signature or claim validation.
var ErrInvalidAccessToken = errors.New("jwt: invalid access token")

// ErrExpiredAccessToken indicates the token is past its expiry.
var ErrExpiredAccessToken = errors.New("jwt: access token expired")

// AccessTokenClaims carries the subject identity issued by the identity service.
type AccessTokenClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// JWTManager verifies access tokens issued by the identity service. This
// service never signs tokens itself.
type JWTManager struct {
	secret   []byte
	issuer   string
	audience string
}

// NewJWTManager constructs a verifier for the shared HMAC secret.
func NewJWTManager(cfg config.JWTSettings) (*JWTManager, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret is required")
	}

	return &JWTManager{
		secret:   []byte(secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}, nil
}

// ParseAccessToken validates the supplied token and returns its claims.
func (m *JWTManager) ParseAccessToken(tokenString string) (*AccessTokenClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrInvalidAccessToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	claims := &AccessTokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredAccessToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccessToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidAccessToken
	}

	if strings.TrimSpace(claims.UserID) == "" {
		// Fall back to the registered subject claim.
		claims.UserID = strings.TrimSpace(claims.Subject)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidAccessToken)
	}

	return claims, nil
}
