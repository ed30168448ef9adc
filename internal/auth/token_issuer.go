package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultAccessTokenTTL = 30 * time.Minute

	issuerName   = "openmusic-auth"
	audienceName = "openmusic-api"
)

var (
	errMissingAccessSecret  = errors.New("access token secret must be provided")
	errMissingRefreshSecret = errors.New("refresh token secret must be provided")
	errMissingSubject       = errors.New("subject claim must be provided")
)

// TokenIssuerConfig configures the JWT issuer. Access and refresh tokens
// are signed with separate secrets so a leaked refresh secret cannot mint
// access tokens.
type TokenIssuerConfig struct {
	AccessSecret   []byte
	RefreshSecret  []byte
	AccessTokenTTL time.Duration
	Clock          func() time.Time
}

// TokenIssuer issues and validates the HS256 access/refresh token pair.
type TokenIssuer struct {
	config TokenIssuerConfig
	clock  func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer with sane defaults.
func NewTokenIssuer(cfg TokenIssuerConfig) *TokenIssuer {
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = defaultAccessTokenTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TokenIssuer{
		config: TokenIssuerConfig{
			AccessSecret:   cfg.AccessSecret,
			RefreshSecret:  cfg.RefreshSecret,
			AccessTokenTTL: ttl,
			Clock:          clock,
		},
		clock: clock,
	}
}

// IssueAccessToken produces a signed short-lived JWT for the user.
func (i *TokenIssuer) IssueAccessToken(userID string) (string, error) {
	if len(i.config.AccessSecret) == 0 {
		return "", errMissingAccessSecret
	}
	if userID == "" {
		return "", errMissingSubject
	}

	now := i.clock().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    issuerName,
		Audience:  []string{audienceName},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.config.AccessTokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.config.AccessSecret)
}

// IssueRefreshToken produces a signed JWT without expiry; its lifetime is
// bounded by presence in the session store instead.
func (i *TokenIssuer) IssueRefreshToken(userID string) (string, error) {
	if len(i.config.RefreshSecret) == 0 {
		return "", errMissingRefreshSecret
	}
	if userID == "" {
		return "", errMissingSubject
	}

	now := i.clock().UTC()
	claims := jwt.RegisteredClaims{
		Subject:  userID,
		Issuer:   issuerName,
		Audience: []string{audienceName},
		IssuedAt: jwt.NewNumericDate(now),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.config.RefreshSecret)
}

// ValidateAccessToken ensures the access token is well formed and unexpired
// and returns its subject.
func (i *TokenIssuer) ValidateAccessToken(tokenString string) (string, error) {
	return i.validate(tokenString, i.config.AccessSecret)
}

// ValidateRefreshToken ensures the refresh token is well formed and returns
// its subject. Revocation is checked against the session store, not here.
func (i *TokenIssuer) ValidateRefreshToken(tokenString string) (string, error) {
	return i.validate(tokenString, i.config.RefreshSecret)
}

func (i *TokenIssuer) validate(tokenString string, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errMissingAccessSecret
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", token.Method.Alg())
			}
			return secret, nil
		},
		jwt.WithAudience(audienceName),
		jwt.WithIssuer(issuerName),
		jwt.WithTimeFunc(i.clock),
	)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errMissingSubject
	}
	return claims.Subject, nil
}
