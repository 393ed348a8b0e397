// Package auth provides password hashing, JWT token issuance/verification,
// and the session middleware that gates protected routes.
//
// SESSION MODEL:
// Sessions are stateless. A login mints two JWTs — a short-lived access
// token and a longer-lived refresh token — and stores both in HttpOnly
// cookies. Nothing is persisted server-side: the signed claims inside the
// token ARE the session. The trade-off is that a token cannot be revoked
// before it expires (short of rotating the signing secret), which is why
// the access token only lives 15 minutes.
//
// WHY TWO SECRETS?
// Access and refresh tokens are signed with two independent secrets. A
// leaked access token can therefore never be replayed against the refresh
// endpoint, and a leaked refresh token is useless on ordinary API calls.
// Verification always targets exactly one secret — a token valid under
// one must fail under the other.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// AccessTokenTTL bounds the replay window of a stolen access token.
	AccessTokenTTL = 15 * time.Minute
	// RefreshTokenTTL keeps re-authentication infrequent.
	RefreshTokenTTL = 7 * 24 * time.Hour

	issuer = "gallery-api"
)

// Sentinel verification failures. The distinction matters to clients:
// an expired access token means "call /refresh-token and retry", while
// an invalid one means "re-authenticate from scratch".
var (
	ErrTokenExpired = errors.New("auth: token expired")
	ErrTokenInvalid = errors.New("auth: token invalid")
)

// Claims is the identity carried inside every token.
type Claims struct {
	UserID string
	Email  string
}

// tokenClaims is the JWT payload. The user ID rides in the standard
// "sub" claim; the email is a private claim.
type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a login or a refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService signs and verifies the access/refresh token pair.
// Both secrets are process-wide configuration, immutable after startup.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
}

// NewTokenService creates a TokenService from the two signing secrets.
// Each should be at least 32 bytes of random data in production, e.g.
// ACCESS_TOKEN_SECRET=$(openssl rand -hex 32). Short secrets are rejected
// so a misconfigured process refuses to start rather than run insecurely.
func NewTokenService(accessSecret, refreshSecret string) (*TokenService, error) {
	if len(accessSecret) < 16 {
		return nil, errors.New("auth: access token secret must be at least 16 characters")
	}
	if len(refreshSecret) < 16 {
		return nil, errors.New("auth: refresh token secret must be at least 16 characters")
	}
	if accessSecret == refreshSecret {
		// Identical secrets would collapse the two token classes into one.
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}, nil
}

// IssuePair mints a fresh access+refresh pair carrying identical claims
// but different lifetimes and signing secrets.
func (s *TokenService) IssuePair(userID, email string) (TokenPair, error) {
	access, err := s.sign(userID, email, s.accessSecret, AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(userID, email, s.refreshSecret, RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyAccess verifies signature and expiry against the access secret.
func (s *TokenService) VerifyAccess(token string) (Claims, error) {
	return s.verify(token, s.accessSecret)
}

// VerifyRefresh verifies signature and expiry against the refresh secret.
func (s *TokenService) VerifyRefresh(token string) (Claims, error) {
	return s.verify(token, s.refreshSecret)
}

// sign takes the TTL as a parameter so tests in this package can mint
// already-expired tokens.
func (s *TokenService) sign(userID, email string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()

	c := tokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) verify(tokenStr string, secret []byte) (Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&tokenClaims{},
		func(token *jwt.Token) (any, error) {
			// Reject anything not signed with HMAC — prevents algorithm
			// confusion attacks (e.g. alg=none or an RSA public key used
			// as an HMAC secret).
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	c, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return Claims{}, ErrTokenInvalid
	}
	if c.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	return Claims{UserID: c.Subject, Email: c.Email}, nil
}
