// Package token mints and verifies the signed session tokens.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	Access  Kind = "access"
	Refresh Kind = "refresh"
)

var (
	// ErrExpired is returned for a well-formed token past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrInvalid is returned for every other verification failure.
	ErrInvalid = errors.New("token invalid")
)

// Pair is what clients receive after authenticating.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Claims are the JWT claims carried by both kinds of token.
type Claims struct {
	Type Kind `json:"type"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens with a server secret.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer returns an issuer. A nil now uses time.Now.
func NewIssuer(secret string, accessTTL, refreshTTL time.Duration, now func() time.Time) *Issuer {
	if now == nil {
		now = time.Now
	}
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        now,
	}
}

// Issue mints an access and a refresh token for the user.
func (i *Issuer) Issue(userID uint) (Pair, error) {
	access, err := i.sign(userID, Access, i.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.sign(userID, Refresh, i.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"}, nil
}

func (i *Issuer) sign(userID uint, kind Kind, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		Type: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify checks signature, expiry and kind, and returns the subject user id.
func (i *Issuer) Verify(tokenStr string, want Kind) (uint, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpired
		}
		return 0, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if claims.Type != want {
		return 0, fmt.Errorf("%w: expected %s token, got %q", ErrInvalid, want, claims.Type)
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: bad subject %q", ErrInvalid, claims.Subject)
	}
	return uint(id), nil
}
