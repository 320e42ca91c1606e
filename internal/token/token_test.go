package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerify(t *testing.T) {
	iss := NewIssuer("secret", time.Hour, 24*time.Hour, nil)
	pair, err := iss.Issue(42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.TokenType != "Bearer" || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("unexpected pair %+v", pair)
	}

	id, err := iss.Verify(pair.AccessToken, Access)
	if err != nil || id != 42 {
		t.Fatalf("verify access: %d, %v", id, err)
	}
	id, err = iss.Verify(pair.RefreshToken, Refresh)
	if err != nil || id != 42 {
		t.Fatalf("verify refresh: %d, %v", id, err)
	}
}

func TestKindsAreNotInterchangeable(t *testing.T) {
	iss := NewIssuer("secret", time.Hour, 24*time.Hour, nil)
	pair, _ := iss.Issue(1)

	if _, err := iss.Verify(pair.RefreshToken, Access); !errors.Is(err, ErrInvalid) {
		t.Fatalf("refresh token accepted as access: %v", err)
	}
	if _, err := iss.Verify(pair.AccessToken, Refresh); !errors.Is(err, ErrInvalid) {
		t.Fatalf("access token accepted as refresh: %v", err)
	}
}

func TestExpiredIsDistinctFromInvalid(t *testing.T) {
	past := func() time.Time { return time.Now().Add(-48 * time.Hour) }
	old := NewIssuer("secret", 24*time.Hour, 24*time.Hour, past)
	pair, _ := old.Issue(7)

	iss := NewIssuer("secret", 24*time.Hour, 24*time.Hour, nil)
	if _, err := iss.Verify(pair.AccessToken, Access); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
	if _, err := iss.Verify("not-a-jwt", Access); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
}

func TestWrongSecretAndAlgorithm(t *testing.T) {
	pair, _ := NewIssuer("one", time.Hour, time.Hour, nil).Issue(3)
	iss := NewIssuer("two", time.Hour, time.Hour, nil)
	if _, err := iss.Verify(pair.AccessToken, Access); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected invalid for wrong secret, got %v", err)
	}

	claims := Claims{Type: Access, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "3",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := iss.Verify(unsigned, Access); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected invalid for alg none, got %v", err)
	}
}

func TestSubjectMustBeNumeric(t *testing.T) {
	claims := Claims{Type: Access, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	iss := NewIssuer("secret", time.Hour, time.Hour, nil)
	_, err = iss.Verify(signed, Access)
	if !errors.Is(err, ErrInvalid) || !strings.Contains(err.Error(), "subject") {
		t.Fatalf("expected invalid subject, got %v", err)
	}
}
