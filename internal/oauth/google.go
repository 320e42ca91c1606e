// Package oauth verifies identity-provider tokens presented by clients.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"
)

// ErrVerification is returned when a token cannot be trusted.
var ErrVerification = errors.New("identity token verification failed")

// GoogleIdentity is the profile extracted from a verified Google ID token.
type GoogleIdentity struct {
	GoogleID       string
	Email          string
	EmailVerified  bool
	FirstName      string
	LastName       string
	ProfilePicture string
}

// Verifier checks an ID token out-of-band and returns the identity it asserts.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (GoogleIdentity, error)
}

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

type payloadValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// GoogleVerifier validates Google ID tokens against the configured client id.
type GoogleVerifier struct {
	clientID string
	validate payloadValidator
}

// NewGoogleVerifier returns a verifier backed by Google's published keys.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, validate: idtoken.Validate}
}

// Verify checks signature, audience, expiry and issuer.
func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (GoogleIdentity, error) {
	if v.clientID == "" {
		return GoogleIdentity{}, fmt.Errorf("%w: GOOGLE_CLIENT_ID is not configured", ErrVerification)
	}
	payload, err := v.validate(ctx, rawToken, v.clientID)
	if err != nil {
		return GoogleIdentity{}, fmt.Errorf("%w: %v", ErrVerification, err)
	}
	return identityFromPayload(payload)
}

func identityFromPayload(p *idtoken.Payload) (GoogleIdentity, error) {
	if !googleIssuers[p.Issuer] {
		return GoogleIdentity{}, fmt.Errorf("%w: wrong issuer %q", ErrVerification, p.Issuer)
	}
	email := claimString(p.Claims, "email")
	if p.Subject == "" || strings.TrimSpace(email) == "" {
		return GoogleIdentity{}, fmt.Errorf("%w: token lacks subject or email", ErrVerification)
	}
	verified, _ := p.Claims["email_verified"].(bool)
	return GoogleIdentity{
		GoogleID:       p.Subject,
		Email:          email,
		EmailVerified:  verified,
		FirstName:      claimString(p.Claims, "given_name"),
		LastName:       claimString(p.Claims, "family_name"),
		ProfilePicture: claimString(p.Claims, "picture"),
	}, nil
}

func claimString(claims map[string]interface{}, key string) string {
	s, _ := claims[key].(string)
	return s
}
