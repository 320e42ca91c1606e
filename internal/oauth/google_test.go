package oauth

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/api/idtoken"
)

func stubValidator(p *idtoken.Payload, err error) payloadValidator {
	return func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		if audience != "client-123" {
			return nil, errors.New("audience mismatch")
		}
		return p, err
	}
}

func TestGoogleVerifierExtractsIdentity(t *testing.T) {
	v := &GoogleVerifier{clientID: "client-123", validate: stubValidator(&idtoken.Payload{
		Issuer:  "https://accounts.google.com",
		Subject: "sub-1",
		Claims: map[string]interface{}{
			"email":          "Ada@Example.com",
			"email_verified": true,
			"given_name":     "Ada",
			"family_name":    "Lovelace",
			"picture":        "https://example.com/ada.png",
		},
	}, nil)}

	id, err := v.Verify(context.Background(), "raw")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	want := GoogleIdentity{
		GoogleID: "sub-1", Email: "Ada@Example.com", EmailVerified: true,
		FirstName: "Ada", LastName: "Lovelace", ProfilePicture: "https://example.com/ada.png",
	}
	if id != want {
		t.Fatalf("got %+v, want %+v", id, want)
	}
}

func TestGoogleVerifierRejects(t *testing.T) {
	good := map[string]interface{}{"email": "a@b.com"}
	tests := []struct {
		name     string
		clientID string
		payload  *idtoken.Payload
		err      error
	}{
		{"no client id", "", nil, nil},
		{"validation error", "client-123", nil, errors.New("bad signature")},
		{"wrong issuer", "client-123", &idtoken.Payload{Issuer: "evil.com", Subject: "s", Claims: good}, nil},
		{"missing email", "client-123", &idtoken.Payload{Issuer: "accounts.google.com", Subject: "s", Claims: map[string]interface{}{}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &GoogleVerifier{clientID: tt.clientID, validate: stubValidator(tt.payload, tt.err)}
			if _, err := v.Verify(context.Background(), "raw"); !errors.Is(err, ErrVerification) {
				t.Fatalf("expected verification error, got %v", err)
			}
		})
	}
}
