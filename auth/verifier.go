package auth

import (
	"errors"
	"net/http"
	"strings"
)

// Rejection reasons surfaced to the client when a connection attempt is
// refused. These terminate the transport handshake, they are never delivered
// as in-band error events.
var (
	ErrMissingCredential = errors.New("Authentication required")
	ErrInvalidCredential = errors.New("Invalid token")
)

// Verifier validates an opaque credential and yields the identity it carries.
// It is called exactly once per connection attempt, before any other session
// behavior runs.
type Verifier interface {
	Verify(credential string) (Identity, error)
}

// TokenVerifier verifies JWT credentials signed with an HS256 shared secret.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret []byte) *TokenVerifier {
	return &TokenVerifier{secret: secret}
}

func (v *TokenVerifier) Verify(credential string) (Identity, error) {
	if credential == "" {
		return Identity{}, ErrMissingCredential
	}
	claims, err := VerifyToken(credential, v.secret)
	if err != nil {
		return Identity{}, ErrInvalidCredential
	}
	return Identity{UserID: claims.UserID, Name: claims.Name}, nil
}

// CredentialFromRequest extracts the credential presented at
// connection-establishment time. WebSocket clients pass it as the token query
// parameter, REST clients as a bearer Authorization header.
func CredentialFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
