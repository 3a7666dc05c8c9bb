package auth

import "net/http"

// TokenAuthenticator authenticates HTTP requests by verifying the credential
// they carry. It satisfies the hub's Authenticator contract.
type TokenAuthenticator struct {
	verifier Verifier
}

func NewTokenAuthenticator(verifier Verifier) *TokenAuthenticator {
	return &TokenAuthenticator{verifier: verifier}
}

func (a *TokenAuthenticator) Authenticate(r *http.Request) (Identity, error) {
	return a.verifier.Verify(CredentialFromRequest(r))
}
