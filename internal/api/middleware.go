package api

import (
	"context"
	"net/http"

	"github.com/imaxbooking/chat-server/auth"
)

type identityKey struct{}

func contextWithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

func identityFromContext(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(auth.Identity)
	return identity, ok
}

// IdentityFromRequest extracts the verified identity from the request
// context. It must be called in handlers protected by JWTMiddleware; it
// panics otherwise.
func IdentityFromRequest(r *http.Request) auth.Identity {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		panic("identity not found in request context: handler is not behind JWTMiddleware")
	}
	return identity
}

// JWTMiddleware verifies the bearer credential of the request and attaches
// the resulting identity to the request context. Requests without a
// credential are rejected with 401, requests with a bad one with 400,
// mirroring the websocket handshake's rejection reasons.
func JWTMiddleware(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := auth.CredentialFromRequest(r)
			identity, err := verifier.Verify(credential)
			if err != nil {
				code := http.StatusUnauthorized
				if credential != "" {
					code = http.StatusBadRequest
				}
				WriteJsonResponseWithStatusCode(w, NewApiError(err.Error(), code), code)
				return
			}
			next.ServeHTTP(w, r.WithContext(contextWithIdentity(r.Context(), identity)))
		})
	}
}
