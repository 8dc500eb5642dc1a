package auth

import (
	"context"
	"net/http"

	"github.com/sakif/secure-login/internal/apperror"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "identity", id), ANY package that knows the string
// can read or shadow your value. Using a package-private type prevents
// collisions: only THIS package can create a key of type contextKey, so only
// this package can write Identity values into the context.
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// Per-request token state machine:
//
//	no token → extracted → {valid, invalid, expired, malformed}
//
// Only "valid" reaches the wrapped handler; every other state short-circuits
// with 401 and the uniform rejection message BEFORE any business logic runs.
// The distinction between "no token" and "bad token" exists only in server
// logs, never in the response.
//
// On success, the verified Identity is stored in the request context as a
// typed value — handlers derive the acting user from proof of possession of
// a valid token, never from a request parameter (the IDOR invariant).
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := ExtractToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			identity, err := tokens.Verify(tokenStr)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated identity from the request
// context. Returns (Identity{}, false) if the request never passed through
// RequireAuth with a valid token.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"message":"` + apperror.UniformCredentialsMessage + `"}`))
}
