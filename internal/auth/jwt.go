// Package auth provides password hashing, session token issuance, and the
// cookie transport for the login API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. User registers with name/email/password → password is bcrypt-hashed and stored
//  2. User logs in → credentials verified → server issues a signed JWT
//  3. The JWT travels in an HttpOnly cookie (see cookie.go)
//  4. On protected routes, middleware extracts and verifies the JWT and puts
//     a typed Identity into the request context (see middleware.go)
//
// WHY JWT?
// JWT (JSON Web Token) is stateless — the server doesn't need to store session
// data. All the information needed (user ID, expiry) is inside the signed token.
// The signature ensures nobody can tamper with it without the secret key.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims (data) → {"sub":"userID","email":"...","exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
//
// The server can verify the signature without any DB lookup — just the secret.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionDuration is how long an issued session token stays valid.
// The cookie's Max-Age mirrors this exactly (see cookie.go).
const SessionDuration = 24 * time.Hour

const issuer = "secure-login"

// ErrInvalidToken is the ONLY error Verify returns to callers.
//
// UNIFORM TOKEN REJECTION:
// Internally a token can fail for many reasons — bad signature, expired,
// malformed, wrong issuer, missing subject. Telling the caller WHICH check
// failed would leak information (e.g. "expired" confirms the token was once
// valid and correctly signed). Every failure collapses into this one error.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// Identity is the verified subject of a session token.
//
// It is an explicit, typed value — not a bag of untyped claims attached to
// the request. Access decisions use UserID, which is proven by possession
// of a validly signed token. Email is informational (display, logging) and
// must never be used as the access-control key.
type Identity struct {
	UserID string
	Email  string
}

// TokenService issues and verifies signed session tokens.
//
// It holds the HMAC secret key used to sign and verify tokens.
// The same secret must be used for both operations — keep it safe, rotate it
// periodically in production.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
//
// FAIL CLOSED — NO DEFAULT SECRET:
// An empty or short secret is a configuration fault, and the constructor
// refuses to proceed. Falling back to some built-in default would mean every
// deployment that forgot to set the secret signs tokens anyone can forge.
// The secret should be at least 32 bytes of random data in production:
//
//	JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims which includes
// standard fields like Issuer, Subject, ExpiresAt, IssuedAt.
//
// "sub" (Subject) carries the internal user ID — the standard JWT claim for
// identifying who the token belongs to. Email is a custom, informational claim.
type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Issue creates and signs a new session token for the given identity.
//
// Token lifetime: 24 hours. There is no server-side revocation — logout
// only clears the cookie, and the token stays technically valid until
// expiry if replayed outside the browser cookie jar.
//
// Signing algorithm: HS256 (HMAC-SHA256)
// - Symmetric: same key for signing and verifying
// - Fast and simple — good for single-server deployments
// - Swap for RS256 if multiple services ever need to verify independently
func (s *TokenService) Issue(userID, email string) (string, error) {
	return s.IssueWithDuration(userID, email, SessionDuration)
}

// IssueWithDuration creates a token with a custom expiry duration.
// Used in tests to mint already-expired tokens.
func (s *TokenService) IssueWithDuration(userID, email string, d time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("auth: user ID must not be empty")
	}

	now := time.Now()
	c := claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	// jwt.NewWithClaims creates an unsigned token with the given algorithm.
	// SignedString(key) signs it and returns the complete JWT string.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and verifies a JWT string and returns the Identity it encodes.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (ExpiresAt is in the future)
//   - Issuer matches (prevents tokens minted by other apps with the same lib)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//
// ALGORITHM CONFUSION ATTACK:
// Without checking the algorithm, an attacker could send a token signed with
// "none" and the library might accept it. Passing jwt.WithValidMethods prevents this.
//
// All failures return ErrInvalidToken — see the comment on that variable.
func (s *TokenService) Verify(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			// Reject tokens that aren't signed with HMAC
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: c.Subject, Email: c.Email}, nil
}
