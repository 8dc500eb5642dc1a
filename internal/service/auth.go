// Package service — authentication business logic.
//
// AuthService is the business logic layer for authentication. It sits between
// the HTTP handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT) + PasswordService (bcrypt)
//
// KEY RESPONSIBILITIES:
//   - Input validation and normalization for register/login
//   - The error-disclosure policy: registration failures are specific
//     (no enumeration risk before an account exists), login failures are
//     uniform (enumeration risk once it does)
//   - Be easily testable with fake dependencies
//
// WHAT THIS LAYER DOES NOT DO:
//   - It does NOT set cookies or read HTTP requests (handler's job)
//   - It is NOT tied to chi or any routing framework
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sakif/secure-login/internal/apperror"
	"github.com/sakif/secure-login/internal/auth"
	"github.com/sakif/secure-login/internal/model"
	"github.com/sakif/secure-login/internal/repository"
)

// Input policy (OWASP A03 — Injection, and plain data hygiene).
//
// The name pattern is an allowlist: letters and spaces only. Allowlists beat
// denylists for input validation — you enumerate what IS valid instead of
// chasing what isn't. The email pattern is deliberately basic
// (local@domain.tld): full RFC 5322 validation is famously unrewarding, and
// the real proof of ownership would be a verification email anyway.
var (
	nameRe  = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	hasLetterRe = regexp.MustCompile(`[a-zA-Z]`)
	hasDigitRe  = regexp.MustCompile(`[0-9]`)
)

// AuthService orchestrates registration, login, and profile retrieval.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// LoginResult bundles the profile and the issued session token so the
// handler can set the cookie and respond in one step. The token value goes
// into the cookie only — it is never serialized into a response body.
type LoginResult struct {
	Profile *model.Profile
	Token   string
}

// Register creates a new account.
//
// Validation failures here return SPECIFIC messages (which rule failed,
// which field). Unlike login there is no enumeration risk in being helpful:
// the attacker doesn't learn whether an account exists from "password needs
// a digit". The one exception that does reveal existence — "email already
// registered" — is unavoidable for a usable registration flow and is why
// the register endpoint sits behind the strict rate limit.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.Profile, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)

	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	// Fast-path duplicate check for a friendly error. This is a UX
	// optimization only — the INSERT below can still lose a race, and the
	// store's unique constraint is what actually guarantees uniqueness.
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("email already registered")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking existing email: %w", err)
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A conflict here means we lost the race against a concurrent
		// registration — same outcome as the fast path above.
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
	)

	return &model.Profile{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

// Login verifies credentials and issues a session token.
//
// ANTI-ENUMERATION INVARIANT:
// "No such user" and "wrong password" MUST be externally identical — same
// error value, same message, same status code, and (as close as practical)
// the same response time. The two cases are distinguished only in the
// server-side log. On a lookup miss we burn a bcrypt comparison against a
// constant dummy hash so the miss path costs the same ~250ms as a mismatch.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*LoginResult, error) {
	email := normalizeEmail(req.Email)

	if req.Password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// Equalize timing with the wrong-password path, then reject
			// with the same error that path produces.
			_ = s.passwords.Verify(auth.DummyHash, req.Password)
			s.logger.Warn("login rejected",
				slog.String("reason", "unknown email"),
			)
			return nil, apperror.Unauthorized()
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, req.Password); err != nil {
		s.logger.Warn("login rejected",
			slog.String("reason", "password mismatch"),
			slog.String("userID", user.ID),
		)
		return nil, apperror.Unauthorized()
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
	)

	return &LoginResult{
		Profile: &model.Profile{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		},
		Token: token,
	}, nil
}

// Profile returns the non-sensitive projection for the given user ID.
//
// The ID comes from a verified token subject (set by the auth middleware),
// never from a request parameter — that is the access-control invariant
// that prevents IDOR. A miss is possible even with a valid token (account
// deleted after issuance) and maps to not-found.
func (s *AuthService) Profile(ctx context.Context, userID string) (*model.Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	profile, err := s.users.GetProfileByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: fetching profile %s: %w", userID, err)
	}

	return profile, nil
}

// normalizeEmail lower-cases and trims an email address. All storage and
// lookups use the normalized form, so " JANE@Test.com " and "jane@test.com"
// are the same account.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(name string) error {
	if name == "" {
		return apperror.ValidationFailed("name", "name is required")
	}
	if n := utf8.RuneCountInString(name); n < 2 || n > 100 {
		return apperror.ValidationFailed("name", "name must be between 2 and 100 characters")
	}
	if !nameRe.MatchString(name) {
		return apperror.ValidationFailed("name", "name may only contain letters and spaces")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	if !emailRe.MatchString(email) {
		return apperror.ValidationFailed("email", "invalid email format")
	}
	return nil
}

// validatePassword enforces the password policy. Each rule has its own
// message so the user knows what to fix.
func validatePassword(password string) error {
	switch {
	case password == "":
		return apperror.ValidationFailed("password", "password is required")
	case len(password) < 8:
		return apperror.ValidationFailed("password", "password must be at least 8 characters long")
	case !hasLetterRe.MatchString(password):
		return apperror.ValidationFailed("password", "password must contain at least one letter")
	case !hasDigitRe.MatchString(password):
		return apperror.ValidationFailed("password", "password must contain at least one number")
	}
	return nil
}
