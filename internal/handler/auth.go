package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/secure-login/internal/apperror"
	"github.com/sakif/secure-login/internal/auth"
	"github.com/sakif/secure-login/internal/model"
	"github.com/sakif/secure-login/internal/service"
)

// AuthHandler is the HTTP boundary for registration and session management.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → decode, delegate to the service, 201 with the profile
//   - HandleLogin    → delegate, set the session cookie, 200 with the profile
//   - HandleProfile  → read the verified identity from context, 200 with profile
//   - HandleLogout   → clear the session cookie, always 200
//
// Handlers never touch the database or bcrypt directly; the service owns the
// rules, the handler owns HTTP (status codes, cookies, JSON shapes).
type AuthHandler struct {
	service    *service.AuthService
	production bool // drives the cookie's Secure flag
	logger     *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(svc *service.AuthService, production bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:    svc,
		production: production,
		logger:     logger,
	}
}

// HandleRegister creates a new account.
//
// HTTP: POST /users/register
// BODY: {"name":"Jane Doe","email":"jane@test.com","password":"secret123"}
//
// Success is 201 with {id,name,email,createdAt} — and NEVER the password or
// its hash. Registration does not log the user in: the client follows up
// with a login call, keeping token issuance on exactly one code path.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	profile, err := h.service.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) || errors.Is(err, apperror.ErrValidation) {
			// Client-side problem; worth an audit trail but not an alert.
			h.logger.Warn("registration rejected",
				slog.String("ip", r.RemoteAddr),
				slog.String("path", r.URL.Path),
			)
		} else {
			h.logger.Error("registration failed",
				slog.String("ip", r.RemoteAddr),
				slog.String("error", err.Error()),
			)
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, profile)
}

// HandleLogin verifies credentials and establishes a session.
//
// HTTP: POST /users/login
// BODY: {"email":"jane@test.com","password":"secret123"}
//
// On success the JWT goes into the HttpOnly cookie — the response body
// carries only the profile, never the token value. On failure the body and
// status are identical for every credential-related cause.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	result, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			h.logger.Warn("login rejected",
				slog.String("ip", r.RemoteAddr),
				slog.String("path", r.URL.Path),
			)
		} else if !errors.Is(err, apperror.ErrValidation) {
			h.logger.Error("login failed",
				slog.String("ip", r.RemoteAddr),
				slog.String("error", err.Error()),
			)
		}
		writeError(w, err)
		return
	}

	auth.AttachSession(w, result.Token, h.production)
	writeJSON(w, http.StatusOK, result.Profile)
}

// HandleProfile returns the authenticated user's own profile.
//
// HTTP: GET /users/profile
// Auth: required (RequireAuth middleware puts the Identity in context)
//
// IDOR PREVENTION:
// There is no {id} parameter. The resource identity comes solely from the
// verified token subject — a client cannot ask for anyone else's profile by
// editing a URL or body field, because there is nothing to edit.
func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but fail closed anyway.
		writeError(w, apperror.Unauthorized())
		return
	}

	profile, err := h.service.Profile(r.Context(), identity.UserID)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			h.logger.Error("profile fetch failed",
				slog.String("userID", identity.UserID),
				slog.String("error", err.Error()),
			)
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /users/logout
//
// IDEMPOTENT BY DESIGN: logging out without a session is still a 200 —
// the end state ("no session cookie") is the same either way, so there is
// nothing useful to reject. The route does not require a valid token.
//
// WHY POST AND NOT GET?
// Logout changes state. A GET logout could be triggered by an <img> tag on
// a hostile page or by browser prefetching.
//
// KNOWN LIMITATION — NO SERVER-SIDE REVOCATION:
// Clearing the cookie stops the browser from presenting the token; the
// token itself remains valid until its 24h expiry if someone captured it.
// True revocation needs a server-side denylist keyed by token ID, which
// this design intentionally leaves out.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w, h.production)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
