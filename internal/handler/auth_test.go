package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/secure-login/internal/apperror"
	"github.com/sakif/secure-login/internal/auth"
	"github.com/sakif/secure-login/internal/handler"
	"github.com/sakif/secure-login/internal/model"
	"github.com/sakif/secure-login/internal/service"
)

// memUserRepo is a minimal in-memory repository.UserRepository for driving
// the full handler → service stack without a database.
type memUserRepo struct {
	users   map[string]*model.User
	byEmail map[string]*model.User
	nextID  int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users:   make(map[string]*model.User),
		byEmail: make(map[string]*model.User),
	}
}

func (m *memUserRepo) Create(ctx context.Context, user *model.User) error {
	if _, exists := m.byEmail[user.Email]; exists {
		return apperror.Conflict("email already registered")
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%03d", m.nextID)
	user.CreatedAt = time.Now().UTC()
	copied := *user
	m.users[user.ID] = &copied
	m.byEmail[user.Email] = &copied
	return nil
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, apperror.NotFound("user")
}

func (m *memUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, apperror.NotFound("user")
}

func (m *memUserRepo) GetProfileByID(ctx context.Context, id string) (*model.Profile, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	return &model.Profile{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}, nil
}

// testStack wires a repo, token service, auth service, and handler the way
// server.setupRoutes does, minus the router.
type testStack struct {
	handler *handler.AuthHandler
	tokens  *auth.TokenService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	passwords := auth.NewPasswordServiceForTest(4)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	svc := service.NewAuthService(newMemUserRepo(), tokens, passwords, logger)
	return &testStack{
		handler: handler.NewAuthHandler(svc, false, logger),
		tokens:  tokens,
	}
}

func postJSON(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	return nil
}

// =========================================================================
// REGISTER
// =========================================================================

func TestHandleRegister(t *testing.T) {
	t.Run("valid registration", func(t *testing.T) {
		stack := newTestStack(t)

		rr := postJSON(t, stack.handler.HandleRegister, "/users/register",
			`{"name":"Jane Doe","email":"JANE@Test.com ","password":"secret123"}`)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var profile model.Profile
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&profile))
		assert.NotEmpty(t, profile.ID)
		assert.Equal(t, "Jane Doe", profile.Name)
		assert.Equal(t, "jane@test.com", profile.Email, "email must be stored normalized")
	})

	t.Run("response never contains password material", func(t *testing.T) {
		stack := newTestStack(t)

		rr := postJSON(t, stack.handler.HandleRegister, "/users/register",
			`{"name":"Jane Doe","email":"jane@test.com","password":"secret123"}`)

		body := rr.Body.String()
		assert.NotContains(t, body, "secret123")
		assert.NotContains(t, body, "password")
		assert.NotContains(t, body, "$2") // bcrypt prefix
	})

	t.Run("invalid JSON body", func(t *testing.T) {
		stack := newTestStack(t)

		rr := postJSON(t, stack.handler.HandleRegister, "/users/register", `{"name":`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("password policy messages are specific", func(t *testing.T) {
		stack := newTestStack(t)

		short := postJSON(t, stack.handler.HandleRegister, "/users/register",
			`{"name":"Jane Doe","email":"jane@test.com","password":"short1"}`)
		assert.Equal(t, http.StatusBadRequest, short.Code)
		assert.Contains(t, short.Body.String(), "at least 8 characters")

		noDigit := postJSON(t, stack.handler.HandleRegister, "/users/register",
			`{"name":"Jane Doe","email":"jane@test.com","password":"longenough"}`)
		assert.Equal(t, http.StatusBadRequest, noDigit.Code)
		assert.Contains(t, noDigit.Body.String(), "at least one number")
	})

	t.Run("duplicate email", func(t *testing.T) {
		stack := newTestStack(t)

		first := postJSON(t, stack.handler.HandleRegister, "/users/register",
			`{"name":"Jane Doe","email":"jane@test.com","password":"secret123"}`)
		assert.Equal(t, http.StatusCreated, first.Code)

		second := postJSON(t, stack.handler.HandleRegister, "/users/register",
			`{"name":"Jane Doe","email":"jane@test.com","password":"secret123"}`)
		assert.Equal(t, http.StatusBadRequest, second.Code)
		assert.Contains(t, second.Body.String(), "already registered")
	})
}

// =========================================================================
// LOGIN
// =========================================================================

func TestHandleLogin(t *testing.T) {
	register := func(t *testing.T, stack *testStack) {
		t.Helper()
		rr := postJSON(t, stack.handler.HandleRegister, "/users/register",
			`{"name":"Jane Doe","email":"jane@test.com","password":"secret123"}`)
		if rr.Code != http.StatusCreated {
			t.Fatalf("setup registration failed: %d %s", rr.Code, rr.Body.String())
		}
	}

	t.Run("valid credentials set the session cookie", func(t *testing.T) {
		stack := newTestStack(t)
		register(t, stack)

		rr := postJSON(t, stack.handler.HandleLogin, "/users/login",
			`{"email":"jane@test.com","password":"secret123"}`)

		assert.Equal(t, http.StatusOK, rr.Code)

		cookie := sessionCookie(t, rr)
		if assert.NotNil(t, cookie, "login must set the session cookie") {
			assert.True(t, cookie.HttpOnly)
			assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
			assert.NotEmpty(t, cookie.Value)

			// The token travels in the cookie ONLY — never in the body.
			assert.NotContains(t, rr.Body.String(), cookie.Value)
		}
	})

	t.Run("unknown email and wrong password are byte-identical", func(t *testing.T) {
		stack := newTestStack(t)
		register(t, stack)

		unknown := postJSON(t, stack.handler.HandleLogin, "/users/login",
			`{"email":"nobody@test.com","password":"secret123"}`)
		wrongPw := postJSON(t, stack.handler.HandleLogin, "/users/login",
			`{"email":"jane@test.com","password":"wrongpass1"}`)

		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, unknown.Code, wrongPw.Code)
		assert.Equal(t, unknown.Body.String(), wrongPw.Body.String(),
			"rejection bodies must not reveal whether the account exists")
	})

	t.Run("rejected login sets no cookie", func(t *testing.T) {
		stack := newTestStack(t)
		register(t, stack)

		rr := postJSON(t, stack.handler.HandleLogin, "/users/login",
			`{"email":"jane@test.com","password":"wrongpass1"}`)

		assert.Nil(t, sessionCookie(t, rr))
	})

	t.Run("invalid JSON body", func(t *testing.T) {
		stack := newTestStack(t)

		rr := postJSON(t, stack.handler.HandleLogin, "/users/login", `not json`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

// =========================================================================
// PROFILE
// =========================================================================

func TestHandleProfile(t *testing.T) {
	// Profile sits behind RequireAuth in the router; mirror that here.
	protected := func(stack *testStack) http.Handler {
		return auth.RequireAuth(stack.tokens)(http.HandlerFunc(stack.handler.HandleProfile))
	}

	login := func(t *testing.T, stack *testStack) *http.Cookie {
		t.Helper()
		postJSON(t, stack.handler.HandleRegister, "/users/register",
			`{"name":"Jane Doe","email":"jane@test.com","password":"secret123"}`)
		rr := postJSON(t, stack.handler.HandleLogin, "/users/login",
			`{"email":"jane@test.com","password":"secret123"}`)
		cookie := sessionCookie(t, rr)
		if cookie == nil {
			t.Fatal("setup login did not set a cookie")
		}
		return cookie
	}

	t.Run("with a valid session", func(t *testing.T) {
		stack := newTestStack(t)
		cookie := login(t, stack)

		req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()
		protected(stack).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var profile map[string]any
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&profile))
		assert.Equal(t, "jane@test.com", profile["email"])
		assert.Contains(t, profile, "createdAt")

		// The access-control and disclosure invariants in one assertion
		// each: no password field of any kind, ever.
		assert.NotContains(t, profile, "password")
		assert.NotContains(t, profile, "passwordHash")
	})

	t.Run("without a token", func(t *testing.T) {
		stack := newTestStack(t)

		req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
		rr := httptest.NewRecorder()
		protected(stack).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("with a garbage token", func(t *testing.T) {
		stack := newTestStack(t)

		req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: "garbage"})
		rr := httptest.NewRecorder()
		protected(stack).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("bearer header works for non-browser clients", func(t *testing.T) {
		stack := newTestStack(t)
		cookie := login(t, stack)

		req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
		req.Header.Set("Authorization", "Bearer "+cookie.Value)
		rr := httptest.NewRecorder()
		protected(stack).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

// =========================================================================
// LOGOUT
// =========================================================================

func TestHandleLogout(t *testing.T) {
	t.Run("clears the cookie", func(t *testing.T) {
		stack := newTestStack(t)

		rr := postJSON(t, stack.handler.HandleLogout, "/users/logout", "")

		assert.Equal(t, http.StatusOK, rr.Code)

		cookie := sessionCookie(t, rr)
		if assert.NotNil(t, cookie) {
			assert.Empty(t, cookie.Value)
			assert.Negative(t, cookie.MaxAge)
			// Flags must match the ones login used, or browsers keep the
			// old cookie.
			assert.True(t, cookie.HttpOnly)
			assert.Equal(t, "/", cookie.Path)
		}
	})

	t.Run("idempotent without any session", func(t *testing.T) {
		// No registration, no login, no cookie — still 200.
		stack := newTestStack(t)

		first := postJSON(t, stack.handler.HandleLogout, "/users/logout", "")
		second := postJSON(t, stack.handler.HandleLogout, "/users/logout", "")

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusOK, second.Code)
	})
}
