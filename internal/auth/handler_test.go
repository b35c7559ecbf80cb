package auth_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pixelfolio/pixelfolio/internal/accounts"
	"github.com/pixelfolio/pixelfolio/internal/auth"
	"github.com/pixelfolio/pixelfolio/internal/authz"
	"github.com/pixelfolio/pixelfolio/internal/shared"
	_ "github.com/pixelfolio/pixelfolio/testing"
)

const cookieName = "pixelfolio_token"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memoryRepo struct {
	accounts map[int64]*accounts.Account
	nextID   int64
}

func (m *memoryRepo) Create(ctx context.Context, a *accounts.Account) (*accounts.Account, error) {
	for _, existing := range m.accounts {
		if existing.Email == a.Email {
			return nil, shared.ErrDuplicateEmail
		}
	}
	copied := *a
	copied.ID = m.nextID
	m.nextID++
	m.accounts[copied.ID] = &copied
	return &copied, nil
}

func (m *memoryRepo) FindByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	for _, a := range m.accounts {
		if a.Email == strings.ToLower(email) {
			return a, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memoryRepo) FindByID(ctx context.Context, id int64) (*accounts.Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return a, nil
}

func newTestRouter(t *testing.T) (*chi.Mux, *auth.Service) {
	t.Helper()
	repo := &memoryRepo{accounts: make(map[int64]*accounts.Account), nextID: 1}
	service := auth.NewService(repo, auth.NewTokenManager("test-secret", "pixelfolio", time.Hour), nil)
	handler := auth.NewHandler(testLogger(), service, cookieName, false)

	router := chi.NewRouter()
	router.Route("/auth", handler.MountRoutes)
	return router, service
}

func postJSON(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestSignupCreatesAccount(t *testing.T) {
	router, _ := newTestRouter(t)

	res := postJSON(router, "/auth/signup", `{"name":"Alex","email":"alex@x.com","password":"longenough"}`)
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if body := res.Body.String(); strings.Contains(body, "password") {
		t.Fatalf("response must not echo password material: %s", body)
	}
}

func TestSignupRejectsShortPassword(t *testing.T) {
	router, _ := newTestRouter(t)

	res := postJSON(router, "/auth/signup", `{"name":"Alex","email":"alex@x.com","password":"short"}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	router, _ := newTestRouter(t)
	postJSON(router, "/auth/signup", `{"name":"Alex","email":"alex@x.com","password":"longenough"}`)

	res := postJSON(router, "/auth/login", `{"email":"alex@x.com","password":"longenough"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var session *http.Cookie
	for _, c := range res.Result().Cookies() {
		if c.Name == cookieName {
			session = c
		}
	}
	if session == nil {
		t.Fatal("login did not set the session cookie")
	}
	if !session.HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}
	if session.SameSite != http.SameSiteStrictMode {
		t.Fatalf("session cookie SameSite = %v, want Strict", session.SameSite)
	}
	if !strings.Contains(res.Body.String(), `"token"`) {
		t.Fatal("login response must carry the bearer token")
	}
}

func TestLoginBadCredentials(t *testing.T) {
	router, _ := newTestRouter(t)
	postJSON(router, "/auth/signup", `{"name":"Alex","email":"alex@x.com","password":"longenough"}`)

	res := postJSON(router, "/auth/login", `{"email":"alex@x.com","password":"wrongwrong"}`)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestLogoutExpiresCookie(t *testing.T) {
	router, _ := newTestRouter(t)

	res := postJSON(router, "/auth/logout", ``)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	for _, c := range res.Result().Cookies() {
		if c.Name == cookieName {
			if c.MaxAge >= 0 {
				t.Fatalf("logout cookie MaxAge = %d, want negative", c.MaxAge)
			}
			return
		}
	}
	t.Fatal("logout did not clear the session cookie")
}

func TestAuthenticatorCookieThenBearer(t *testing.T) {
	router, service := newTestRouter(t)
	postJSON(router, "/auth/signup", `{"name":"Alex","email":"alex@x.com","password":"longenough"}`)
	_, token, err := service.Authenticate(context.Background(), "alex@x.com", "longenough")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	authn := auth.Authenticator{Service: service, CookieName: cookieName}
	var seen *authz.Caller
	protected := authn.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = authz.CallerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// No credential at all.
	res := httptest.NewRecorder()
	protected.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credential, got %d", res.Code)
	}

	// Bearer header.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res = httptest.NewRecorder()
	protected.ServeHTTP(res, req)
	if res.Code != http.StatusOK || seen == nil {
		t.Fatalf("bearer auth failed: %d", res.Code)
	}

	// Cookie.
	seen = nil
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	res = httptest.NewRecorder()
	protected.ServeHTTP(res, req)
	if res.Code != http.StatusOK || seen == nil {
		t.Fatalf("cookie auth failed: %d", res.Code)
	}
	if seen.Email != "alex@x.com" {
		t.Fatalf("caller email = %s", seen.Email)
	}
}
