package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func callerRequest(caller *Caller) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if caller != nil {
		req = req.WithContext(ContextWithCaller(req.Context(), caller))
	}
	return req
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestRequireRoleNoCaller(t *testing.T) {
	next, called := okHandler()
	handler := Middleware{}.RequireRole(RoleAdmin)(next)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, callerRequest(nil))

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if *called {
		t.Fatal("handler must not run without a caller")
	}
}

func TestRequireRoleForbidden(t *testing.T) {
	next, called := okHandler()
	handler := Middleware{}.RequireRole(RoleAdmin)(next)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, callerRequest(&Caller{ID: 1, Role: RoleUser}))

	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
	if *called {
		t.Fatal("handler must not run for a disallowed role")
	}
}

func TestRequireRoleAllowed(t *testing.T) {
	next, called := okHandler()
	handler := Middleware{}.RequireRole(RoleManager, RoleAdmin)(next)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, callerRequest(&Caller{ID: 1, Role: RoleManager}))

	if res.Code != http.StatusOK || !*called {
		t.Fatalf("expected handler to run, got %d", res.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	next, called := okHandler()
	handler := Middleware{}.RequirePermission(PermApprovePost)(next)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, callerRequest(&Caller{ID: 1, Role: RoleManager}))
	if res.Code != http.StatusOK || !*called {
		t.Fatalf("manager should pass approve_post, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, callerRequest(&Caller{ID: 2, Role: RoleAdmin}))
	if res.Code != http.StatusForbidden {
		t.Fatalf("admin lacks approve_post by table, got %d", res.Code)
	}
}

func TestRequirePermissionUnknownRoleDenies(t *testing.T) {
	next, _ := okHandler()
	handler := Middleware{}.RequirePermission(PermCreatePost)(next)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, callerRequest(&Caller{ID: 3, Role: Role("ghost")}))
	if res.Code != http.StatusForbidden {
		t.Fatalf("unknown role must deny, got %d", res.Code)
	}
}
