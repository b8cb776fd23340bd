package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestCheckRole_NoSession(t *testing.T) {
	d := CheckRole(nil, RolePatient)
	if d.Allowed {
		t.Error("expected deny without a session")
	}
	// The login page lives at /auth; pin the literal so the constant cannot
	// silently drift away from the client's route.
	if d.Redirect != "/auth" {
		t.Errorf(`expected redirect to "/auth", got %s`, d.Redirect)
	}
	if !d.ClearSession {
		t.Error("expected session clear without a session")
	}
}

func TestCheckRole_Match(t *testing.T) {
	sess := newTestSession("jti-1", "user-1", RolePatient)
	d := CheckRole(sess, RolePatient)
	if !d.Allowed {
		t.Error("expected allow for matching role")
	}
	if d.ClearSession {
		t.Error("expected no session clear on allow")
	}
}

func TestCheckRole_Mismatch(t *testing.T) {
	sess := newTestSession("jti-1", "user-1", RoleMedecin)
	d := CheckRole(sess, RolePatient)
	if d.Allowed {
		t.Error("expected deny for role mismatch")
	}
	if d.Redirect != MedecinDashboardPath {
		t.Errorf("expected redirect to caller's own dashboard %s, got %s", MedecinDashboardPath, d.Redirect)
	}
	if d.ClearSession {
		t.Error("mismatched role must keep its session")
	}
}

func TestCheckRole_UnknownRole(t *testing.T) {
	sess := newTestSession("jti-1", "user-1", "SUPERVISOR")
	d := CheckRole(sess, RolePatient)
	if d.Allowed {
		t.Error("expected deny for unknown role")
	}
	if d.Redirect != LoginPath {
		t.Errorf("expected redirect to %s, got %s", LoginPath, d.Redirect)
	}
	if !d.ClearSession {
		t.Error("expected session clear for unknown role")
	}
}

func TestCheckRole_Idempotent(t *testing.T) {
	sess := newTestSession("jti-1", "user-1", RoleMedecin)
	first := CheckRole(sess, RolePatient)
	second := CheckRole(sess, RolePatient)
	if first != second {
		t.Errorf("expected identical decisions, got %+v and %+v", first, second)
	}
}

func TestCheckLogin(t *testing.T) {
	if d := CheckLogin(nil); !d.Allowed {
		t.Error("expected anonymous visitor to reach login")
	}

	d := CheckLogin(newTestSession("jti-1", "user-1", RolePatient))
	if d.Allowed {
		t.Error("expected authenticated session to be bounced from login")
	}
	if d.Redirect != PatientDashboardPath {
		t.Errorf("expected redirect to %s, got %s", PatientDashboardPath, d.Redirect)
	}

	d = CheckLogin(newTestSession("jti-1", "user-1", "SUPERVISOR"))
	if !d.Allowed {
		t.Error("expected unknown-role session to be allowed through to login")
	}
	if !d.ClearSession {
		t.Error("expected unknown-role session to be cleared")
	}
}

func TestDashboardPath(t *testing.T) {
	cases := map[string]string{
		RoleMedecin:  MedecinDashboardPath,
		RolePatient:  PatientDashboardPath,
		"SUPERVISOR": LoginPath,
		"":           LoginPath,
	}
	for role, want := range cases {
		if got := DashboardPath(role); got != want {
			t.Errorf("DashboardPath(%q) = %q, want %q", role, got, want)
		}
	}
}

// requestWithSession builds an echo context whose request context carries sess.
func requestWithSession(e *echo.Echo, sess *Session) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	if sess != nil {
		ctx := context.WithValue(req.Context(), SessionKey, sess)
		req = req.WithContext(ctx)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRequireRole_Allows(t *testing.T) {
	e := echo.New()
	store := NewSessionStore()
	defer store.Close()

	sess := newTestSession("jti-1", "user-1", RolePatient)
	store.Establish(sess)
	c, _ := requestWithSession(e, sess)

	called := false
	h := RequireRole(store, RolePatient)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Error("expected next handler to be called")
	}
}

func TestRequireRole_Unauthenticated(t *testing.T) {
	e := echo.New()
	store := NewSessionStore()
	defer store.Close()

	c, rec := requestWithSession(e, nil)

	h := RequireRole(store, RolePatient)(func(c echo.Context) error {
		t.Fatal("next handler must not be called")
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["redirect"] != LoginPath {
		t.Errorf("expected redirect %s, got %s", LoginPath, body["redirect"])
	}
}

func TestRequireRole_Mismatch(t *testing.T) {
	e := echo.New()
	store := NewSessionStore()
	defer store.Close()

	sess := newTestSession("jti-1", "user-1", RoleMedecin)
	store.Establish(sess)
	c, rec := requestWithSession(e, sess)

	h := RequireRole(store, RolePatient)(func(c echo.Context) error {
		t.Fatal("next handler must not be called")
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["redirect"] != MedecinDashboardPath {
		t.Errorf("expected redirect %s, got %s", MedecinDashboardPath, body["redirect"])
	}

	// Session survives a role mismatch.
	if !store.IsAuthenticated("jti-1") {
		t.Error("expected session to survive role mismatch")
	}
}

func TestRequireRole_UnknownRoleClearsSession(t *testing.T) {
	e := echo.New()
	store := NewSessionStore()
	defer store.Close()

	sess := &Session{JTI: "jti-x", UserID: "user-1", Role: "SUPERVISOR", ExpiresAt: time.Now().Add(time.Hour)}
	store.Establish(sess)
	c, rec := requestWithSession(e, sess)

	h := RequireRole(store, RolePatient)(func(c echo.Context) error {
		t.Fatal("next handler must not be called")
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if store.IsAuthenticated("jti-x") {
		t.Error("expected unknown-role session to be cleared")
	}
}
