package auth

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Roles known to the clinic.
const (
	RoleMedecin = "MEDECIN"
	RolePatient = "PATIENT"
)

// Client-side landing paths used in redirect hints.
const (
	LoginPath            = "/auth"
	MedecinDashboardPath = "/medecin-dashboard"
	PatientDashboardPath = "/patient-dashboard"
)

// KnownRole reports whether the role is one the clinic recognizes.
func KnownRole(role string) bool {
	return role == RoleMedecin || role == RolePatient
}

// DashboardPath returns the landing page for a role. Unknown roles land on
// the login page.
func DashboardPath(role string) string {
	switch role {
	case RoleMedecin:
		return MedecinDashboardPath
	case RolePatient:
		return PatientDashboardPath
	default:
		return LoginPath
	}
}

// Decision is the outcome of evaluating a guarded route against a session.
// Evaluation is pure: the same session state always yields the same decision.
type Decision struct {
	Allowed      bool
	Redirect     string
	ClearSession bool
}

// CheckRole evaluates access to a route restricted to the given role.
// Without an authenticated session the visitor is sent to login and any
// stale session state is cleared. A session with an unrecognized role is
// treated the same way. A session with the wrong role keeps its session and
// is redirected to its own dashboard.
func CheckRole(sess *Session, required string) Decision {
	if sess == nil {
		return Decision{Redirect: LoginPath, ClearSession: true}
	}
	if !KnownRole(sess.Role) {
		return Decision{Redirect: LoginPath, ClearSession: true}
	}
	if sess.Role != required {
		return Decision{Redirect: DashboardPath(sess.Role)}
	}
	return Decision{Allowed: true}
}

// CheckLogin evaluates access to the login route, which only anonymous
// visitors may use. An authenticated session is bounced to its dashboard; a
// session with an unrecognized role is cleared and allowed through.
func CheckLogin(sess *Session) Decision {
	if sess == nil {
		return Decision{Allowed: true}
	}
	if !KnownRole(sess.Role) {
		return Decision{Allowed: true, ClearSession: true}
	}
	return Decision{Redirect: DashboardPath(sess.Role)}
}

// RequireRole returns middleware that enforces the given role on a route
// group. Denied requests carry the path the client should land on: 401 with
// a login redirect when no session is present (clearing any stale session),
// 403 with the caller's own dashboard on a role mismatch.
func RequireRole(store *SessionStore, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := SessionFromContext(c.Request().Context())
			d := CheckRole(sess, role)
			if d.Allowed {
				return next(c)
			}

			if d.ClearSession && sess != nil {
				store.Clear(sess.JTI)
			}

			if d.Redirect == LoginPath {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error":    "authentication required",
					"redirect": d.Redirect,
				})
			}
			return c.JSON(http.StatusForbidden, map[string]string{
				"error":    fmt.Sprintf("required role: %s", role),
				"redirect": d.Redirect,
			})
		}
	}
}
