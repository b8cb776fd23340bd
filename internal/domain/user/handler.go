package user

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
)

type Handler struct {
	svc      *Service
	tokens   *auth.TokenIssuer
	sessions *auth.SessionStore
}

func NewHandler(svc *Service, tokens *auth.TokenIssuer, sessions *auth.SessionStore) *Handler {
	return &Handler{svc: svc, tokens: tokens, sessions: sessions}
}

// RegisterRoutes registers the auth endpoints on the server root. The login
// limiter (per-IP) guards the credential endpoint; logout and me sit behind
// the global auth middleware.
func (h *Handler) RegisterRoutes(e *echo.Echo, loginLimiter echo.MiddlewareFunc) {
	g := e.Group("/auth")
	if loginLimiter != nil {
		g.POST("/login", h.Login, loginLimiter)
	} else {
		g.POST("/login", h.Login)
	}
	g.POST("/logout", h.Logout)
	g.GET("/me", h.Me)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Role     string `json:"role"`
	Username string `json:"username"`
}

func (h *Handler) Login(c echo.Context) error {
	// A caller already holding an active session is bounced to its own
	// dashboard; a session with an unrecognized role is cleared so the login
	// can proceed.
	if sess := h.currentSession(c); sess != nil {
		d := auth.CheckLogin(sess)
		if d.ClearSession {
			h.sessions.Clear(sess.JTI)
		}
		if !d.Allowed {
			return c.JSON(http.StatusForbidden, map[string]string{
				"error":    "already authenticated",
				"redirect": d.Redirect,
			})
		}
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	u, err := h.svc.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	token, claims, err := h.tokens.Issue(u.ID, u.Username, u.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not issue token")
	}

	h.sessions.Establish(&auth.Session{
		JTI:       claims.ID,
		UserID:    u.ID.String(),
		Username:  u.Username,
		Role:      u.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	})

	return c.JSON(http.StatusOK, loginResponse{Token: token, Role: u.Role, Username: u.Username})
}

func (h *Handler) Logout(c echo.Context) error {
	if sess := auth.SessionFromContext(c.Request().Context()); sess != nil {
		h.sessions.Clear(sess.JTI)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Me(c echo.Context) error {
	sess := auth.SessionFromContext(c.Request().Context())
	if sess == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"user_id":  sess.UserID,
		"username": sess.Username,
		"role":     sess.Role,
	})
}

// currentSession resolves the session for a bearer token on a public route.
// The login path sits outside the auth middleware, so the token is parsed
// here when one is supplied.
func (h *Handler) currentSession(c echo.Context) *auth.Session {
	header := c.Request().Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil
	}
	claims, err := h.tokens.Parse(parts[1])
	if err != nil {
		return nil
	}
	sess, ok := h.sessions.Current(claims.ID)
	if !ok {
		return nil
	}
	return sess
}
