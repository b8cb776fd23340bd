package appointment

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group, sessions *auth.SessionStore) {
	g := api.Group("/appointments")

	patient := g.Group("", auth.RequireRole(sessions, auth.RolePatient))
	patient.POST("", h.Create)
	patient.GET("", h.ListMine)
	patient.PUT("/:id/reschedule", h.Reschedule)
	patient.DELETE("/:id", h.Cancel)

	medecin := g.Group("/medecin", auth.RequireRole(sessions, auth.RoleMedecin))
	medecin.GET("", h.ListForMedecin)
	medecin.GET("/stats", h.GetStats)

	decide := g.Group("", auth.RequireRole(sessions, auth.RoleMedecin))
	decide.PUT("/:id/accept", h.Accept)
	decide.PUT("/:id/reject", h.Reject)
	decide.PUT("/:id/complete", h.Complete)

	// Either party can read a single appointment; ownership is checked in
	// the service.
	g.GET("/:id", h.Get)
}

type createRequest struct {
	AppointmentDate time.Time `json:"appointmentDate"`
	Reason          string    `json:"reason"`
}

type rescheduleRequest struct {
	AppointmentDate time.Time `json:"appointmentDate"`
	Reason          string    `json:"reason,omitempty"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	patientID, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	a, err := h.svc.Create(ctx, patientID, auth.UsernameFromContext(ctx), req.AppointmentDate, req.Reason)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	requesterID, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	a, err := h.svc.Get(ctx, id, requesterID)
	if err != nil {
		return transitionHTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListMine(c echo.Context) error {
	ctx := c.Request().Context()
	patientID, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListForPatient(ctx, patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListForMedecin(c echo.Context) error {
	ctx := c.Request().Context()
	medecinID, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListForMedecin(ctx, medecinID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetStats(c echo.Context) error {
	ctx := c.Request().Context()
	medecinID, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	stats, err := h.svc.Stats(ctx, medecinID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) Accept(c echo.Context) error {
	id, medecinID, err := h.pathAndCaller(c)
	if err != nil {
		return err
	}
	a, fileExists, err := h.svc.Accept(c.Request().Context(), id, medecinID)
	if err != nil {
		return transitionHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"appointment":         a,
		"patient_file_exists": fileExists,
	})
}

func (h *Handler) Reject(c echo.Context) error {
	id, medecinID, err := h.pathAndCaller(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Reject(c.Request().Context(), id, medecinID)
	if err != nil {
		return transitionHTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Complete(c echo.Context) error {
	id, medecinID, err := h.pathAndCaller(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Complete(c.Request().Context(), id, medecinID)
	if err != nil {
		return transitionHTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, patientID, err := h.pathAndCaller(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Cancel(c.Request().Context(), id, patientID)
	if err != nil {
		return transitionHTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Reschedule(c echo.Context) error {
	id, patientID, err := h.pathAndCaller(c)
	if err != nil {
		return err
	}
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.Reschedule(c.Request().Context(), id, patientID, req.AppointmentDate, req.Reason)
	if err != nil {
		return transitionHTTPError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) pathAndCaller(c echo.Context) (uuid.UUID, uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	callerID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return id, callerID, nil
}

// transitionHTTPError maps service errors onto HTTP statuses: missing rows to
// 404, ownership failures to 403, lifecycle refusals to 409, the rest to 400.
func transitionHTTPError(err error) *echo.HTTPError {
	var se StateError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.As(err, &se):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
