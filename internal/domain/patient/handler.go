package patient

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trialdata/trialdata/internal/platform/auth"
	"github.com/trialdata/trialdata/internal/platform/httperr"
	"github.com/trialdata/trialdata/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequirePermission(auth.ResourcePatient, auth.ActionRead))
	read.GET("/patients/:id", h.Get)
	read.GET("/organizations/:orgId/patients", h.ListByOrganization, auth.RequireOrganizationAccess("orgId"))

	write := api.Group("", auth.RequirePermission(auth.ResourcePatient, auth.ActionManage))
	write.POST("/patients", h.Register)
	write.PUT("/patients/:id", h.Update)
	write.POST("/patients/:id/withdraw", h.Withdraw)
	write.POST("/patients/:id/studies", h.AddToStudy)
}

func (h *Handler) Register(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Registration is scoped to organizations the caller can touch.
	if principal := auth.PrincipalFromContext(c.Request().Context()); !principal.CanAccessOrganization(p.OrganizationID) {
		return echo.NewHTTPError(http.StatusForbidden, "organization not accessible")
	}

	if err := h.svc.Register(c.Request().Context(), &p); err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httperr.FromError(err)
	}
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	if principal := auth.PrincipalFromContext(c.Request().Context()); !principal.CanAccessOrganization(p.OrganizationID) {
		return echo.NewHTTPError(http.StatusForbidden, "organization not accessible")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListByOrganization(c echo.Context) error {
	pg := pagination.FromContext(c)
	patients, next, err := h.svc.ListByOrganization(c.Request().Context(), c.Param("orgId"), pg.Limit, pg.Cursor)
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, pg.Limit, next))
}

func (h *Handler) Update(c echo.Context) error {
	var p UpdateParams
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	updated, err := h.svc.Update(c.Request().Context(), c.Param("id"), p)
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) Withdraw(c echo.Context) error {
	p, err := h.svc.Withdraw(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) AddToStudy(c echo.Context) error {
	var body struct {
		ClinicalStudyID string `json:"clinicalStudyId"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.AddToStudy(c.Request().Context(), c.Param("id"), body.ClinicalStudyID)
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, p)
}
