package organization

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trialdata/trialdata/internal/platform/auth"
	"github.com/trialdata/trialdata/internal/platform/httperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequirePermission(auth.ResourceOrganization, auth.ActionRead))
	read.GET("/organizations", h.List)
	read.GET("/organizations/:id", h.Get, auth.RequireOrganizationAccess("id"))

	write := api.Group("", auth.RequirePermission(auth.ResourceOrganization, auth.ActionManage))
	write.POST("/organizations", h.Create)
	write.PUT("/organizations/:id", h.Update, auth.RequireOrganizationAccess("id"))
	write.POST("/organizations/:id/studies", h.AddStudy, auth.RequireOrganizationAccess("id"))
	write.DELETE("/organizations/:id/studies/:studyId", h.RemoveStudy, auth.RequireOrganizationAccess("id"))

	api.DELETE("/organizations/:id", h.Deactivate,
		auth.RequirePermission(auth.ResourceOrganization, auth.ActionDelete))
}

func (h *Handler) Create(c echo.Context) error {
	var o Organization
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &o); err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) Get(c echo.Context) error {
	o, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httperr.FromError(err)
	}
	if o == nil {
		return echo.NewHTTPError(http.StatusNotFound, "organization not found")
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) List(c echo.Context) error {
	orgs, err := h.svc.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, orgs)
}

func (h *Handler) Update(c echo.Context) error {
	var p UpdateParams
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o, err := h.svc.Update(c.Request().Context(), c.Param("id"), p)
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) Deactivate(c echo.Context) error {
	o, err := h.svc.Deactivate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) AddStudy(c echo.Context) error {
	var body struct {
		ClinicalStudyID string `json:"clinicalStudyId"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o, err := h.svc.AddStudy(c.Request().Context(), c.Param("id"), body.ClinicalStudyID)
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) RemoveStudy(c echo.Context) error {
	o, err := h.svc.RemoveStudy(c.Request().Context(), c.Param("id"), c.Param("studyId"))
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, o)
}
