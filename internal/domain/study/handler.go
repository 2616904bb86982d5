package study

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
	read := api.Group("", auth.RequirePermission(auth.ResourceStudy, auth.ActionRead))
	read.GET("/studies", h.List)
	read.GET("/studies/:id", h.Get)

	write := api.Group("", auth.RequirePermission(auth.ResourceStudy, auth.ActionManage))
	write.POST("/studies", h.Create)
	write.PUT("/studies/:id", h.Update)
	write.PUT("/studies/:id/visit-templates", h.SetVisitTemplates)
	write.PUT("/studies/:id/examination-configs", h.SetExaminationConfigs)
}

func (h *Handler) Create(c echo.Context) error {
	var st ClinicalStudy
	if err := c.Bind(&st); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &st); err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusCreated, st)
}

func (h *Handler) Get(c echo.Context) error {
	st, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httperr.FromError(err)
	}
	if st == nil {
		return echo.NewHTTPError(http.StatusNotFound, "clinical study not found")
	}

	// Instance scoping on top of the role check.
	if p := auth.PrincipalFromContext(c.Request().Context()); !p.CanAccessStudy(st.ClinicalStudyID) {
		return echo.NewHTTPError(http.StatusForbidden, "study not accessible")
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) List(c echo.Context) error {
	studies, err := h.svc.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	p := auth.PrincipalFromContext(c.Request().Context())
	visible := make([]*ClinicalStudy, 0, len(studies))
	for _, st := range studies {
		if p.CanAccessStudy(st.ClinicalStudyID) {
			visible = append(visible, st)
		}
	}
	return c.JSON(http.StatusOK, visible)
}

func (h *Handler) Update(c echo.Context) error {
	var p UpdateParams
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	st, err := h.svc.Update(c.Request().Context(), c.Param("id"), p)
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) SetVisitTemplates(c echo.Context) error {
	var templates []VisitTemplate
	if err := c.Bind(&templates); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	st, err := h.svc.SetVisitTemplates(c.Request().Context(), c.Param("id"), templates)
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) SetExaminationConfigs(c echo.Context) error {
	var configs []ExaminationConfig
	if err := c.Bind(&configs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	st, err := h.svc.SetExaminationConfigs(c.Request().Context(), c.Param("id"), configs)
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, st)
}
