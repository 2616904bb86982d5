package survey

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
	read := api.Group("", auth.RequirePermission(auth.ResourceSurvey, auth.ActionRead))
	read.GET("/surveys/:id", h.Get)
	read.GET("/patients/:patientId/surveys", h.ListByPatient)
	read.GET("/studies/:studyId/surveys", h.ListByStudy)

	write := api.Group("", auth.RequirePermission(auth.ResourceSurvey, auth.ActionManage))
	write.POST("/surveys", h.Enroll)
	write.POST("/surveys/:id/withdraw", h.Withdraw)
}

func (h *Handler) Enroll(c echo.Context) error {
	var sv Survey
	if err := c.Bind(&sv); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if p := auth.PrincipalFromContext(c.Request().Context()); !p.CanAccessStudy(sv.ClinicalStudyID) {
		return echo.NewHTTPError(http.StatusForbidden, "study not accessible")
	}
	if err := h.svc.Enroll(c.Request().Context(), &sv); err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusCreated, sv)
}

func (h *Handler) Get(c echo.Context) error {
	sv, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httperr.FromError(err)
	}
	if sv == nil {
		return echo.NewHTTPError(http.StatusNotFound, "survey not found")
	}
	if p := auth.PrincipalFromContext(c.Request().Context()); !p.CanAccessStudy(sv.ClinicalStudyID) {
		return echo.NewHTTPError(http.StatusForbidden, "study not accessible")
	}
	return c.JSON(http.StatusOK, sv)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	surveys, err := h.svc.ListByPatient(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, surveys)
}

func (h *Handler) ListByStudy(c echo.Context) error {
	if p := auth.PrincipalFromContext(c.Request().Context()); !p.CanAccessStudy(c.Param("studyId")) {
		return echo.NewHTTPError(http.StatusForbidden, "study not accessible")
	}
	pg := pagination.FromContext(c)
	surveys, next, err := h.svc.ListByStudy(c.Request().Context(), c.Param("studyId"), pg.Limit, pg.Cursor)
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(surveys, pg.Limit, next))
}

func (h *Handler) Withdraw(c echo.Context) error {
	sv, err := h.svc.Withdraw(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, sv)
}
