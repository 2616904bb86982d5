package visit

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
	read := api.Group("", auth.RequirePermission(auth.ResourceVisit, auth.ActionRead))
	read.GET("/surveys/:surveyId/visits", h.ListBySurvey)
	read.GET("/surveys/:surveyId/visits/:visitId", h.Get)
	read.GET("/surveys/:surveyId/visits/:visitId/window", h.CheckWindow)

	write := api.Group("", auth.RequirePermission(auth.ResourceVisit, auth.ActionManage))
	write.POST("/surveys/:surveyId/visits", h.Create)
	write.POST("/surveys/:surveyId/visits/:visitId/examinations/:exam/complete", h.CompleteExamination)
	write.POST("/surveys/:surveyId/visits/:visitId/examinations/:exam/skip", h.SkipExamination)
	write.PUT("/surveys/:surveyId/visits/:visitId/schedule", h.Reschedule)
}

func (h *Handler) Create(c echo.Context) error {
	var v Visit
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v.SurveyID = c.Param("surveyId")
	if err := h.svc.Create(c.Request().Context(), &v); err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) Get(c echo.Context) error {
	v, err := h.svc.Get(c.Request().Context(), c.Param("surveyId"), c.Param("visitId"))
	if err != nil {
		return httperr.FromError(err)
	}
	if v == nil {
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) ListBySurvey(c echo.Context) error {
	visits, err := h.svc.ListBySurvey(c.Request().Context(), c.Param("surveyId"))
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, visits)
}

func (h *Handler) CompleteExamination(c echo.Context) error {
	v, err := h.svc.CompleteExamination(c.Request().Context(),
		c.Param("surveyId"), c.Param("visitId"), c.Param("exam"))
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) SkipExamination(c echo.Context) error {
	v, err := h.svc.SkipExamination(c.Request().Context(),
		c.Param("surveyId"), c.Param("visitId"), c.Param("exam"))
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Reschedule(c echo.Context) error {
	var body struct {
		ScheduledDate   string `json:"scheduledDate"`
		WindowStartDate string `json:"windowStartDate"`
		WindowEndDate   string `json:"windowEndDate"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.Reschedule(c.Request().Context(), c.Param("surveyId"), c.Param("visitId"),
		body.ScheduledDate, body.WindowStartDate, body.WindowEndDate)
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) CheckWindow(c echo.Context) error {
	actual := c.QueryParam("date")
	if actual == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date query parameter is required")
	}
	classification, err := h.svc.CheckWindow(c.Request().Context(), c.Param("surveyId"), c.Param("visitId"), actual)
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"window": classification})
}
