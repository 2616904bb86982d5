package draft

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trialdata/trialdata/internal/domain/examination"
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
	read := api.Group("", auth.RequirePermission(auth.ResourceDraft, auth.ActionRead))
	read.GET("/visits/:visitId/draft", h.Get)
	read.GET("/visits/:visitId/draft/summary", h.Summary)
	read.GET("/visits/:visitId/draft/validation", h.Validate)

	write := api.Group("", auth.RequirePermission(auth.ResourceDraft, auth.ActionManage))
	write.POST("/visits/:visitId/draft", h.Initialize)
	write.PUT("/visits/:visitId/draft/examinations/:exam", h.UpdateExaminationData)
	write.PUT("/visits/:visitId/draft/eyes/:eye", h.BatchUpdateEyeData)
	write.POST("/visits/:visitId/draft/autosave", h.AutoSave)
	write.POST("/visits/:visitId/draft/steps/:step/complete", h.CompleteStep)
	write.PUT("/visits/:visitId/draft/progress", h.UpdateProgress)
	write.POST("/visits/:visitId/draft/backup", h.CreateBackup)
	write.POST("/visits/:visitId/draft/submit", h.Submit)
}

func (h *Handler) Initialize(c echo.Context) error {
	var body struct {
		ExaminationOrder []string `json:"examinationOrder"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.Initialize(c.Request().Context(), c.Param("visitId"), body.ExaminationOrder)
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) Get(c echo.Context) error {
	d, err := h.svc.Get(c.Request().Context(), c.Param("visitId"))
	if err != nil {
		return httperr.FromError(err)
	}
	if d == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no draft for this visit")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateExaminationData(c echo.Context) error {
	var body struct {
		EyeSide examination.EyeSide    `json:"eyeside"`
		Data    map[string]interface{} `json:"data"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.UpdateExaminationData(c.Request().Context(),
		c.Param("visitId"), c.Param("exam"), body.EyeSide, body.Data)
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) BatchUpdateEyeData(c echo.Context) error {
	var body struct {
		Updates map[string]map[string]interface{} `json:"updates"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.BatchUpdateEyeData(c.Request().Context(),
		c.Param("visitId"), examination.EyeSide(c.Param("eye")), body.Updates)
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) AutoSave(c echo.Context) error {
	var body struct {
		BaseVersion int                `json:"baseVersion"`
		Updates     map[string]EyeData `json:"updates"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.AutoSave(c.Request().Context(), c.Param("visitId"), body.Updates, body.BaseVersion)
	if err != nil {
		return httperr.FromError(err)
	}
	if result.Conflict {
		return c.JSON(http.StatusConflict, result)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) CompleteStep(c echo.Context) error {
	step, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "step must be an integer")
	}
	d, err := h.svc.CompleteStep(c.Request().Context(), c.Param("visitId"), step)
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateProgress(c echo.Context) error {
	var body struct {
		CurrentStep int `json:"currentStep"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.UpdateProgress(c.Request().Context(), c.Param("visitId"), body.CurrentStep)
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Summary(c echo.Context) error {
	summary, err := h.svc.CompletionSummary(c.Request().Context(), c.Param("visitId"))
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) Validate(c echo.Context) error {
	report, err := h.svc.Validate(c.Request().Context(), c.Param("visitId"))
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) CreateBackup(c echo.Context) error {
	backup, err := h.svc.CreateBackup(c.Request().Context(), c.Param("visitId"))
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusCreated, backup)
}

func (h *Handler) Submit(c echo.Context) error {
	result, err := h.svc.Submit(c.Request().Context(), c.Param("visitId"))
	if err != nil {
		return httperr.FromError(err)
	}
	if !result.Submitted {
		return c.JSON(http.StatusConflict, result)
	}
	return c.JSON(http.StatusOK, result)
}
