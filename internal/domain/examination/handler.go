package examination

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
	read := api.Group("", auth.RequirePermission(auth.ResourceExamination, auth.ActionRead))
	read.GET("/visits/:visitId/examinations/:kind", h.GetBothEyes)
	read.GET("/visits/:visitId/examinations/:kind/cross-eye", h.CrossEye)
	read.GET("/surveys/:surveyId/examinations/:kind", h.ListBySurvey)
	read.GET("/surveys/:surveyId/examinations/:kind/compare", h.CompareVisits)
	read.GET("/surveys/:surveyId/examinations/:kind/trend", h.Trend)

	write := api.Group("", auth.RequirePermission(auth.ResourceExamination, auth.ActionManage))
	write.POST("/visits/:visitId/examinations/:kind", h.Create)
	write.POST("/visits/:visitId/examinations/:kind/both-eyes", h.CreateBothEyes)
}

func (h *Handler) kind(c echo.Context) (Kind, error) {
	kind := Kind(c.Param("kind"))
	if !ValidKind(kind) {
		return "", echo.NewHTTPError(http.StatusBadRequest, "unknown examination kind")
	}
	return kind, nil
}

func (h *Handler) Create(c echo.Context) error {
	kind, err := h.kind(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in.Kind = kind
	in.VisitID = c.Param("visitId")

	rec, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) CreateBothEyes(c echo.Context) error {
	kind, err := h.kind(c)
	if err != nil {
		return err
	}
	var body struct {
		Right map[string]interface{} `json:"right"`
		Left  map[string]interface{} `json:"left"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.CreateBothEyes(c.Request().Context(), c.Param("visitId"), kind, body.Right, body.Left)
	if err != nil {
		return httperr.FromError(err)
	}
	// Partial success still reports 201 with per-eye outcomes; the caller
	// inspects rightError/leftError.
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) GetBothEyes(c echo.Context) error {
	kind, err := h.kind(c)
	if err != nil {
		return err
	}
	pair, err := h.svc.GetBothEyes(c.Request().Context(), kind, c.Param("visitId"))
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *Handler) ListBySurvey(c echo.Context) error {
	kind, err := h.kind(c)
	if err != nil {
		return err
	}
	records, err := h.svc.FindBySurvey(c.Request().Context(), kind, c.Param("surveyId"))
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, records)
}

func (h *Handler) CompareVisits(c echo.Context) error {
	kind, err := h.kind(c)
	if err != nil {
		return err
	}
	records, err := h.svc.CompareVisits(c.Request().Context(), kind, c.Param("surveyId"), EyeSide(c.QueryParam("eyeside")))
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, records)
}

func (h *Handler) Trend(c echo.Context) error {
	kind, err := h.kind(c)
	if err != nil {
		return err
	}
	field := c.QueryParam("field")
	if field == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "field query parameter is required")
	}
	report, err := h.svc.TrendForSurvey(c.Request().Context(), kind, c.Param("surveyId"), EyeSide(c.QueryParam("eyeside")), field)
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) CrossEye(c echo.Context) error {
	kind, err := h.kind(c)
	if err != nil {
		return err
	}
	field := c.QueryParam("field")
	if field == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "field query parameter is required")
	}
	report, err := h.svc.CrossEyeReport(c.Request().Context(), kind, c.Param("visitId"), field)
	if err != nil {
		return httperr.FromError(err)
	}
	return c.JSON(http.StatusOK, report)
}
