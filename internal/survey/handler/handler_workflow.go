package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"surveydir/internal/survey/model"
)

// PostSubmit handles POST /surveys/:id/submit
func (h *SurveyHandler) PostSubmit(c echo.Context) error {
	var req model.SubmitSurveyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error: model.ErrorDetail{Code: "bad_request", Message: "Invalid body"},
		})
	}

	survey, err := h.Service.SubmitSurvey(c.Request().Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		code, body := httpError(err)
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusOK, survey)
}

// PostVerify handles POST /surveys/:id/verify with action verify|reject
func (h *SurveyHandler) PostVerify(c echo.Context) error {
	var req model.VerifySurveyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error: model.ErrorDetail{Code: "bad_request", Message: "Invalid body"},
		})
	}

	survey, err := h.Service.VerifySurvey(c.Request().Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		code, body := httpError(err)
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusOK, survey)
}

// PostResubmit handles POST /surveys/:id/resubmit
func (h *SurveyHandler) PostResubmit(c echo.Context) error {
	survey, err := h.Service.ResubmitSurvey(c.Request().Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		code, body := httpError(err)
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusOK, survey)
}

// PostAssign handles POST /surveys/:id/assign
func (h *SurveyHandler) PostAssign(c echo.Context) error {
	var req model.AssignVerifierReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error: model.ErrorDetail{Code: "bad_request", Message: "Invalid body"},
		})
	}

	survey, err := h.Service.AssignVerifier(c.Request().Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		code, body := httpError(err)
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusOK, survey)
}

// GetAuditLogs handles GET /surveys/:id/audit-logs
func (h *SurveyHandler) GetAuditLogs(c echo.Context) error {
	entries, err := h.Service.AuditFor(c.Request().Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		code, body := httpError(err)
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusOK, entries)
}
