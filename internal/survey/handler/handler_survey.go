package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"surveydir/internal/survey/model"
)

// PostSurvey handles POST /surveys
func (h *SurveyHandler) PostSurvey(c echo.Context) error {
	var req model.CreateSurveyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error: model.ErrorDetail{Code: "bad_request", Message: "Invalid body"},
		})
	}

	survey, err := h.Service.CreateSurvey(c.Request().Context(), actorFrom(c), req)
	if err != nil {
		code, body := httpError(err)
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusCreated, survey)
}

// GetSurveys handles GET /surveys
func (h *SurveyHandler) GetSurveys(c echo.Context) error {
	var req model.ListSurveysReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error: model.ErrorDetail{Code: "bad_request", Message: "Invalid parameters"},
		})
	}

	surveys, err := h.Service.ListSurveys(c.Request().Context(), actorFrom(c), req)
	if err != nil {
		code, body := httpError(err)
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusOK, surveys)
}

// GetSurvey handles GET /surveys/:id
func (h *SurveyHandler) GetSurvey(c echo.Context) error {
	survey, err := h.Service.GetSurvey(c.Request().Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		code, body := httpError(err)
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusOK, survey)
}

// PutSurvey handles PUT /surveys/:id
func (h *SurveyHandler) PutSurvey(c echo.Context) error {
	var req model.UpdateSurveyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error: model.ErrorDetail{Code: "bad_request", Message: "Invalid body"},
		})
	}

	survey, err := h.Service.UpdateSurvey(c.Request().Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		code, body := httpError(err)
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusOK, survey)
}

// DeleteSurvey handles DELETE /surveys/:id
func (h *SurveyHandler) DeleteSurvey(c echo.Context) error {
	if err := h.Service.DeleteSurvey(c.Request().Context(), actorFrom(c), c.Param("id")); err != nil {
		code, body := httpError(err)
		return c.JSON(code, body)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "success"})
}
