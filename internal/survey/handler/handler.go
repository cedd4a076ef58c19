package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"surveydir/internal/survey/service"
)

type SurveyHandler struct {
	Service service.SurveyService
}

func NewSurveyHandler(s service.SurveyService) *SurveyHandler {
	return &SurveyHandler{Service: s}
}

func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
