package router

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"surveydir/internal/survey/handler"
)

// RegisterRoutes wires the HTTP surface. The handler and auth secret are
// built once in main and passed in; nothing here is mutated afterwards.
func RegisterRoutes(e *echo.Echo, h *handler.SurveyHandler, jwtSecret string) {
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.PUT, echo.POST, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Health Check
	e.GET("/health", handler.HealthCheck)

	v1 := e.Group("/api/v1")
	v1.Use(handler.RequestIDMiddleware)
	v1.Use(handler.AuthMiddleware(jwtSecret))

	// Survey CRUD
	v1.POST("/surveys", h.PostSurvey)
	v1.GET("/surveys", h.GetSurveys)
	v1.GET("/surveys/:id", h.GetSurvey)
	v1.PUT("/surveys/:id", h.PutSurvey)
	v1.DELETE("/surveys/:id", h.DeleteSurvey)

	// Verification workflow
	v1.POST("/surveys/:id/submit", h.PostSubmit)
	v1.POST("/surveys/:id/verify", h.PostVerify)
	v1.POST("/surveys/:id/resubmit", h.PostResubmit)
	v1.POST("/surveys/:id/assign", h.PostAssign)

	// Audit trail
	v1.GET("/surveys/:id/audit-logs", h.GetAuditLogs)
}
