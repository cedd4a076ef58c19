package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"surveydir/internal/survey/model"
)

const actorContextKey = "actor"

// Claims is the token shape the external identity provider issues: subject
// is the user id, role and superuser mirror the directory record.
type Claims struct {
	Role      string `json:"role"`
	Superuser bool   `json:"superuser,omitempty"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the bearer token and stores the resulting Actor
// in the request context. Requests without a valid token never reach a
// handler.
func AuthMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr := c.Request().Header.Get(echo.HeaderAuthorization)
			if tokenStr == "" {
				return c.JSON(http.StatusUnauthorized, model.ErrorResponse{
					Error: model.ErrorDetail{Code: "unauthorized", Message: "missing bearer token"},
				})
			}
			tokenStr = strings.TrimSpace(strings.TrimPrefix(tokenStr, "Bearer "))

			token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				return c.JSON(http.StatusUnauthorized, model.ErrorResponse{
					Error: model.ErrorDetail{Code: "unauthorized", Message: "invalid or expired token"},
				})
			}

			claims, ok := token.Claims.(*Claims)
			if !ok || claims.Subject == "" {
				return c.JSON(http.StatusUnauthorized, model.ErrorResponse{
					Error: model.ErrorDetail{Code: "unauthorized", Message: "invalid claims"},
				})
			}

			// Unknown roles pass through as-is; the decision engine fails
			// closed on them.
			role, _ := model.ParseRole(claims.Role)
			c.Set(actorContextKey, &model.Actor{
				ID:        claims.Subject,
				Role:      role,
				Superuser: claims.Superuser,
			})
			return next(c)
		}
	}
}

// actorFrom returns the authenticated actor, or nil outside the auth
// middleware.
func actorFrom(c echo.Context) *model.Actor {
	actor, _ := c.Get(actorContextKey).(*model.Actor)
	return actor
}

// NewToken signs a token for the given actor. Used by tests and local
// tooling; production tokens come from the identity provider.
func NewToken(secret string, actor *model.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role:      string(actor.Role),
		Superuser: actor.Superuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
