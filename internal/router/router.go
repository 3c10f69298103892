package router

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"postboard/internal/auth"
	"postboard/internal/errors"
	"postboard/internal/handler"
	"postboard/internal/metrics"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	jwtService *auth.JWTService,
	authHandler *handler.AuthHandler,
	postHandler *handler.PostHandler,
) {
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(metrics.Middleware())

	e.Validator = handler.NewValidator()

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", metrics.Handler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.POST("/posts", postHandler.CreatePost)
	api.GET("/posts", postHandler.ListPosts)

	// Secured routes (require a bearer token)
	secured := api.Group("", JWTMiddleware(jwtService))
	secured.GET("/me", authHandler.Me)
}

// JWTMiddleware authenticates "Authorization: Bearer <token>" with
// jwtService and stores *auth.Claims under the "user" context key.
func JWTMiddleware(jwtService *auth.JWTService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				metrics.JWTValidationsFailed.Inc()
				return nil, err
			}
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Error: "invalid or expired token",
				Code:  "INVALID_TOKEN",
			})
		},
	})
}
