package api

import (
	"database/sql"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/orderdesk/order-system/internal/api/handler"
	"github.com/orderdesk/order-system/internal/api/middleware"
	"github.com/orderdesk/order-system/internal/core/domain"
	"github.com/orderdesk/order-system/internal/core/ports"
)

// NewAuthRouter builds the Echo instance for the auth service.
func NewAuthRouter(db *sql.DB, authService ports.AuthService, jwtSecret string, log zerolog.Logger) *echo.Echo {
	e := newEcho("authsvc", log)

	authHandler := handler.NewAuthHandler(authService)
	authMiddleware := middleware.Auth(jwtSecret)

	e.POST("/register", authHandler.Register)
	e.POST("/login", authHandler.Login)
	e.GET("/profile", authHandler.Profile, authMiddleware)
	e.GET("/users", authHandler.Users, authMiddleware, middleware.RBAC(domain.RoleAdmin))

	registerHealth(e, db)

	return e
}

// NewOrderRouter builds the Echo instance for the order service.
// Every order route requires a bearer token.
func NewOrderRouter(db *sql.DB, orderService ports.OrderService, jwtSecret string, log zerolog.Logger) *echo.Echo {
	e := newEcho("ordersvc", log)

	orderHandler := handler.NewOrderHandler(orderService)
	g := e.Group("/orders", middleware.Auth(jwtSecret))

	g.GET("", orderHandler.List)
	g.GET("/stats", orderHandler.Stats)
	g.GET("/:id", orderHandler.Get)
	g.POST("", orderHandler.Create)
	g.PUT("/:id/status", orderHandler.UpdateStatus)
	g.DELETE("/:id", orderHandler.Delete)

	registerHealth(e, db)

	return e
}

func newEcho(subsystem string, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware(subsystem))

	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}

func registerHealth(e *echo.Echo, db *sql.DB) {
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db)

	e.GET("/health", healthHandler.Liveness)          // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – is the store up?
}
