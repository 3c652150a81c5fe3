package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/bhushangy/natours-api/internal/config"
	"github.com/bhushangy/natours-api/internal/handler"
	"github.com/bhushangy/natours-api/internal/metrics"
	"github.com/bhushangy/natours-api/internal/middleware"
	"github.com/bhushangy/natours-api/internal/model"
	"github.com/bhushangy/natours-api/internal/repository"
)

// Deps collects everything route registration needs.
type Deps struct {
	Cfg   config.Config
	Redis *redis.Client
	Users *repository.UserRepo
	Tours *repository.TourRepo
}

// Register wires the full HTTP surface. Tour CRUD is public (listing
// included); the user area splits into public auth endpoints, protected
// self-service endpoints and an admin-only management group.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	tours := handler.NewTourHandler(d.Tours)
	auth := handler.NewAuthHandler(d.Cfg, d.Users)
	users := handler.NewUserHandler(d.Users)

	protect := middleware.Protect(d.Cfg.JWTSecret, d.Users)
	cache := middleware.ResponseCache(config.LoadCacheConfig(), d.Redis)

	// Tour routes. Aliases and aggregates must be registered before /:id so
	// the literal segments are not swallowed by the parameter route.
	tg := e.Group("/api/v1/tours")
	tg.GET("", tours.GetAllTours, cache)
	tg.POST("", tours.CreateTour)
	tg.GET("/top-5-cheap", tours.AliasTopTours, cache)
	tg.GET("/tour-stats", tours.GetTourStats)
	tg.GET("/monthly-plan/:year", tours.GetMonthlyPlan)
	tg.GET("/:id", tours.GetTour)
	tg.PATCH("/:id", tours.UpdateTour)
	tg.DELETE("/:id", tours.DeleteTour)

	// User routes: auth lifecycle first, all public.
	ug := e.Group("/api/v1/users")
	ug.POST("/signup", auth.Signup)
	ug.POST("/login", auth.Login)
	ug.POST("/forgotPassword", auth.ForgotPassword)
	ug.PATCH("/resetPassword/:token", auth.ResetPassword)

	// Self-service endpoints require a valid session.
	ug.PATCH("/updateMyPassword", auth.UpdateMyPassword, protect)
	ug.GET("/me", users.Me, protect)
	ug.PATCH("/updateMe", users.UpdateMe, protect)
	ug.DELETE("/deleteMe", users.DeleteMe, protect)

	// Management endpoints are admin only. RestrictTo runs after Protect
	// has attached the resolved user.
	admin := ug.Group("", protect, middleware.RestrictTo(model.RoleAdmin))
	admin.GET("", users.GetAllUsers)
	admin.GET("/:id", users.GetUser)
	admin.PATCH("/:id", users.UpdateUser)
	admin.DELETE("/:id", users.DeleteUser)
}
