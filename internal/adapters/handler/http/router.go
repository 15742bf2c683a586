package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/comitanigiacomo/kanso-progress/internal/adapters/handler/http/middleware"
	_ "github.com/comitanigiacomo/kanso-progress/internal/docs"
)

// StorePinger reports whether the backing store is reachable.
type StorePinger interface {
	Ping(ctx context.Context) error
}

type RouterDependencies struct {
	AuthHandler     *AuthHandler
	GoalHandler     *GoalHandler
	TaskHandler     *TaskHandler
	ActivityHandler *ActivityHandler
	TokenService    middleware.TokenValidator
	Store           StorePinger
	StoreName       string
	Redis           *redis.Client
	RateLimit       int
	StartTime       time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"POST", "GET", "OPTIONS", "PUT", "DELETE"},
		AllowHeaders:    []string{"Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/health", healthHandler(deps))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := router.Group("/api/v1")

	// The limiter runs after authentication on protected routes so that
	// signed-in users are counted per user rather than per address.
	var limit []gin.HandlerFunc
	if deps.Redis != nil && deps.RateLimit > 0 {
		limit = append(limit, middleware.RateLimiterMiddleware(deps.Redis, deps.RateLimit, time.Minute))
	}

	public := apiV1.Group("", limit...)
	deps.AuthHandler.RegisterRoutes(public)

	protected := apiV1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.TokenService))
	protected.Use(limit...)
	{
		deps.AuthHandler.RegisterAccountRoutes(protected)
		deps.GoalHandler.RegisterRoutes(protected)
		deps.TaskHandler.RegisterRoutes(protected)
		deps.ActivityHandler.RegisterRoutes(protected)
	}

	return router
}

func healthHandler(deps RouterDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		statusCode := http.StatusOK

		storeStatus := "connected"
		if deps.Store != nil && deps.Store.Ping(ctx) != nil {
			storeStatus = "unreachable"
			statusCode = http.StatusServiceUnavailable
		}

		redisStatus := "disabled"
		if deps.Redis != nil {
			redisStatus = "connected"
			if deps.Redis.Ping(ctx).Err() != nil {
				redisStatus = "unreachable"
				statusCode = http.StatusServiceUnavailable
			}
		}

		status := "ok"
		if statusCode != http.StatusOK {
			status = "degraded"
		}

		c.JSON(statusCode, gin.H{
			"status":   status,
			"store":    deps.StoreName,
			"database": storeStatus,
			"redis":    redisStatus,
			"uptime":   time.Since(deps.StartTime).String(),
		})
	}
}
