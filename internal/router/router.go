package router

import (
	"net/http"

	"github.com/3Eeeecho/go-divelog/internal/config"
	"github.com/3Eeeecho/go-divelog/internal/handlers"
	"github.com/3Eeeecho/go-divelog/internal/middlewares"
	"github.com/3Eeeecho/go-divelog/internal/pkg/metrics"
	"github.com/3Eeeecho/go-divelog/internal/pkg/xerr"
	"github.com/3Eeeecho/go-divelog/internal/repositories"
	"github.com/3Eeeecho/go-divelog/internal/services/access"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the HTTP handlers mounted by InitRouter.
type Handlers struct {
	Auth  *handlers.AuthHandler
	User  *handlers.UserHandler
	Dive  *handlers.DiveHandler
	Share *handlers.ShareHandler
}

// Deps are the collaborators the middlewares need.
type Deps struct {
	UserRepo repositories.UserRepository
	Gateway  access.Gateway
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer // nil disables /metrics
}

func InitRouter(cfg *config.Config, h Handlers, deps Deps) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middlewares.RequestID())
	if deps.Metrics != nil {
		router.Use(middlewares.Metrics(deps.Metrics))
	}

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", h.Auth.Register)
			authGroup.POST("/login", h.Auth.Login)
		}

		// token resolution needs no session
		v1.GET("/shares/dive/:token", h.Share.ViewSharedDive)

		authenticated := v1.Group("/")
		authenticated.Use(middlewares.AuthMiddleware(&cfg.JWT, deps.UserRepo))

		userGroup := authenticated.Group("/users")
		{
			userGroup.GET("/search", h.User.SearchUsers)
			userGroup.GET("/me", h.User.GetUserProfile)
			userGroup.PATCH("/me", h.User.UpdateProfile)
			userGroup.DELETE("/me", h.User.Deactivate)
		}

		diveGroup := authenticated.Group("/dives")
		{
			diveGroup.GET("", h.Dive.ListDives)
			diveGroup.POST("", h.Dive.CreateDive)

			owned := diveGroup.Group("/:dive_id", middlewares.DiveOwnerRequired(deps.Gateway))
			owned.GET("", h.Dive.GetDive)
			owned.PUT("", h.Dive.UpdateDive)
			owned.DELETE("", h.Dive.DeleteDive)
		}

		shareGroup := authenticated.Group("/shares")
		{
			shareGroup.POST("/dives/:dive_id/share", h.Share.CreatePublicShare)
			shareGroup.POST("/dives/:dive_id/share-with-user", h.Share.ShareWithUser)
			shareGroup.PUT("/dives/:dive_id/visibility", h.Share.UpdateVisibility)
			shareGroup.GET("/shared-with-me", h.Share.ListSharedWithMe)
			shareGroup.GET("/my", h.Share.ListMyShares)
			shareGroup.DELETE("/:share_id", h.Share.RevokeShare)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		xerr.Error(c, http.StatusNotFound, xerr.NotFoundCode, "Route not found")
	})

	return router
}
