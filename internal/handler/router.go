package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mont-sinai/chorale/internal/middleware"
)

type RouterDeps struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Categories    *CategoryHandler
	SubCategories *SubCategoryHandler
	Planches      *PlancheHandler
	Files         *FileHandler
	AccessSecret  []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "timestamp": time.Now().Unix()})
	})
	api.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api.POST("/auth/signup", deps.Auth.Signup)
	api.POST("/auth/verify-otp", deps.Auth.VerifyOTP)
	api.POST("/auth/resend-otp", deps.Auth.ResendOTP)
	api.POST("/auth/login", deps.Auth.Login)
	api.POST("/auth/refresh", deps.Auth.Refresh)

	api.GET("/users/team", deps.Users.Team)
	api.GET("/catalogues", deps.Categories.Catalogues)
	api.GET("/files/:key", deps.Files.Get)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.AccessSecret))
	authGroup.POST("/auth/logout/:id", deps.Auth.Logout)
	authGroup.GET("/users/me", deps.Users.Me)

	authGroup.GET("/categories", deps.Categories.List)
	authGroup.GET("/categories/:id", deps.Categories.Get)
	authGroup.GET("/sub-categories", deps.SubCategories.List)
	authGroup.GET("/sub-categories/:id", deps.SubCategories.Get)
	authGroup.GET("/planches", deps.Planches.List)
	authGroup.GET("/planches/:id", deps.Planches.Get)

	adminGroup := authGroup.Group("")
	adminGroup.Use(middleware.RequireAdmin())
	adminGroup.PATCH("/auth/validate/:id", deps.Auth.Validate)

	adminGroup.GET("/users", deps.Users.List)
	adminGroup.GET("/users/:id", deps.Users.Get)
	adminGroup.PUT("/users/:id", deps.Users.Update)
	adminGroup.PATCH("/users/:id/role", deps.Users.UpdateRole)
	adminGroup.DELETE("/users/:id", deps.Users.Delete)

	adminGroup.POST("/categories", deps.Categories.Create)
	adminGroup.PUT("/categories/:id", deps.Categories.Update)
	adminGroup.DELETE("/categories/:id", deps.Categories.Delete)

	adminGroup.POST("/sub-categories", deps.SubCategories.Create)
	adminGroup.PUT("/sub-categories/:id", deps.SubCategories.Update)
	adminGroup.DELETE("/sub-categories/:id", deps.SubCategories.Delete)

	adminGroup.POST("/planches", deps.Planches.Create)
	adminGroup.PUT("/planches/:id", deps.Planches.Update)
	adminGroup.DELETE("/planches/:id", deps.Planches.Delete)
}
