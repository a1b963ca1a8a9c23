package http

import (
	"github.com/EternisAI/sketch-provisioner/internal/api/http/handler"
	"github.com/EternisAI/sketch-provisioner/internal/api/http/middleware"
	"github.com/EternisAI/sketch-provisioner/internal/users"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services carries what the routes need. Nil optional fields switch the
// matching routes off.
type Services struct {
	JWTSecret     string
	AdminAPIKey   string
	TemplatesRoot string

	Auth         handler.Authenticator
	Users        handler.UserDirectory
	Provisioner  handler.Provisioner
	Devices      handler.DeviceManager
	DeviceTokens handler.TokenRefresher

	// Optional.
	Publisher handler.ArchivePublisher
	Database  handler.Pinger
	Gatherer  prometheus.Gatherer
}

func SetupRoute(engine *gin.Engine, srvs *Services) {
	engine.Use(middleware.RequestLogger())

	healthHandler := handler.NewHealthHandler(srvs.Database)
	engine.GET("/health", healthHandler.Check)

	if srvs.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(srvs.Gatherer, promhttp.HandlerOpts{})))
	}

	if srvs.Auth != nil {
		authHandler := handler.NewAuthHandler(srvs.Auth)
		authGroup := engine.Group("/auth")
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	api := engine.Group("/api/v1")
	if srvs.DeviceTokens != nil {
		tokenHandler := handler.NewDeviceTokenHandler(srvs.DeviceTokens)
		api.POST("/device-tokens/refresh", tokenHandler.Refresh)
	}

	protected := api.Group("", middleware.JWTAuth(srvs.JWTSecret))
	if srvs.Provisioner != nil {
		sketchHandler := handler.NewSketchHandler(srvs.Provisioner, srvs.Publisher)
		protected.GET("/sketches", sketchHandler.ListSketches)
		protected.GET("/sketches/:variant/download", sketchHandler.Download)
		protected.GET("/sketches/:variant/generate_link", sketchHandler.GenerateLink)
	}
	if srvs.Devices != nil {
		deviceHandler := handler.NewDeviceHandler(srvs.Devices)
		protected.GET("/devices", deviceHandler.ListDevices)
		protected.GET("/devices/:id", deviceHandler.GetDevice)
		protected.PUT("/devices/:id", deviceHandler.EnrollDevice)
		protected.PATCH("/devices/:id", deviceHandler.RenameDevice)
		protected.DELETE("/devices/:id", deviceHandler.RemoveDevice)
	}
	if srvs.Users != nil {
		userHandler := handler.NewUserHandler(srvs.Users)
		protected.DELETE("/users/me", userHandler.DeleteUser)
		protected.GET("/users", middleware.RequireRole(users.RoleAdmin), userHandler.ListUsers)
	}

	if srvs.TemplatesRoot != "" {
		adminHandler := handler.NewSketchAdminHandler(srvs.TemplatesRoot)
		admin := engine.Group("/admin", middleware.APIKeyAuth(srvs.AdminAPIKey))
		admin.PUT("/sketches/:variant", adminHandler.Upload)
		admin.DELETE("/sketches/:variant", adminHandler.Delete)
	}
}
