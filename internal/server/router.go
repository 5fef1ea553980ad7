package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/aksidharth04/SetuAI-sub001/internal/handlers"
	"github.com/aksidharth04/SetuAI-sub001/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware  *middleware.AuthMiddleware
	DocumentHandler *handlers.DocumentHandler
	VendorHandler   *handlers.VendorHandler
	ReviewHandler   *handlers.ReviewHandler
	CatalogHandler  *handlers.CatalogHandler
	AllowOrigins    []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Catalog
	api.GET("/catalog", cfg.CatalogHandler.List)

	// Documents
	api.POST("/documents/upload", cfg.DocumentHandler.Upload)
	api.GET("/documents/:id", cfg.DocumentHandler.Get)
	api.GET("/documents/:id/history", cfg.DocumentHandler.History)
	api.DELETE("/documents/:id", cfg.DocumentHandler.Delete)

	// Vendors
	api.GET("/vendors/:id/compliance", cfg.VendorHandler.ComplianceSummary)

	// Admin
	admin := api.Group("/")
	admin.Use(cfg.AuthMiddleware.RequireAdmin())
	admin.POST("/documents/:id/review", cfg.ReviewHandler.ManualReview)
	admin.POST("/documents/:id/reverify", cfg.ReviewHandler.Reverify)
	admin.POST("/vendors/:id/rescore", cfg.VendorHandler.Rescore)

	return router
}
