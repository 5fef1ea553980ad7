package app

import (
	"github.com/gin-gonic/gin"

	"github.com/aksidharth04/SetuAI-sub001/internal/handlers"
	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	"github.com/aksidharth04/SetuAI-sub001/internal/middleware"
	"github.com/aksidharth04/SetuAI-sub001/internal/server"
)

type Handlers struct {
	Document *handlers.DocumentHandler
	Vendor   *handlers.VendorHandler
	Review   *handlers.ReviewHandler
	Catalog  *handlers.CatalogHandler
}

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func wireHandlers(log *logger.Logger, svcs Services, reposet Repos) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Document: handlers.NewDocumentHandler(log, svcs.Document),
		Vendor:   handlers.NewVendorHandler(log, svcs.Vendor, svcs.Scoring),
		Review:   handlers.NewReviewHandler(log, svcs.Orchestrator),
		Catalog:  handlers.NewCatalogHandler(log, reposet.ComplianceDocument),
	}
}

func wireMiddleware(log *logger.Logger, svcs Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: middleware.NewAuthMiddleware(log, svcs.Auth),
	}
}

func wireRouter(cfg Config, h Handlers, mw Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthMiddleware:  mw.Auth,
		DocumentHandler: h.Document,
		VendorHandler:   h.Vendor,
		ReviewHandler:   h.Review,
		CatalogHandler:  h.Catalog,
		AllowOrigins:    cfg.AllowOrigins,
	})
}
