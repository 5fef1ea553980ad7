package app

import (
	"fmt"

	"gorm.io/gorm"

	redisc "github.com/aksidharth04/SetuAI-sub001/internal/clients/redis"
	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	"github.com/aksidharth04/SetuAI-sub001/internal/services"
)

type Services struct {
	Auth         services.AuthService
	FileStore    services.FileStore
	Strategy     services.StrategySelector
	Extraction   services.TextExtractionService
	Content      services.ContentVerificationService
	Layout       services.LayoutComparatorService
	Registry     services.RegistryVerificationService
	Scoring      services.ScoringService
	Orchestrator services.VerificationOrchestrator
	Document     services.DocumentService
	Vendor       services.VendorService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	authService, err := services.NewAuthService(log)
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	var fileStore services.FileStore
	switch cfg.FileStoreBackend {
	case "gcs":
		fileStore = services.NewGCSFileStore(log, clients.GcpBucket)
	default:
		fs, err := services.NewLocalFileStore(log, cfg.UploadDir)
		if err != nil {
			return Services{}, fmt.Errorf("init file store: %w", err)
		}
		fileStore = fs
	}

	strategySelector, err := services.NewStrategySelector(log)
	if err != nil {
		return Services{}, fmt.Errorf("init strategy selector: %w", err)
	}

	var registryCache services.RegistryCache
	switch cfg.RegistryCacheBackend {
	case "redis":
		cache, err := redisc.NewCache(log)
		if err != nil {
			return Services{}, fmt.Errorf("init redis cache: %w", err)
		}
		registryCache = cache
	default:
		registryCache = services.NewMemoryCache()
	}

	extraction := services.NewTextExtractionService(log, fileStore, clients.GcpVision, clients.GcpDocument)
	content := services.NewContentVerificationService(log, clients.OpenaiClient)
	layout := services.NewLayoutComparatorService(log, fileStore, clients.GcpVision)
	registry := services.NewRegistryVerificationService(log, cfg.Registry, registryCache)
	scoring := services.NewScoringService(db, log, reposet.UploadedDocument, reposet.ComplianceDocument, reposet.DocumentHistory, reposet.Vendor)
	orchestrator := services.NewVerificationOrchestrator(log, reposet.UploadedDocument, strategySelector, extraction, content, layout, registry, scoring)
	document := services.NewDocumentService(log, fileStore, reposet.UploadedDocument, reposet.ComplianceDocument, reposet.DocumentHistory, orchestrator)
	vendor := services.NewVendorService(log, reposet.Vendor, reposet.ComplianceDocument, reposet.UploadedDocument)

	return Services{
		Auth:         authService,
		FileStore:    fileStore,
		Strategy:     strategySelector,
		Extraction:   extraction,
		Content:      content,
		Layout:       layout,
		Registry:     registry,
		Scoring:      scoring,
		Orchestrator: orchestrator,
		Document:     document,
		Vendor:       vendor,
	}, nil
}
