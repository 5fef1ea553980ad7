package app

import (
	"strings"
	"time"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	"github.com/aksidharth04/SetuAI-sub001/internal/services"
	"github.com/aksidharth04/SetuAI-sub001/internal/utils"
)

type Config struct {
	Port         string
	AllowOrigins []string

	// FileStoreBackend selects where uploads live: "local" or "gcs".
	FileStoreBackend string
	UploadDir        string

	// RegistryCacheBackend selects the registry result cache: "memory" or
	// "redis".
	RegistryCacheBackend string

	Registry services.RegistryConfig
}

func LoadConfig(log *logger.Logger) Config {
	registry := services.DefaultRegistryConfig()
	registry.MaxAttempts = utils.GetEnvAsInt("REGISTRY_MAX_ATTEMPTS", registry.MaxAttempts, log)
	registry.BaseDelay = time.Duration(utils.GetEnvAsInt("REGISTRY_BASE_DELAY_MS", int(registry.BaseDelay/time.Millisecond), log)) * time.Millisecond
	registry.CacheTTL = time.Duration(utils.GetEnvAsInt("REGISTRY_CACHE_TTL_HOURS", int(registry.CacheTTL/time.Hour), log)) * time.Hour
	registry.Timeout = time.Duration(utils.GetEnvAsInt("REGISTRY_TIMEOUT_SECONDS", int(registry.Timeout/time.Second), log)) * time.Second
	registry.StubMode = utils.GetEnvAsBool("REGISTRY_STUB_MODE", registry.StubMode, log)

	origins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", log)

	return Config{
		Port:                 utils.GetEnv("PORT", "8080", log),
		AllowOrigins:         splitAndTrim(origins),
		FileStoreBackend:     strings.ToLower(utils.GetEnv("FILE_STORE_BACKEND", "local", log)),
		UploadDir:            utils.GetEnv("UPLOAD_DIR", "uploads", log),
		RegistryCacheBackend: strings.ToLower(utils.GetEnv("REGISTRY_CACHE_BACKEND", "memory", log)),
		Registry:             registry,
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
