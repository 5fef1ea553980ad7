package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	"github.com/aksidharth04/SetuAI-sub001/internal/repos"
)

type CatalogHandler struct {
	log     *logger.Logger
	catalog repos.ComplianceDocumentRepo
}

func NewCatalogHandler(log *logger.Logger, catalog repos.ComplianceDocumentRepo) *CatalogHandler {
	return &CatalogHandler{
		log:     log.With("handler", "CatalogHandler"),
		catalog: catalog,
	}
}

// GET /api/catalog
// The full compliance document catalog, same order for every caller.
func (h *CatalogHandler) List(c *gin.Context) {
	entries, err := h.catalog.GetAll(c.Request.Context(), nil)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"catalog": entries})
}
