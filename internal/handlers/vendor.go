package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	"github.com/aksidharth04/SetuAI-sub001/internal/requestdata"
	"github.com/aksidharth04/SetuAI-sub001/internal/services"
)

type VendorHandler struct {
	log            *logger.Logger
	vendorService  services.VendorService
	scoringService services.ScoringService
}

func NewVendorHandler(log *logger.Logger, vsvc services.VendorService, ssvc services.ScoringService) *VendorHandler {
	return &VendorHandler{
		log:            log.With("handler", "VendorHandler"),
		vendorService:  vsvc,
		scoringService: ssvc,
	}
}

// GET /api/vendors/:id/compliance
// One row per catalog document type, uploaded or not.
func (h *VendorHandler) ComplianceSummary(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())

	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("id must be a uuid"))
		return
	}
	if !rd.CanAccessVendor(vendorID) {
		RespondError(c, http.StatusForbidden, "forbidden", fmt.Errorf("cannot view another vendor"))
		return
	}

	summary, err := h.vendorService.ComplianceSummary(c.Request.Context(), vendorID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, summary)
}

// POST /api/vendors/:id/rescore
// Forces an idempotent recompute of the vendor aggregate. Admin only.
func (h *VendorHandler) Rescore(c *gin.Context) {
	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("id must be a uuid"))
		return
	}
	score, status, err := h.scoringService.RecomputeVendor(c.Request.Context(), nil, vendorID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"vendor_id":         vendorID,
		"compliance_score":  score,
		"compliance_status": status,
	})
}
