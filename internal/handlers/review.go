package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	"github.com/aksidharth04/SetuAI-sub001/internal/requestdata"
	"github.com/aksidharth04/SetuAI-sub001/internal/services"
	"github.com/aksidharth04/SetuAI-sub001/internal/types"
)

type ReviewHandler struct {
	log          *logger.Logger
	orchestrator services.VerificationOrchestrator
}

func NewReviewHandler(log *logger.Logger, orchestrator services.VerificationOrchestrator) *ReviewHandler {
	return &ReviewHandler{
		log:          log.With("handler", "ReviewHandler"),
		orchestrator: orchestrator,
	}
}

type manualReviewRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// POST /api/documents/:id/review
// Admin override of a document's verification status. Skips the automated
// pipeline; the history row records the reviewer and reason.
func (h *ReviewHandler) ManualReview(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("id must be a uuid"))
		return
	}

	var req manualReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	actorID := rd.UserID
	err = h.orchestrator.ManualStatusUpdate(
		c.Request.Context(),
		docID,
		types.VerificationStatus(req.Status),
		req.Reason,
		&actorID,
	)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"document_id": docID, "status": req.Status})
}

// POST /api/documents/:id/reverify
// Re-runs the full verification pipeline against the stored file.
func (h *ReviewHandler) Reverify(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("id must be a uuid"))
		return
	}

	actorID := rd.UserID
	result, err := h.orchestrator.VerifyUpload(c.Request.Context(), docID, &actorID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"document_id": result.DocumentID, "status": result.Status})
}
