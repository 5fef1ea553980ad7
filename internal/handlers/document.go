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

type DocumentHandler struct {
	log             *logger.Logger
	documentService services.DocumentService
}

func NewDocumentHandler(log *logger.Logger, dsvc services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		log:             log.With("handler", "DocumentHandler"),
		documentService: dsvc,
	}
}

// POST /api/documents/upload
// Accepts a multipart file plus the compliance document type. The response
// only confirms the upload was stored and verification scheduled; the
// outcome is read back through document status.
func (h *DocumentHandler) Upload(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())

	docTypeID, err := uuid.Parse(c.PostForm("compliance_document_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("compliance_document_id must be a uuid"))
		return
	}

	vendorID := rd.VendorID
	if raw := c.PostForm("vendor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("vendor_id must be a uuid"))
			return
		}
		vendorID = id
	}
	if !rd.CanAccessVendor(vendorID) {
		RespondError(c, http.StatusForbidden, "forbidden", fmt.Errorf("cannot upload for another vendor"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("cannot read uploaded file"))
		return
	}
	defer file.Close()

	actorID := rd.UserID
	result, err := h.documentService.Upload(c.Request.Context(), services.UploadInput{
		VendorID:             vendorID,
		ComplianceDocumentID: docTypeID,
		OriginalFilename:     fileHeader.Filename,
		Content:              file,
		ActorID:              &actorID,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"document": result.Document,
		"message":  "upload accepted, verification in progress",
	})
}

// GET /api/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("id must be a uuid"))
		return
	}
	doc, err := h.documentService.Get(c.Request.Context(), docID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if !rd.CanAccessVendor(doc.VendorID) {
		RespondError(c, http.StatusForbidden, "forbidden", fmt.Errorf("document belongs to another vendor"))
		return
	}
	RespondOK(c, gin.H{"document": doc})
}

// GET /api/documents/:id/history
func (h *DocumentHandler) History(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("id must be a uuid"))
		return
	}
	doc, err := h.documentService.Get(c.Request.Context(), docID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if !rd.CanAccessVendor(doc.VendorID) {
		RespondError(c, http.StatusForbidden, "forbidden", fmt.Errorf("document belongs to another vendor"))
		return
	}
	history, err := h.documentService.History(c.Request.Context(), docID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"history": history})
}

// DELETE /api/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("id must be a uuid"))
		return
	}
	doc, err := h.documentService.Get(c.Request.Context(), docID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if !rd.CanAccessVendor(doc.VendorID) {
		RespondError(c, http.StatusForbidden, "forbidden", fmt.Errorf("document belongs to another vendor"))
		return
	}
	if err := h.documentService.Delete(c.Request.Context(), docID); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
