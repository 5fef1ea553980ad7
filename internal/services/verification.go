package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	"github.com/aksidharth04/SetuAI-sub001/internal/repos"
	"github.com/aksidharth04/SetuAI-sub001/internal/types"
)

// RegistryOutcome is the terminal result of the detached registry step.
type RegistryOutcome struct {
	Status types.VerificationStatus
	Err    error
}

// PipelineResult reports where the synchronous part of the pipeline left
// the document. RegistryDone is non-nil when a registry check was
// dispatched; production callers ignore it, tests await it.
type PipelineResult struct {
	DocumentID   uuid.UUID
	Status       types.VerificationStatus
	RegistryDone <-chan RegistryOutcome
}

// VerificationOrchestrator sequences extraction, content verification,
// layout comparison, registry confirmation and scoring for one uploaded
// document, persisting every state transition with a history entry.
type VerificationOrchestrator interface {
	VerifyUpload(ctx context.Context, docID uuid.UUID, actorID *uuid.UUID) (*PipelineResult, error)
	ManualStatusUpdate(ctx context.Context, docID uuid.UUID, newStatus types.VerificationStatus, reason string, actorID *uuid.UUID) error
}

type verificationOrchestrator struct {
	log *logger.Logger

	docs     repos.UploadedDocumentRepo
	strategy StrategySelector
	extract  TextExtractionService
	content  ContentVerificationService
	layout   LayoutComparatorService
	registry RegistryVerificationService
	scoring  ScoringService

	// detachedTimeout bounds the fire-and-forget registry task.
	detachedTimeout time.Duration
}

func NewVerificationOrchestrator(
	baseLog *logger.Logger,
	docs repos.UploadedDocumentRepo,
	strategy StrategySelector,
	extract TextExtractionService,
	content ContentVerificationService,
	layout LayoutComparatorService,
	registry RegistryVerificationService,
	scoring ScoringService,
) VerificationOrchestrator {
	return &verificationOrchestrator{
		log:             baseLog.With("service", "VerificationOrchestrator"),
		docs:            docs,
		strategy:        strategy,
		extract:         extract,
		content:         content,
		layout:          layout,
		registry:        registry,
		scoring:         scoring,
		detachedTimeout: 2 * time.Minute,
	}
}

func (o *verificationOrchestrator) VerifyUpload(ctx context.Context, docID uuid.UUID, actorID *uuid.UUID) (*PipelineResult, error) {
	doc, err := o.docs.GetByID(ctx, nil, docID)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", docID, err)
	}
	if doc.ComplianceDocument == nil {
		return nil, fmt.Errorf("document %s has no compliance document type", docID)
	}

	st := o.strategy.ForDocumentType(doc.ComplianceDocument.Name)
	olog := o.log.With("document_id", docID.String(), "document_type", st.DocumentType)

	// Stage 1: OCR. Failures go to manual review, never rejection.
	extraction, err := o.extract.ExtractText(ctx, doc.FilePath)
	if err != nil {
		var exErr *ExtractionError
		action := "EXTRACTION_FAILED"
		if !errors.As(err, &exErr) {
			action = "PIPELINE_ERROR"
		}
		olog.Warn("Extraction failed, routing to manual review", "error", err)
		status := o.transition(ctx, doc, types.StatusPendingManualReview, action, err.Error(), types.MethodLocal, actorID, nil)
		return &PipelineResult{DocumentID: docID, Status: status}, nil
	}

	// Stage 2: keyword/regex pre-check, cheap fail-fast before the AI call.
	if pre := st.Precheck(extraction.Text); !pre.Passed {
		olog.Info("Keyword pre-check rejected document", "reason", pre.Reason)
		status := o.transition(ctx, doc, types.StatusRejected, "KEYWORD_CHECK_FAILED", pre.Reason, types.MethodLocal, actorID, nil)
		return &PipelineResult{DocumentID: docID, Status: status}, nil
	}

	// Stage 3: AI content verification.
	verification, err := o.content.ExtractDocumentInfo(ctx, extraction.Text, st)
	if err != nil {
		olog.Warn("Content verification transport failure, routing to manual review", "error", err)
		status := o.transition(ctx, doc, types.StatusPendingManualReview, "AI_UNAVAILABLE", err.Error(), types.MethodAI, actorID, nil)
		return &PipelineResult{DocumentID: docID, Status: status}, nil
	}
	if !verification.IsValid {
		status := o.transition(ctx, doc, types.StatusRejected, "AI_VERIFICATION_REJECTED", verification.Reason, types.MethodAI, actorID, verification)
		return &PipelineResult{DocumentID: docID, Status: status}, nil
	}

	// Stage 4: layout comparison for types with a canonical reference.
	similarity := 1.0
	if st.HasReferenceLayout() {
		cmp, err := o.layout.CompareWithReference(ctx, extraction, st)
		if err != nil {
			olog.Warn("Layout comparison failed, routing to manual review", "error", err)
			status := o.transition(ctx, doc, types.StatusPendingManualReview, "LAYOUT_CHECK_ERROR", err.Error(), types.MethodLocal, actorID, verification)
			return &PipelineResult{DocumentID: docID, Status: status}, nil
		}
		similarity = cmp.Similarity
		if similarity < *st.LayoutThreshold {
			reason := fmt.Sprintf("layout similarity %.2f below threshold %.2f: %s", similarity, *st.LayoutThreshold, cmp.Details)
			status := o.transition(ctx, doc, types.StatusRejected, "LAYOUT_MISMATCH", reason, types.MethodLocal, actorID, verification)
			return &PipelineResult{DocumentID: docID, Status: status}, nil
		}
	}

	// Types with no registry integration are verified on AI evidence alone.
	if st.RegistryAPI == "" {
		status := o.transitionVerified(ctx, doc, verification, similarity, "AI_VERIFICATION_PASSED", types.MethodAI, actorID)
		return &PipelineResult{DocumentID: docID, Status: status}, nil
	}

	// Stage 5: persist the AI result and hand off to the registry step.
	status := o.transitionWithResult(ctx, doc, types.StatusPendingAPIValidation, "AI_VERIFICATION_PASSED", verification.Reason, types.MethodAI, actorID, verification, similarity)

	identifier := identifierFrom(verification, st, extraction.Text)

	done := make(chan RegistryOutcome, 1)
	go o.runRegistryStep(docID, st, identifier, actorID, done)

	return &PipelineResult{DocumentID: docID, Status: status, RegistryDone: done}, nil
}

// runRegistryStep is the detached half of the pipeline. It must never crash
// the process: every failure, panic included, funnels into the manual
// review transition and the completion channel.
func (o *verificationOrchestrator) runRegistryStep(docID uuid.UUID, st *VerificationStrategy, identifier string, actorID *uuid.UUID, done chan<- RegistryOutcome) {
	ctx, cancel := context.WithTimeout(context.Background(), o.detachedTimeout)
	defer cancel()

	outcome := RegistryOutcome{Status: types.StatusPendingManualReview}
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("Registry step panicked", "document_id", docID.String(), "panic", r)
			err := fmt.Errorf("registry step panic: %v", r)
			o.failToManualReview(ctx, docID, "REGISTRY_STEP_PANIC", err, actorID)
			outcome = RegistryOutcome{Status: types.StatusPendingManualReview, Err: err}
		}
		done <- outcome
		close(done)
	}()

	doc, err := o.docs.GetByID(ctx, nil, docID)
	if err != nil {
		o.failToManualReview(ctx, docID, "REGISTRY_STEP_ERROR", err, actorID)
		outcome.Err = err
		return
	}

	result, err := o.registry.Verify(ctx, st.RegistryAPI, identifier)
	if err != nil {
		o.log.Warn("Registry verification failed",
			"document_id", docID.String(),
			"api", st.RegistryAPI,
			"error", err,
		)
		o.failToManualReview(ctx, docID, "REGISTRY_UNAVAILABLE", err, actorID)
		outcome.Err = err
		return
	}

	if !result.IsValid {
		rej := &RegistryRejection{API: st.RegistryAPI, Status: result.Status, Reason: "registry reports identifier as not valid"}
		payload, _ := marshalJSON(map[string]any{
			"transaction_id": result.TransactionID,
			"status":         result.Status,
			"details":        result.Details,
		})
		o.transition(ctx, doc, types.StatusRejected, "REGISTRY_REJECTED", rej.Error(), types.MethodAPI, actorID, nil, payload)
		outcome.Status = types.StatusRejected
		return
	}

	now := time.Now().UTC()
	payload, _ := marshalJSON(map[string]any{
		"transaction_id": result.TransactionID,
		"status":         result.Status,
		"cached":         result.Cached,
	})
	summary := fmt.Sprintf("registry %s confirmed identifier (txn %s)", st.RegistryAPI, result.TransactionID)
	update := repos.TransitionUpdate{
		Status:              types.StatusVerified,
		VerificationSummary: &summary,
		LastVerifiedAt:      &now,
	}
	entry := &types.DocumentHistory{
		Action:             "REGISTRY_VERIFIED",
		Details:            summary,
		ActorID:            actorID,
		PreviousStatus:     doc.VerificationStatus,
		NewStatus:          types.StatusVerified,
		VerificationMethod: types.MethodAPI,
		Payload:            payload,
	}
	if err := o.docs.ApplyTransition(ctx, nil, doc.ID, update, entry); err != nil {
		o.log.Error("Failed to persist registry verification", "document_id", docID.String(), "error", err)
		outcome.Err = err
		return
	}
	o.rescore(ctx, doc.VendorID)
	outcome.Status = types.StatusVerified
}

// ManualStatusUpdate applies a reviewer's override. It deliberately skips
// re-running the verification engine; the audit row records the override.
func (o *verificationOrchestrator) ManualStatusUpdate(ctx context.Context, docID uuid.UUID, newStatus types.VerificationStatus, reason string, actorID *uuid.UUID) error {
	switch newStatus {
	case types.StatusVerified, types.StatusRejected, types.StatusPendingManualReview:
	default:
		return &ValidationError{Field: "status", Msg: fmt.Sprintf("manual update to %s not allowed", newStatus)}
	}

	doc, err := o.docs.GetByID(ctx, nil, docID)
	if err != nil {
		return err
	}

	summary := fmt.Sprintf("manual review: %s", reason)
	update := repos.TransitionUpdate{
		Status:              newStatus,
		VerificationSummary: &summary,
	}
	if newStatus == types.StatusVerified {
		now := time.Now().UTC()
		update.LastVerifiedAt = &now
		// A reviewer's verify carries full confidence; without this the score
		// falls back to whatever the failed pipeline recorded, which can be 0.
		if vd, err := marshalJSON(map[string]any{
			"confidence": 1.0,
			"method":     string(types.MethodManual),
			"reason":     reason,
		}); err == nil {
			update.VerificationDetails = vd
		}
	}
	entry := &types.DocumentHistory{
		Action:             "MANUAL_STATUS_UPDATE",
		Details:            reason,
		ActorID:            actorID,
		PreviousStatus:     doc.VerificationStatus,
		NewStatus:          newStatus,
		VerificationMethod: types.MethodManual,
	}
	if err := o.docs.ApplyTransition(ctx, nil, doc.ID, update, entry); err != nil {
		return err
	}
	o.rescore(ctx, doc.VendorID)
	return nil
}

// ---- transition helpers ----

func (o *verificationOrchestrator) transition(ctx context.Context, doc *types.UploadedDocument, to types.VerificationStatus, action, details string, method types.VerificationMethod, actorID *uuid.UUID, verification *VerificationResult, payload ...datatypes.JSON) types.VerificationStatus {
	update := repos.TransitionUpdate{
		Status:              to,
		VerificationSummary: &details,
	}
	if verification != nil {
		if extracted, err := marshalJSON(verification.ExtractedFields); err == nil {
			update.ExtractedData = extracted
		}
		if vd, err := marshalJSON(map[string]any{
			"confidence": verification.Confidence,
			"method":     string(method),
			"reason":     verification.Reason,
		}); err == nil {
			update.VerificationDetails = vd
		}
	}
	entry := &types.DocumentHistory{
		Action:             action,
		Details:            details,
		ActorID:            actorID,
		PreviousStatus:     doc.VerificationStatus,
		NewStatus:          to,
		VerificationMethod: method,
	}
	if len(payload) > 0 {
		entry.Payload = payload[0]
	}

	if err := o.docs.ApplyTransition(ctx, nil, doc.ID, update, entry); err != nil {
		o.log.Error("Failed to apply transition", "document_id", doc.ID.String(), "action", action, "error", err)
		return doc.VerificationStatus
	}
	o.rescore(ctx, doc.VendorID)
	return to
}

func (o *verificationOrchestrator) transitionWithResult(ctx context.Context, doc *types.UploadedDocument, to types.VerificationStatus, action, details string, method types.VerificationMethod, actorID *uuid.UUID, verification *VerificationResult, similarity float64) types.VerificationStatus {
	update := repos.TransitionUpdate{
		Status:              to,
		VerificationSummary: &details,
	}
	if extracted, err := marshalJSON(verification.ExtractedFields); err == nil {
		update.ExtractedData = extracted
	}
	if vd, err := marshalJSON(map[string]any{
		"confidence":        verification.Confidence,
		"method":            string(method),
		"reason":            verification.Reason,
		"layout_similarity": similarity,
	}); err == nil {
		update.VerificationDetails = vd
	}
	entry := &types.DocumentHistory{
		Action:             action,
		Details:            details,
		ActorID:            actorID,
		PreviousStatus:     doc.VerificationStatus,
		NewStatus:          to,
		VerificationMethod: method,
	}
	if err := o.docs.ApplyTransition(ctx, nil, doc.ID, update, entry); err != nil {
		o.log.Error("Failed to apply transition", "document_id", doc.ID.String(), "action", action, "error", err)
		return doc.VerificationStatus
	}
	o.rescore(ctx, doc.VendorID)
	return to
}

func (o *verificationOrchestrator) transitionVerified(ctx context.Context, doc *types.UploadedDocument, verification *VerificationResult, similarity float64, action string, method types.VerificationMethod, actorID *uuid.UUID) types.VerificationStatus {
	now := time.Now().UTC()
	summary := verification.Reason
	update := repos.TransitionUpdate{
		Status:              types.StatusVerified,
		VerificationSummary: &summary,
		LastVerifiedAt:      &now,
	}
	if extracted, err := marshalJSON(verification.ExtractedFields); err == nil {
		update.ExtractedData = extracted
	}
	if vd, err := marshalJSON(map[string]any{
		"confidence":        verification.Confidence,
		"method":            string(method),
		"reason":            verification.Reason,
		"layout_similarity": similarity,
	}); err == nil {
		update.VerificationDetails = vd
	}
	entry := &types.DocumentHistory{
		Action:             action,
		Details:            summary,
		ActorID:            actorID,
		PreviousStatus:     doc.VerificationStatus,
		NewStatus:          types.StatusVerified,
		VerificationMethod: method,
	}
	if err := o.docs.ApplyTransition(ctx, nil, doc.ID, update, entry); err != nil {
		o.log.Error("Failed to apply transition", "document_id", doc.ID.String(), "action", action, "error", err)
		return doc.VerificationStatus
	}
	o.rescore(ctx, doc.VendorID)
	return types.StatusVerified
}

func (o *verificationOrchestrator) failToManualReview(ctx context.Context, docID uuid.UUID, action string, cause error, actorID *uuid.UUID) {
	doc, err := o.docs.GetByID(ctx, nil, docID)
	if err != nil {
		o.log.Error("Failed to load document for manual-review transition", "document_id", docID.String(), "error", err)
		return
	}
	o.transition(ctx, doc, types.StatusPendingManualReview, action, cause.Error(), types.MethodAPI, actorID, nil)
}

func (o *verificationOrchestrator) rescore(ctx context.Context, vendorID uuid.UUID) {
	if _, _, err := o.scoring.RecomputeVendor(ctx, nil, vendorID); err != nil {
		o.log.Error("Vendor rescore failed", "vendor_id", vendorID, "error", err)
	}
}

func identifierFrom(verification *VerificationResult, st *VerificationStrategy, rawText string) string {
	if st.IdentifierField != "" {
		if v, ok := verification.ExtractedFields[st.IdentifierField]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return st.ExtractIdentifier(rawText)
}

func marshalJSON(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
