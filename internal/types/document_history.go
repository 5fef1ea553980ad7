package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type VerificationMethod string

const (
	MethodLocal  VerificationMethod = "LOCAL"
	MethodAI     VerificationMethod = "AI"
	MethodAPI    VerificationMethod = "API"
	MethodManual VerificationMethod = "MANUAL"
)

// DocumentHistory is an append-only audit record of one verification status
// transition. Rows are never updated or deleted individually; they cascade
// only when the owning document is hard-deleted.
type DocumentHistory struct {
	ID                 uuid.UUID          `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UploadedDocumentID uuid.UUID          `gorm:"type:uuid;not null;index" json:"uploaded_document_id"`
	Action             string             `gorm:"column:action;not null" json:"action"`
	Details            string             `gorm:"column:details" json:"details"`
	ActorID            *uuid.UUID         `gorm:"type:uuid;column:actor_id" json:"actor_id,omitempty"`
	PreviousStatus     VerificationStatus `gorm:"column:previous_status;not null" json:"previous_status"`
	NewStatus          VerificationStatus `gorm:"column:new_status;not null" json:"new_status"`
	VerificationMethod VerificationMethod `gorm:"column:verification_method;not null;default:'LOCAL'" json:"verification_method"`
	Payload            datatypes.JSON     `gorm:"column:payload;type:jsonb" json:"payload,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (DocumentHistory) TableName() string { return "document_history" }
