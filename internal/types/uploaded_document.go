package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type VerificationStatus string

const (
	StatusPending              VerificationStatus = "PENDING"
	StatusPendingAPIValidation VerificationStatus = "PENDING_API_VALIDATION"
	StatusPendingManualReview  VerificationStatus = "PENDING_MANUAL_REVIEW"
	StatusVerified             VerificationStatus = "VERIFIED"
	StatusRejected             VerificationStatus = "REJECTED"
	StatusMissing              VerificationStatus = "MISSING"
	StatusExpired              VerificationStatus = "EXPIRED"
)

type UploadedDocument struct {
	ID                   uuid.UUID           `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	VendorID             uuid.UUID           `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Vendor               *Vendor             `gorm:"constraint:OnDelete:CASCADE;foreignKey:VendorID;references:ID" json:"vendor,omitempty"`
	ComplianceDocumentID uuid.UUID           `gorm:"type:uuid;not null;index" json:"compliance_document_id"`
	ComplianceDocument   *ComplianceDocument `gorm:"foreignKey:ComplianceDocumentID;references:ID" json:"compliance_document,omitempty"`

	FilePath            string             `gorm:"column:file_path;not null" json:"file_path"`
	OriginalFilename    string             `gorm:"column:original_filename" json:"original_filename"`
	VerificationStatus  VerificationStatus `gorm:"column:verification_status;not null;default:'PENDING'" json:"verification_status"`
	VerificationSummary string             `gorm:"column:verification_summary" json:"verification_summary"`
	ExtractedData       datatypes.JSON     `gorm:"column:extracted_data;type:jsonb" json:"extracted_data"`
	VerificationDetails datatypes.JSON     `gorm:"column:verification_details;type:jsonb" json:"verification_details"`
	RiskScore           *float64           `gorm:"column:risk_score" json:"risk_score"`
	LastVerifiedAt      *time.Time         `gorm:"column:last_verified_at" json:"last_verified_at"`

	History []DocumentHistory `gorm:"constraint:OnDelete:CASCADE;foreignKey:UploadedDocumentID;references:ID" json:"history,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (UploadedDocument) TableName() string { return "uploaded_document" }
