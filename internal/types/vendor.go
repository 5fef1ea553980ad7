package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ComplianceStatus string

const (
	ComplianceStatusGreen ComplianceStatus = "GREEN"
	ComplianceStatusAmber ComplianceStatus = "AMBER"
	ComplianceStatusRed   ComplianceStatus = "RED"
)

type Vendor struct {
	ID                     uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CompanyName            string           `gorm:"column:company_name;not null" json:"company_name"`
	City                   string           `gorm:"column:city" json:"city"`
	Published              bool             `gorm:"column:published;not null;default:false" json:"published"`
	OverallComplianceScore float64          `gorm:"column:overall_compliance_score;not null;default:0" json:"overall_compliance_score"`
	ComplianceStatus       ComplianceStatus `gorm:"column:compliance_status;not null;default:'RED'" json:"compliance_status"`

	Documents []UploadedDocument `gorm:"foreignKey:VendorID;references:ID" json:"documents,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Vendor) TableName() string { return "vendor" }
