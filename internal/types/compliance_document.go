package types

import (
	"time"

	"github.com/google/uuid"
)

type CompliancePillar string

const (
	PillarChildLabor    CompliancePillar = "CHILD_LABOR"
	PillarFactorySafety CompliancePillar = "FACTORY_SAFETY"
	PillarEnvironmental CompliancePillar = "ENVIRONMENTAL"
	PillarWages         CompliancePillar = "WAGES"
	PillarStatutory     CompliancePillar = "STATUTORY"
)

// ComplianceDocument is catalog reference data: one row per document type a
// vendor is required to submit. Read-only to the verification pipeline.
type ComplianceDocument struct {
	ID               uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name             string           `gorm:"column:name;not null;uniqueIndex" json:"name"`
	DisplayName      string           `gorm:"column:display_name;not null" json:"display_name"`
	Pillar           CompliancePillar `gorm:"column:pillar;not null" json:"pillar"`
	IssuingAuthority string           `gorm:"column:issuing_authority" json:"issuing_authority"`
	RegistryAPIName  string           `gorm:"column:registry_api_name" json:"registry_api_name"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ComplianceDocument) TableName() string { return "compliance_document" }
