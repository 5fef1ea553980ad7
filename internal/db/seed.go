package db

import (
	"github.com/aksidharth04/SetuAI-sub001/internal/types"
)

// complianceCatalog is the full set of documents a vendor is scored against.
// Names are the stable keys the verification strategy table is keyed by.
var complianceCatalog = []types.ComplianceDocument{
	{Name: "GST_REGISTRATION", DisplayName: "GST Registration Certificate", Pillar: types.PillarStatutory, IssuingAuthority: "Goods and Services Tax Network", RegistryAPIName: "gstin"},
	{Name: "CERTIFICATE_OF_INCORPORATION", DisplayName: "Certificate of Incorporation", Pillar: types.PillarStatutory, IssuingAuthority: "Ministry of Corporate Affairs", RegistryAPIName: "cin"},
	{Name: "EPF_REGISTRATION", DisplayName: "EPF Registration Certificate", Pillar: types.PillarWages, IssuingAuthority: "Employees' Provident Fund Organisation", RegistryAPIName: "epf"},
	{Name: "ESIC_REGISTRATION", DisplayName: "ESIC Registration Certificate", Pillar: types.PillarWages, IssuingAuthority: "Employees' State Insurance Corporation", RegistryAPIName: "esic"},
	{Name: "PF_ECR_CHALLAN", DisplayName: "PF ECR Payment Challan", Pillar: types.PillarWages, IssuingAuthority: "Employees' Provident Fund Organisation", RegistryAPIName: "trrn"},
	{Name: "POLLUTION_CONSENT_ORDER", DisplayName: "Pollution Control Consent Order", Pillar: types.PillarEnvironmental, IssuingAuthority: "State Pollution Control Board", RegistryAPIName: "consent_order"},
	{Name: "FIRE_SAFETY_NOC", DisplayName: "Fire Safety No Objection Certificate", Pillar: types.PillarFactorySafety, IssuingAuthority: "State Fire Department", RegistryAPIName: "noc"},
	{Name: "ISO_45001", DisplayName: "ISO 45001 Certificate", Pillar: types.PillarFactorySafety, IssuingAuthority: "Accredited Certification Body", RegistryAPIName: "iso"},
	{Name: "OEKO_TEX_CERTIFICATE", DisplayName: "OEKO-TEX Standard 100 Certificate", Pillar: types.PillarEnvironmental, IssuingAuthority: "OEKO-TEX Association", RegistryAPIName: "oeko_tex"},
	{Name: "GOTS_CERTIFICATE", DisplayName: "GOTS Scope Certificate", Pillar: types.PillarEnvironmental, IssuingAuthority: "GOTS Approved Certification Body", RegistryAPIName: "gots"},
	{Name: "CHILD_LABOR_POLICY", DisplayName: "Child Labour Compliance & Age Verification Policy", Pillar: types.PillarChildLabor, IssuingAuthority: "Self-declared, countersigned by auditor", RegistryAPIName: ""},
}

// SeedComplianceCatalog upserts the catalog rows by name. Safe to run on
// every boot.
func (s *PostgresService) SeedComplianceCatalog() error {
	for i := range complianceCatalog {
		doc := complianceCatalog[i]
		err := s.db.
			Where(types.ComplianceDocument{Name: doc.Name}).
			Assign(types.ComplianceDocument{
				DisplayName:      doc.DisplayName,
				Pillar:           doc.Pillar,
				IssuingAuthority: doc.IssuingAuthority,
				RegistryAPIName:  doc.RegistryAPIName,
			}).
			FirstOrCreate(&doc).Error
		if err != nil {
			s.log.Error("Failed to seed compliance catalog entry", "name", doc.Name, "error", err)
			return err
		}
	}
	s.log.Info("Compliance catalog seeded", "count", len(complianceCatalog))
	return nil
}
