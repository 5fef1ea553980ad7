package app

import (
	"gorm.io/gorm"

	"github.com/aksidharth04/SetuAI-sub001/internal/logger"
	"github.com/aksidharth04/SetuAI-sub001/internal/repos"
)

type Repos struct {
	Vendor             repos.VendorRepo
	ComplianceDocument repos.ComplianceDocumentRepo
	UploadedDocument   repos.UploadedDocumentRepo
	DocumentHistory    repos.DocumentHistoryRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Vendor:             repos.NewVendorRepo(db, log),
		ComplianceDocument: repos.NewComplianceDocumentRepo(db, log),
		UploadedDocument:   repos.NewUploadedDocumentRepo(db, log),
		DocumentHistory:    repos.NewDocumentHistoryRepo(db, log),
	}
}
