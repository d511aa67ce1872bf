package repository

import (
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type baseRepository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

type Repository struct {
	// DB can be used for transaction. Example usage:
	// repo.WithTx(func(tx *gorm.DB) error { ... })
	// Then pass tx to the repository functions that accept one.
	DB          *gorm.DB
	Request     *RequestRepository
	RequestItem *RequestItemRepository
	Version     *VersionRepository
	Issued      *IssuedRepository
	Correction  *CorrectionRepository
	Audit       *AuditRepository
	Template    *TemplateRepository
	Log         *CertificateLogRepository
}

func newBaseRepository(db *gorm.DB, logger *zap.SugaredLogger) *baseRepository {
	return &baseRepository{db: db, logger: logger}
}

func NewRepository(db *gorm.DB, logger *zap.SugaredLogger) *Repository {
	br := newBaseRepository(db, logger)

	return &Repository{
		DB:          db,
		Request:     &RequestRepository{baseRepository: br},
		RequestItem: &RequestItemRepository{baseRepository: br},
		Version:     &VersionRepository{baseRepository: br},
		Issued:      &IssuedRepository{baseRepository: br},
		Correction:  &CorrectionRepository{baseRepository: br},
		Audit:       &AuditRepository{baseRepository: br},
		Template:    &TemplateRepository{baseRepository: br},
		Log:         &CertificateLogRepository{baseRepository: br},
	}
}

// WithTx runs fn inside a single database transaction. The issuance
// primitive relies on this so version creation, identifier assignment and
// the issued-row insert are all-or-nothing.
func (r *Repository) WithTx(fn func(tx *gorm.DB) error) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

func (b baseRepository) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}

	return b.db
}
