package repository

import (
	"context"
	"time"

	constant "github.com/qooqz/certificates/internal/constant"
	"github.com/qooqz/certificates/internal/model"
	"github.com/qooqz/certificates/pkg/certify"
	"gorm.io/gorm"
)

type IssuedRepository struct {
	*baseRepository
}

func (ir IssuedRepository) Create(ctx context.Context, tx *gorm.DB, issued *model.IssuedCertificate) (*model.IssuedCertificate, error) {
	ir.logger.Debugf("Create issued certificate %s for version %s", issued.CertificateNumber, issued.VersionID)

	db := ir.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.IssuedCertificate{}).Create(issued).Error; err != nil {
		return issued, err
	}

	return issued, nil
}

func (ir IssuedRepository) GetById(ctx context.Context, tx *gorm.DB, id string) (*model.IssuedCertificate, error) {
	db := ir.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var issued model.IssuedCertificate
	if err := db.WithContext(ctx).Model(&model.IssuedCertificate{}).Where("id = ?", id).
		Preload("Version").First(&issued).Error; err != nil {
		return &issued, err
	}

	return &issued, nil
}

// GetByIdForTenant loads an issued certificate only when its ownership
// chain (version, request) lands in the given tenant. Tenant-facing reads
// go through here; GetById is reserved for internal collaborators.
func (ir IssuedRepository) GetByIdForTenant(ctx context.Context, tx *gorm.DB, tenantId, id string) (*model.IssuedCertificate, error) {
	db := ir.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var issued model.IssuedCertificate
	if err := db.WithContext(ctx).Model(&model.IssuedCertificate{}).
		Joins("INNER JOIN certificates_versions v ON certificates_issued.version_id = v.id").
		Joins("INNER JOIN certificates_requests r ON v.request_id = r.id").
		Where("r.tenant_id = ? AND certificates_issued.id = ?", tenantId, id).
		Preload("Version").First(&issued).Error; err != nil {
		return &issued, err
	}

	return &issued, nil
}

// GetByVerificationCode resolves the public lookup. The code is opaque; no
// other field can substitute for it.
func (ir IssuedRepository) GetByVerificationCode(ctx context.Context, tx *gorm.DB, code string) (*model.IssuedCertificate, error) {
	db := ir.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var issued model.IssuedCertificate
	if err := db.WithContext(ctx).Model(&model.IssuedCertificate{}).
		Where("verification_code = ?", code).Preload("Version").First(&issued).Error; err != nil {
		return &issued, err
	}

	return &issued, nil
}

// CountByTenant counts issued rows of the tenant, joining through versions
// and requests the way the ownership chain runs. Used inside the issuance
// transaction to derive the next certificate-number sequence.
func (ir IssuedRepository) CountByTenant(ctx context.Context, tx *gorm.DB, tenantId string) (int64, error) {
	db := ir.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	total := int64(0)
	err := db.WithContext(ctx).Model(&model.IssuedCertificate{}).
		Joins("INNER JOIN certificates_versions v ON certificates_issued.version_id = v.id").
		Joins("INNER JOIN certificates_requests r ON v.request_id = r.id").
		Where("r.tenant_id = ?", tenantId).
		Count(&total).Error

	return total, err
}

type IssuedFilter struct {
	IsCancelled *bool
	VersionID   string
}

func (ir IssuedRepository) GetByTenant(ctx context.Context, tx *gorm.DB, tenantId string, filter IssuedFilter, page, pageSize uint) (*[]model.IssuedCertificate, int64, error) {
	ir.logger.Debugf("Get issued certificates by tenant id: %s", tenantId)

	db := ir.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	query := db.WithContext(ctx).Model(&model.IssuedCertificate{}).
		Joins("INNER JOIN certificates_versions v ON certificates_issued.version_id = v.id").
		Joins("INNER JOIN certificates_requests r ON v.request_id = r.id").
		Where("r.tenant_id = ?", tenantId)

	if filter.IsCancelled != nil {
		query = query.Where("certificates_issued.is_cancelled = ?", *filter.IsCancelled)
	}
	if filter.VersionID != "" {
		query = query.Where("certificates_issued.version_id = ?", filter.VersionID)
	}

	var issued []model.IssuedCertificate
	total := int64(0)

	if err := query.Count(&total).Error; err != nil {
		return &issued, total, err
	}

	if err := query.Order("certificates_issued.issued_at desc").
		Offset(int((page - 1) * pageSize)).Limit(int(pageSize)).Find(&issued).Error; err != nil {
		return &issued, total, err
	}

	return &issued, total, nil
}

// UpdateAssetRefs persists both derived-asset references in one update.
// Identifiers are never part of this write.
func (ir IssuedRepository) UpdateAssetRefs(ctx context.Context, tx *gorm.DB, id string, qr, pdf certify.AssetRef) error {
	ir.logger.Debugf("Update asset refs of issued certificate %s", id)

	db := ir.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return db.WithContext(ctx).Model(&model.IssuedCertificate{}).Where("id = ?", id).Updates(map[string]any{
		"qr_code_kind": qr.Kind,
		"qr_code_ref":  qr.Ref,
		"pdf_kind":     pdf.Kind,
		"pdf_ref":      pdf.Ref,
	}).Error
}

// Cancel flags the issued certificate in place. The row, its number and its
// code are kept forever for the audit trail.
func (ir IssuedRepository) Cancel(ctx context.Context, tx *gorm.DB, id, cancelledBy, reason string) error {
	ir.logger.Debugf("Cancel issued certificate %s", id)

	db := ir.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	now := time.Now()
	return db.WithContext(ctx).Model(&model.IssuedCertificate{}).Where("id = ?", id).Updates(map[string]any{
		"is_cancelled":  true,
		"cancelled_by":  cancelledBy,
		"cancelled_at":  now,
		"cancel_reason": reason,
	}).Error
}

// SupersedePrintability closes the printable window of the previously
// issued certificate when a correction re-issues.
func (ir IssuedRepository) SupersedePrintability(ctx context.Context, tx *gorm.DB, id string, at time.Time) error {
	db := ir.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return db.WithContext(ctx).Model(&model.IssuedCertificate{}).Where("id = ?", id).
		Update("printable_until", at).Error
}
