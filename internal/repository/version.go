package repository

import (
	"context"

	constant "github.com/qooqz/certificates/internal/constant"
	"github.com/qooqz/certificates/internal/model"
	"gorm.io/gorm"
)

type VersionRepository struct {
	*baseRepository
}

// NextVersionNumber returns max(version_number)+1 for the request. Must be
// called inside the issuance transaction; the unique index on
// (request_id, version_number) is the race backstop.
func (vr VersionRepository) NextVersionNumber(ctx context.Context, tx *gorm.DB, requestId string) (int, error) {
	db := vr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var max int
	if err := db.WithContext(ctx).Model(&model.CertificateVersion{}).
		Where("request_id = ?", requestId).
		Select("COALESCE(MAX(version_number), 0)").Scan(&max).Error; err != nil {
		return 0, err
	}

	return max + 1, nil
}

func (vr VersionRepository) Create(ctx context.Context, tx *gorm.DB, version *model.CertificateVersion) (*model.CertificateVersion, error) {
	vr.logger.Debugf("Create certificate version #%d for request %s", version.VersionNumber, version.RequestID)

	db := vr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.CertificateVersion{}).Create(version).Error; err != nil {
		return version, err
	}

	return version, nil
}

// DeactivatePrevious flags all versions of the request inactive before a new
// active snapshot is inserted. Snapshot payloads are never touched.
func (vr VersionRepository) DeactivatePrevious(ctx context.Context, tx *gorm.DB, requestId string) error {
	db := vr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return db.WithContext(ctx).Model(&model.CertificateVersion{}).
		Where("request_id = ?", requestId).
		Update("is_active", false).Error
}

func (vr VersionRepository) GetById(ctx context.Context, tx *gorm.DB, id string) (*model.CertificateVersion, error) {
	db := vr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var version model.CertificateVersion
	if err := db.WithContext(ctx).Model(&model.CertificateVersion{}).Where("id = ?", id).First(&version).Error; err != nil {
		return &version, err
	}

	return &version, nil
}

func (vr VersionRepository) GetByRequestId(ctx context.Context, tx *gorm.DB, requestId string) ([]model.CertificateVersion, error) {
	db := vr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var versions []model.CertificateVersion
	if err := db.WithContext(ctx).Model(&model.CertificateVersion{}).
		Where("request_id = ?", requestId).Order("version_number asc").Find(&versions).Error; err != nil {
		return versions, err
	}

	return versions, nil
}
