package repository

import (
	"context"
	"time"

	constant "github.com/qooqz/certificates/internal/constant"
	"github.com/qooqz/certificates/internal/model"
	"gorm.io/gorm"
)

type CorrectionRepository struct {
	*baseRepository
}

func (cr CorrectionRepository) Create(ctx context.Context, tx *gorm.DB, correction *model.Correction) (*model.Correction, error) {
	cr.logger.Debugf("Create correction for request %s", correction.RequestID)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.Correction{}).Create(correction).Error; err != nil {
		return correction, err
	}

	return correction, nil
}

// GetById scopes through the owning request so a correction can never be
// read across tenants.
func (cr CorrectionRepository) GetById(ctx context.Context, tx *gorm.DB, tenantId, id string) (*model.Correction, error) {
	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var correction model.Correction
	if err := db.WithContext(ctx).Model(&model.Correction{}).
		Joins("INNER JOIN certificates_requests r ON certificates_corrections.request_id = r.id").
		Where("r.tenant_id = ? AND certificates_corrections.id = ?", tenantId, id).
		First(&correction).Error; err != nil {
		return &correction, err
	}

	return &correction, nil
}

func (cr CorrectionRepository) GetByRequestId(ctx context.Context, tx *gorm.DB, requestId string) ([]model.Correction, error) {
	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var corrections []model.Correction
	if err := db.WithContext(ctx).Model(&model.Correction{}).
		Where("request_id = ?", requestId).Order("created_at desc").Find(&corrections).Error; err != nil {
		return corrections, err
	}

	return corrections, nil
}

func (cr CorrectionRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status constant.CorrectionStatus, reviewedBy string) error {
	cr.logger.Debugf("Update correction %s status to %s", id, status)

	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	updates := map[string]any{"status": status}
	if reviewedBy != "" {
		now := time.Now()
		updates["reviewed_by"] = reviewedBy
		updates["reviewed_at"] = now
	}

	return db.WithContext(ctx).Model(&model.Correction{}).Where("id = ?", id).Updates(updates).Error
}

func (cr CorrectionRepository) MarkPaid(ctx context.Context, tx *gorm.DB, id string) error {
	db := cr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return db.WithContext(ctx).Model(&model.Correction{}).Where("id = ?", id).
		Update("payment_paid", true).Error
}
