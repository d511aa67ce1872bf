package repository

import (
	"context"
	"time"

	constant "github.com/qooqz/certificates/internal/constant"
	"github.com/qooqz/certificates/internal/model"
	"gorm.io/gorm"
)

type AuditRepository struct {
	*baseRepository
}

func (ar AuditRepository) Create(ctx context.Context, tx *gorm.DB, audit *model.Audit) (*model.Audit, error) {
	ar.logger.Debugf("Assign audit for request %s to auditor %s", audit.RequestID, audit.AuditorID)

	db := ar.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.Audit{}).Create(audit).Error; err != nil {
		return audit, err
	}

	return audit, nil
}

// GetLatestByRequestId returns the newest audit assignment of a request, or
// gorm.ErrRecordNotFound when none exists.
func (ar AuditRepository) GetLatestByRequestId(ctx context.Context, tx *gorm.DB, requestId string) (*model.Audit, error) {
	db := ar.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var audit model.Audit
	if err := db.WithContext(ctx).Model(&model.Audit{}).Where("request_id = ?", requestId).
		Order("created_at desc").First(&audit).Error; err != nil {
		return &audit, err
	}

	return &audit, nil
}

func (ar AuditRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status constant.AuditStatus, notes string) error {
	ar.logger.Debugf("Update audit %s status to %s", id, status)

	db := ar.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	now := time.Now()
	updates := map[string]any{"status": status, "audit_date": now}
	if notes != "" {
		updates["notes"] = notes
	}

	return db.WithContext(ctx).Model(&model.Audit{}).Where("id = ?", id).Updates(updates).Error
}
