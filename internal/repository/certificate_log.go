package repository

import (
	"context"

	constant "github.com/qooqz/certificates/internal/constant"
	"github.com/qooqz/certificates/internal/model"
	"gorm.io/gorm"
)

type CertificateLogRepository struct {
	*baseRepository
}

// Append writes one lifecycle trail row. Log failures are the caller's call
// to tolerate; the trail itself is append-only.
func (clr CertificateLogRepository) Append(ctx context.Context, tx *gorm.DB, requestId, actorId, action, details string) error {
	db := clr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	log := model.CertificateLog{
		RequestID: requestId,
		ActorID:   actorId,
		Action:    action,
		Details:   details,
	}

	return db.WithContext(ctx).Model(&model.CertificateLog{}).Create(&log).Error
}

func (clr CertificateLogRepository) GetByRequestId(ctx context.Context, tx *gorm.DB, requestId string) ([]model.CertificateLog, error) {
	db := clr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var logs []model.CertificateLog
	if err := db.WithContext(ctx).Model(&model.CertificateLog{}).
		Where("request_id = ?", requestId).Order("created_at asc").Find(&logs).Error; err != nil {
		return logs, err
	}

	return logs, nil
}
