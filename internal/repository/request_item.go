package repository

import (
	"context"

	constant "github.com/qooqz/certificates/internal/constant"
	"github.com/qooqz/certificates/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type RequestItemRepository struct {
	*baseRepository
}

func (rir RequestItemRepository) CreateMany(ctx context.Context, tx *gorm.DB, items []*model.RequestItem) ([]*model.RequestItem, error) {
	rir.logger.Debugf("Create %d request items", len(items))

	db := rir.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if len(items) == 0 {
		return items, nil
	}

	silentDB := db.Session(&gorm.Session{
		Logger: db.Logger.LogMode(logger.Silent),
	})

	if err := silentDB.WithContext(ctx).Model(&model.RequestItem{}).Create(items).Error; err != nil {
		return items, err
	}

	return items, nil
}

func (rir RequestItemRepository) GetByRequestId(ctx context.Context, tx *gorm.DB, requestId string) ([]model.RequestItem, error) {
	db := rir.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var items []model.RequestItem
	if err := db.WithContext(ctx).Model(&model.RequestItem{}).Where("request_id = ?", requestId).
		Preload("Translations").Order("created_at asc").Find(&items).Error; err != nil {
		return items, err
	}

	return items, nil
}

// ReplaceForRequest swaps the full item set of an editable request.
func (rir RequestItemRepository) ReplaceForRequest(ctx context.Context, tx *gorm.DB, requestId string, items []*model.RequestItem) error {
	rir.logger.Debugf("Replace items of request %s with %d items", requestId, len(items))

	db := rir.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return db.WithContext(ctx).Transaction(func(innerTx *gorm.DB) error {
		var existing []model.RequestItem
		if err := innerTx.Where("request_id = ?", requestId).Find(&existing).Error; err != nil {
			return err
		}
		for _, item := range existing {
			if err := innerTx.Where("item_id = ?", item.ID).Delete(&model.RequestItemTranslation{}).Error; err != nil {
				return err
			}
		}
		if err := innerTx.Where("request_id = ?", requestId).Delete(&model.RequestItem{}).Error; err != nil {
			return err
		}

		for _, item := range items {
			item.RequestID = requestId
		}
		if len(items) == 0 {
			return nil
		}
		return innerTx.Create(items).Error
	})
}
