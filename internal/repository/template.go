package repository

import (
	"context"

	constant "github.com/qooqz/certificates/internal/constant"
	"github.com/qooqz/certificates/internal/model"
	"gorm.io/gorm"
)

type TemplateRepository struct {
	*baseRepository
}

func (tr TemplateRepository) FindByCode(ctx context.Context, tx *gorm.DB, code string) (*model.CertificateTemplate, error) {
	db := tr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var template model.CertificateTemplate
	if err := db.WithContext(ctx).Model(&model.CertificateTemplate{}).
		Where("code = ?", code).First(&template).Error; err != nil {
		return &template, err
	}

	return &template, nil
}

func (tr TemplateRepository) GetEditionById(ctx context.Context, tx *gorm.DB, id string) (*model.CertificateEdition, error) {
	db := tr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var edition model.CertificateEdition
	if err := db.WithContext(ctx).Model(&model.CertificateEdition{}).
		Where("id = ?", id).First(&edition).Error; err != nil {
		return &edition, err
	}

	return &edition, nil
}
