package repository

import (
	"context"

	constant "github.com/qooqz/certificates/internal/constant"
	"github.com/qooqz/certificates/internal/model"
	"gorm.io/gorm"
)

type RequestRepository struct {
	*baseRepository
}

func (rr RequestRepository) Create(ctx context.Context, tx *gorm.DB, request *model.CertificateRequest) (*model.CertificateRequest, error) {
	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	if err := db.WithContext(ctx).Model(&model.CertificateRequest{}).Create(request).Error; err != nil {
		return request, err
	}

	return request, nil
}

func (rr RequestRepository) GetById(ctx context.Context, tx *gorm.DB, tenantId, id string) (*model.CertificateRequest, error) {
	rr.logger.Debugf("Get certificate request by id: %s, tenant id: %s", id, tenantId)

	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var request model.CertificateRequest
	if err := db.WithContext(ctx).Model(&model.CertificateRequest{}).Where(map[string]any{
		"id":        id,
		"tenant_id": tenantId,
	}).Preload("Entity").Preload("CertificateEdition").Preload("Items.Translations").First(&request).Error; err != nil {
		return &request, err
	}

	return &request, nil
}

// GetByIdAnyTenant loads a request without tenant scoping. Reserved for
// internal collaborators resolving ownership through a version row (asset
// pipeline, public verification); tenant-facing reads go through GetById.
func (rr RequestRepository) GetByIdAnyTenant(ctx context.Context, tx *gorm.DB, id string) (*model.CertificateRequest, error) {
	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var request model.CertificateRequest
	if err := db.WithContext(ctx).Model(&model.CertificateRequest{}).Where("id = ?", id).
		Preload("Entity").Preload("CertificateEdition").Preload("Items.Translations").First(&request).Error; err != nil {
		return &request, err
	}

	return &request, nil
}

type RequestFilter struct {
	Status  constant.RequestStatus
	Exclude []constant.RequestStatus
}

func (rr RequestRepository) GetByTenant(ctx context.Context, tx *gorm.DB, tenantId string, filter RequestFilter, page, pageSize uint) (*[]model.CertificateRequest, int64, error) {
	rr.logger.Debugf("Get certificate requests by tenant id: %s", tenantId)

	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	query := db.WithContext(ctx).Model(&model.CertificateRequest{}).Where("tenant_id = ?", tenantId)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if len(filter.Exclude) > 0 {
		query = query.Where("status NOT IN ?", filter.Exclude)
	}

	var requests []model.CertificateRequest
	total := int64(0)

	if err := query.Count(&total).Error; err != nil {
		return &requests, total, err
	}

	if err := query.Preload("Entity").Order("created_at desc").
		Offset(int((page - 1) * pageSize)).Limit(int(pageSize)).Find(&requests).Error; err != nil {
		return &requests, total, err
	}

	return &requests, total, nil
}

func (rr RequestRepository) Update(ctx context.Context, tx *gorm.DB, request *model.CertificateRequest) error {
	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return db.WithContext(ctx).Model(&model.CertificateRequest{}).
		Where("id = ?", request.ID).
		Select("certificate_type", "operation_type", "importer_name", "importer_address",
			"importer_country", "shipment_condition", "transport_method", "description",
			"notes", "language_code", "certificate_edition_id", "issue_date").
		Updates(request).Error
}

// ClaimIssuance flips the request to issued only if it still sits in the
// status the caller observed and still points at the same issued row. The
// guarded update is the serialization point for concurrent issuance: the
// loser of a race matches zero rows and must not create anything.
func (rr RequestRepository) ClaimIssuance(ctx context.Context, tx *gorm.DB, id string, from constant.RequestStatus, currentIssuedId *string) (bool, error) {
	rr.logger.Debugf("Claim issuance of certificate request %s from %s", id, from)

	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	query := db.WithContext(ctx).Model(&model.CertificateRequest{}).
		Where("id = ? AND status = ?", id, from)
	if currentIssuedId == nil || *currentIssuedId == "" {
		query = query.Where("(issued_id IS NULL OR issued_id = '')")
	} else {
		query = query.Where("issued_id = ?", *currentIssuedId)
	}

	result := query.Update("status", constant.RequestStatusIssued)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// UpdateStatus writes the new status plus any extra columns in one update.
// Transition legality is the lifecycle service's job; this is plain
// persistence.
func (rr RequestRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status constant.RequestStatus, extra map[string]any) error {
	rr.logger.Debugf("Update certificate request %s status to %s", id, status)

	db := rr.getDB(tx)
	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	updates := map[string]any{"status": status}
	for k, v := range extra {
		updates[k] = v
	}

	return db.WithContext(ctx).Model(&model.CertificateRequest{}).Where("id = ?", id).Updates(updates).Error
}
