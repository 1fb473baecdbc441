package repository

import (
	"context"
	"time"

	"github.com/serviceai/sms-dispatch/internal/domain"

	"gorm.io/gorm"
)

type ListParams struct {
	OrganizationID string
	Status         *domain.DeliveryStatus
	From           *time.Time
	To             *time.Time
	Page           int
	PageSize       int
}

type DeliveryRepository interface {
	Create(ctx context.Context, r *domain.DeliveryRecord) error
	List(ctx context.Context, params ListParams) ([]domain.DeliveryRecord, int64, error)
}

type GormDeliveryRepo struct {
	db *gorm.DB
}

func NewGormDeliveryRepo(db *gorm.DB) *GormDeliveryRepo {
	return &GormDeliveryRepo{db: db}
}

func (r *GormDeliveryRepo) Create(ctx context.Context, record *domain.DeliveryRecord) error {
	model := deliveryModelFromDomain(record)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if record != nil {
		*record = *deliveryModelToDomain(model)
	}
	return nil
}

func (r *GormDeliveryRepo) List(ctx context.Context, params ListParams) ([]domain.DeliveryRecord, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&DeliveryRecordModel{}).
		Where("organization_id = ?", params.OrganizationID)

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at <= ?", *params.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []DeliveryRecordModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	records := make([]domain.DeliveryRecord, 0, len(models))
	for i := range models {
		records = append(records, *deliveryModelToDomain(&models[i]))
	}

	return records, total, nil
}
