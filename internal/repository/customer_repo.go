package repository

import (
	"context"
	"errors"

	"github.com/serviceai/sms-dispatch/internal/domain"

	"gorm.io/gorm"
)

type CustomerRepository interface {
	GetByID(ctx context.Context, orgID, customerID string) (*domain.Customer, error)
}

type EmergencyContactRepository interface {
	ListActiveSMSEnabled(ctx context.Context, orgID string) ([]domain.EmergencyContact, error)
}

type GormCustomerRepo struct {
	db *gorm.DB
}

func NewGormCustomerRepo(db *gorm.DB) *GormCustomerRepo {
	return &GormCustomerRepo{db: db}
}

func (r *GormCustomerRepo) GetByID(ctx context.Context, orgID, customerID string) (*domain.Customer, error) {
	var model CustomerModel
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, customerID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return customerModelToDomain(&model), nil
}

type GormEmergencyContactRepo struct {
	db *gorm.DB
}

func NewGormEmergencyContactRepo(db *gorm.DB) *GormEmergencyContactRepo {
	return &GormEmergencyContactRepo{db: db}
}

func (r *GormEmergencyContactRepo) ListActiveSMSEnabled(ctx context.Context, orgID string) ([]domain.EmergencyContact, error) {
	var models []EmergencyContactModel
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND is_active = true AND sms_enabled = true", orgID).
		Order("priority ASC, created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	contacts := make([]domain.EmergencyContact, 0, len(models))
	for i := range models {
		contacts = append(contacts, *contactModelToDomain(&models[i]))
	}
	return contacts, nil
}
