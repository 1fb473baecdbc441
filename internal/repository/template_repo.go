package repository

import (
	"context"
	"errors"

	"github.com/serviceai/sms-dispatch/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TemplateRepository interface {
	GetActive(ctx context.Context, orgID, key, language string) (*domain.Template, error)
	Upsert(ctx context.Context, t *domain.Template) error
	ListByCategory(ctx context.Context, orgID string, category domain.Category, language string) ([]domain.Template, error)
	ListKeys(ctx context.Context, orgID string) ([]string, error)
}

type GormTemplateRepo struct {
	db *gorm.DB
}

func NewGormTemplateRepo(db *gorm.DB) *GormTemplateRepo {
	return &GormTemplateRepo{db: db}
}

func (r *GormTemplateRepo) GetActive(ctx context.Context, orgID, key, language string) (*domain.Template, error) {
	var model TemplateModel
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND key = ? AND language = ? AND is_active = true", orgID, key, language).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return templateModelToDomain(&model), nil
}

// Upsert inserts or replaces the (organization, key, language) row and echoes
// the stored row back through t.
func (r *GormTemplateRepo) Upsert(ctx context.Context, t *domain.Template) error {
	model := templateModelFromDomain(t)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "organization_id"},
				{Name: "key"},
				{Name: "language"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"content", "variables", "category", "is_active", "updated_at",
			}),
		}).
		Create(model).Error
	if err != nil {
		return err
	}

	// The conflict path keeps the existing row's id; read it back.
	var stored TemplateModel
	err = r.db.WithContext(ctx).
		Where("organization_id = ? AND key = ? AND language = ?", model.OrganizationID, model.Key, model.Language).
		First(&stored).Error
	if err != nil {
		return err
	}

	if t != nil {
		*t = *templateModelToDomain(&stored)
	}
	return nil
}

func (r *GormTemplateRepo) ListByCategory(ctx context.Context, orgID string, category domain.Category, language string) ([]domain.Template, error) {
	var models []TemplateModel
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND category = ? AND language = ? AND is_active = true", orgID, category, language).
		Order("key ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	templates := make([]domain.Template, 0, len(models))
	for i := range models {
		templates = append(templates, *templateModelToDomain(&models[i]))
	}
	return templates, nil
}

func (r *GormTemplateRepo) ListKeys(ctx context.Context, orgID string) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).
		Model(&TemplateModel{}).
		Distinct("key").
		Where("organization_id = ? AND is_active = true", orgID).
		Order("key ASC").
		Pluck("key", &keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}
