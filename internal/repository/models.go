package repository

import (
	"strings"
	"time"

	"github.com/serviceai/sms-dispatch/internal/domain"
)

// TemplateModel is the persistence model for the message_templates table.
// (organization_id, key, language) is unique; see migrations.
type TemplateModel struct {
	ID             string          `gorm:"type:uuid;primaryKey"`
	OrganizationID string          `gorm:"type:uuid;not null"`
	Key            string          `gorm:"type:varchar(100);not null"`
	Language       string          `gorm:"type:varchar(10);not null"`
	Content        string          `gorm:"type:text;not null"`
	Variables      []string        `gorm:"type:jsonb;serializer:json"`
	Category       domain.Category `gorm:"type:varchar(20);not null"`
	IsActive       bool            `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (TemplateModel) TableName() string {
	return "message_templates"
}

// CustomerModel is the persistence model for customers.
type CustomerModel struct {
	ID             string  `gorm:"type:uuid;primaryKey"`
	OrganizationID string  `gorm:"type:uuid;not null"`
	Name           string  `gorm:"type:varchar(255)"`
	Phone          *string `gorm:"type:varchar(20)"`
	SMSOptIn       bool    `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (CustomerModel) TableName() string {
	return "customers"
}

// EmergencyContactModel is the persistence model for emergency_contacts.
type EmergencyContactModel struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	OrganizationID string `gorm:"type:uuid;not null"`
	Name           string `gorm:"type:varchar(255)"`
	Phone          string `gorm:"type:varchar(20);not null"`
	IsActive       bool   `gorm:"not null;default:true"`
	SMSEnabled     bool   `gorm:"not null;default:true"`
	Priority       int    `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (EmergencyContactModel) TableName() string {
	return "emergency_contacts"
}

// DeliveryRecordModel is the persistence model for sms_messages, the delivery
// log consumed by the activity dashboards. Rows are insert-only.
type DeliveryRecordModel struct {
	ID                string                `gorm:"type:uuid;primaryKey"`
	OrganizationID    string                `gorm:"type:uuid;not null"`
	Phone             string                `gorm:"type:varchar(20);not null"`
	Body              string                `gorm:"type:text;not null"`
	TemplateKey       *string               `gorm:"type:varchar(100)"`
	Language          string                `gorm:"type:varchar(10);not null"`
	Direction         domain.Direction      `gorm:"type:varchar(10);not null"`
	Status            domain.DeliveryStatus `gorm:"type:varchar(10);not null"`
	Provider          *string               `gorm:"type:varchar(20)"`
	ProviderMessageID *string               `gorm:"type:varchar(255)"`
	ErrorDetail       *string               `gorm:"type:text"`
	Cost              float64               `gorm:"type:numeric(10,6);not null;default:0"`
	CreatedAt         time.Time
}

func (DeliveryRecordModel) TableName() string {
	return "sms_messages"
}

func templateModelFromDomain(t *domain.Template) *TemplateModel {
	if t == nil {
		return nil
	}

	return &TemplateModel{
		ID:             t.ID,
		OrganizationID: t.OrganizationID,
		Key:            t.Key,
		Language:       t.Language,
		Content:        t.Content,
		Variables:      t.Variables,
		Category:       t.Category,
		IsActive:       t.IsActive,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func templateModelToDomain(m *TemplateModel) *domain.Template {
	if m == nil {
		return nil
	}

	return &domain.Template{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		Key:            m.Key,
		Language:       m.Language,
		Content:        m.Content,
		Variables:      m.Variables,
		Category:       m.Category,
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func customerModelToDomain(m *CustomerModel) *domain.Customer {
	if m == nil {
		return nil
	}

	phone := ""
	if m.Phone != nil {
		phone = *m.Phone
	}

	return &domain.Customer{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		Name:           m.Name,
		Phone:          phone,
		SMSOptIn:       m.SMSOptIn,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func contactModelToDomain(m *EmergencyContactModel) *domain.EmergencyContact {
	if m == nil {
		return nil
	}

	return &domain.EmergencyContact{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		Name:           m.Name,
		Phone:          m.Phone,
		IsActive:       m.IsActive,
		SMSEnabled:     m.SMSEnabled,
		Priority:       m.Priority,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func deliveryModelFromDomain(r *domain.DeliveryRecord) *DeliveryRecordModel {
	if r == nil {
		return nil
	}

	return &DeliveryRecordModel{
		ID:                r.ID,
		OrganizationID:    r.OrganizationID,
		Phone:             r.Phone,
		Body:              r.Body,
		TemplateKey:       optionalString(r.TemplateKey),
		Language:          r.Language,
		Direction:         r.Direction,
		Status:            r.Status,
		Provider:          optionalString(r.Provider),
		ProviderMessageID: optionalString(r.ProviderMessageID),
		ErrorDetail:       optionalString(r.ErrorDetail),
		Cost:              r.Cost,
		CreatedAt:         r.CreatedAt,
	}
}

func deliveryModelToDomain(m *DeliveryRecordModel) *domain.DeliveryRecord {
	if m == nil {
		return nil
	}

	return &domain.DeliveryRecord{
		ID:                m.ID,
		OrganizationID:    m.OrganizationID,
		Phone:             m.Phone,
		Body:              m.Body,
		TemplateKey:       stringValue(m.TemplateKey),
		Language:          m.Language,
		Direction:         m.Direction,
		Status:            m.Status,
		Provider:          stringValue(m.Provider),
		ProviderMessageID: stringValue(m.ProviderMessageID),
		ErrorDetail:       stringValue(m.ErrorDetail),
		Cost:              m.Cost,
		CreatedAt:         m.CreatedAt,
	}
}

func optionalString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &v
}

func stringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
