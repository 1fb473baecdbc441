package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/serviceai/sms-dispatch/internal/repository"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		createMessageTemplatesTable(),
		createCustomersTable(),
		createEmergencyContactsTable(),
		createSMSMessagesTable(),
	})

	return m.Migrate()
}

func createMessageTemplatesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_message_templates",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.TemplateModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_templates_org_key_language ON message_templates (organization_id, key, language)`,
				`CREATE INDEX IF NOT EXISTS idx_templates_org_category ON message_templates (organization_id, category) WHERE is_active`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.TemplateModel{})
		},
	}
}

func createCustomersTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_customers",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.CustomerModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_customers_org ON customers (organization_id)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.CustomerModel{})
		},
	}
}

func createEmergencyContactsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_emergency_contacts",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.EmergencyContactModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_contacts_org_active ON emergency_contacts (organization_id) WHERE is_active AND sms_enabled`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.EmergencyContactModel{})
		},
	}
}

func createSMSMessagesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000004_create_sms_messages",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.DeliveryRecordModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_sms_messages_org_created ON sms_messages (organization_id, created_at DESC)`,
				`CREATE INDEX IF NOT EXISTS idx_sms_messages_org_status ON sms_messages (organization_id, status)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.DeliveryRecordModel{})
		},
	}
}
