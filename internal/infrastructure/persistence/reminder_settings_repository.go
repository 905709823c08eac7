package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReminderConfigRepository implements billing.ReminderConfigRepository using GORM
type GormReminderConfigRepository struct {
	db *gorm.DB
}

// NewGormReminderConfigRepository creates a new GormReminderConfigRepository
func NewGormReminderConfigRepository(db *gorm.DB) *GormReminderConfigRepository {
	return &GormReminderConfigRepository{db: db}
}

// FindByTenant returns the stored configuration of a tenant, or nil
func (r *GormReminderConfigRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*billing.ReminderConfiguration, error) {
	var model models.ReminderConfigurationModel
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain()
}

// Upsert creates the tenant configuration or replaces the stored one.
// The stored row keeps its ID and creation time; cfg is updated to match.
func (r *GormReminderConfigRepository) Upsert(ctx context.Context, cfg *billing.ReminderConfiguration) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ReminderConfigurationModel
		err := tx.Where("tenant_id = ?", cfg.TenantID).First(&existing).Error
		switch {
		case err == nil:
			cfg.ID = existing.ID
			cfg.CreatedAt = existing.CreatedAt
		case errors.Is(err, gorm.ErrRecordNotFound):
			if cfg.ID == uuid.Nil {
				cfg.ID = uuid.New()
			}
			if cfg.CreatedAt.IsZero() {
				cfg.CreatedAt = time.Now().UTC()
			}
		default:
			return err
		}
		if cfg.UpdatedAt.IsZero() || cfg.UpdatedAt.Before(cfg.CreatedAt) {
			cfg.UpdatedAt = cfg.CreatedAt
		}

		model, err := models.ReminderConfigurationModelFromDomain(cfg)
		if err != nil {
			return err
		}
		return tx.Save(model).Error
	})
}

var _ billing.ReminderConfigRepository = (*GormReminderConfigRepository)(nil)

// GormReminderTemplateRepository implements billing.ReminderTemplateRepository using GORM
type GormReminderTemplateRepository struct {
	db *gorm.DB
}

// NewGormReminderTemplateRepository creates a new GormReminderTemplateRepository
func NewGormReminderTemplateRepository(db *gorm.DB) *GormReminderTemplateRepository {
	return &GormReminderTemplateRepository{db: db}
}

// FindDefault returns the default template of a reminder type, or nil
func (r *GormReminderTemplateRepository) FindDefault(ctx context.Context, tenantID uuid.UUID, reminderType billing.ReminderType) (*billing.ReminderTemplate, error) {
	var model models.ReminderTemplateModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND reminder_type = ? AND is_default = ?", tenantID, reminderType, true).
		Order("updated_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists the templates of a tenant, optionally of one reminder type
func (r *GormReminderTemplateRepository) FindAll(ctx context.Context, tenantID uuid.UUID, reminderType *billing.ReminderType) ([]billing.ReminderTemplate, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if reminderType != nil {
		query = query.Where("reminder_type = ?", *reminderType)
	}

	var rows []models.ReminderTemplateModel
	if err := query.Order("reminder_type ASC").Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	templates := make([]billing.ReminderTemplate, len(rows))
	for i := range rows {
		templates[i] = *rows[i].ToDomain()
	}
	return templates, nil
}

// Create inserts a template. A default template demotes the previous default of its type.
func (r *GormReminderTemplateRepository) Create(ctx context.Context, tpl *billing.ReminderTemplate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tpl.IsDefault {
			if err := tx.Model(&models.ReminderTemplateModel{}).
				Where("tenant_id = ? AND reminder_type = ? AND is_default = ?", tpl.TenantID, tpl.ReminderType, true).
				Updates(map[string]any{"is_default": false, "updated_at": tpl.CreatedAt}).Error; err != nil {
				return err
			}
		}
		return tx.Create(models.ReminderTemplateModelFromDomain(tpl)).Error
	})
}

var _ billing.ReminderTemplateRepository = (*GormReminderTemplateRepository)(nil)
