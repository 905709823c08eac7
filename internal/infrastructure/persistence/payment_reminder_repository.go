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

// GormPaymentReminderRepository implements billing.ReminderRepository using GORM
type GormPaymentReminderRepository struct {
	db *gorm.DB
}

// NewGormPaymentReminderRepository creates a new GormPaymentReminderRepository
func NewGormPaymentReminderRepository(db *gorm.DB) *GormPaymentReminderRepository {
	return &GormPaymentReminderRepository{db: db}
}

// FindByID finds a reminder by ID within a tenant
func (r *GormPaymentReminderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*billing.PaymentReminder, error) {
	var model models.PaymentReminderModel
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoice lists the reminders of an invoice, oldest first
func (r *GormPaymentReminderRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]billing.PaymentReminder, error) {
	var rows []models.PaymentReminderModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("scheduled_at ASC").Order("reminder_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	reminders := make([]billing.PaymentReminder, len(rows))
	for i := range rows {
		reminders[i] = *rows[i].ToDomain()
	}
	return reminders, nil
}

// Create inserts a reminder
func (r *GormPaymentReminderRepository) Create(ctx context.Context, reminder *billing.PaymentReminder) error {
	return r.db.WithContext(ctx).Create(models.PaymentReminderModelFromDomain(reminder)).Error
}

// Save updates a reminder
func (r *GormPaymentReminderRepository) Save(ctx context.Context, reminder *billing.PaymentReminder) error {
	return r.db.WithContext(ctx).Save(models.PaymentReminderModelFromDomain(reminder)).Error
}

// SettlePending writes the delivery outcome of a reminder that is still PENDING
func (r *GormPaymentReminderRepository) SettlePending(ctx context.Context, reminder *billing.PaymentReminder) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.PaymentReminderModel{}).
		Where("tenant_id = ? AND id = ? AND state = ?", reminder.TenantID, reminder.ID, billing.ReminderStatePending).
		Updates(map[string]any{
			"state":           reminder.State,
			"sent_at":         reminder.SentAt,
			"error":           reminder.Error,
			"delivery_status": reminder.DeliveryStatus,
			"updated_at":      reminder.UpdatedAt,
			"version":         reminder.Version,
		})
	return result.RowsAffected == 1, result.Error
}

// CancelPendingByInvoice moves every PENDING reminder of an invoice to CANCELLED
func (r *GormPaymentReminderRepository) CancelPendingByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.PaymentReminderModel{}).
		Where("tenant_id = ? AND invoice_id = ? AND state = ?", tenantID, invoiceID, billing.ReminderStatePending).
		Updates(map[string]any{
			"state":      billing.ReminderStateCancelled,
			"updated_at": at,
			"version":    gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}

var _ billing.ReminderRepository = (*GormPaymentReminderRepository)(nil)
