package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormReceiptRepository implements billing.ReceiptRepository using GORM
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// FindByID finds a receipt by ID within a tenant
func (r *GormReceiptRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*billing.Receipt, error) {
	return r.findOne(ctx, "tenant_id = ? AND id = ?", tenantID, id)
}

// FindByTransaction finds the receipt of a transaction
func (r *GormReceiptRepository) FindByTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) (*billing.Receipt, error) {
	return r.findOne(ctx, "tenant_id = ? AND transaction_id = ?", tenantID, transactionID)
}

func (r *GormReceiptRepository) findOne(ctx context.Context, where string, args ...any) (*billing.Receipt, error) {
	var model models.ReceiptModel
	err := r.db.WithContext(ctx).Where(where, args...).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoice lists the receipts of an invoice
func (r *GormReceiptRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]billing.Receipt, error) {
	var rows []models.ReceiptModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("generated_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	receipts := make([]billing.Receipt, len(rows))
	for i := range rows {
		receipts[i] = *rows[i].ToDomain()
	}
	return receipts, nil
}

// Create inserts a receipt
func (r *GormReceiptRepository) Create(ctx context.Context, receipt *billing.Receipt) error {
	return r.db.WithContext(ctx).Create(models.ReceiptModelFromDomain(receipt)).Error
}

// Save updates the mutable fields of a receipt (artifact handle and emailed flag)
func (r *GormReceiptRepository) Save(ctx context.Context, receipt *billing.Receipt) error {
	return r.db.WithContext(ctx).Model(&models.ReceiptModel{}).
		Where("tenant_id = ? AND id = ?", receipt.TenantID, receipt.ID).
		Updates(map[string]any{
			"artifact_handle": receipt.ArtifactHandle,
			"emailed":         receipt.Emailed,
			"updated_at":      receipt.UpdatedAt,
		}).Error
}

var _ billing.ReceiptRepository = (*GormReceiptRepository)(nil)
