package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormBillingTransactionRepository implements billing.TransactionRepository using GORM
type GormBillingTransactionRepository struct {
	db *gorm.DB
}

// NewGormBillingTransactionRepository creates a new GormBillingTransactionRepository
func NewGormBillingTransactionRepository(db *gorm.DB) *GormBillingTransactionRepository {
	return &GormBillingTransactionRepository{db: db}
}

// FindByID finds a transaction by ID within a tenant
func (r *GormBillingTransactionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*billing.Transaction, error) {
	var model models.TransactionModel
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoice lists the transactions of an invoice in creation order
func (r *GormBillingTransactionRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]billing.Transaction, error) {
	var rows []models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("created_at ASC").Order("transaction_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	txns := make([]billing.Transaction, len(rows))
	for i := range rows {
		txns[i] = *rows[i].ToDomain()
	}
	return txns, nil
}

// FindByGatewayRef finds a payment previously recorded with the same gateway reference
func (r *GormBillingTransactionRepository) FindByGatewayRef(ctx context.Context, tenantID, invoiceID uuid.UUID, gateway, gatewayRef string) (*billing.Transaction, error) {
	var model models.TransactionModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ? AND gateway = ? AND gateway_ref = ? AND kind = ?",
			tenantID, invoiceID, gateway, gatewayRef, billing.TransactionKindPayment).
		Order("created_at ASC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// SumSuccessful returns the signed sum of the SUCCESS transactions of an invoice
func (r *GormBillingTransactionRepository) SumSuccessful(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.TransactionModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("tenant_id = ? AND invoice_id = ? AND status = ?", tenantID, invoiceID, billing.TransactionStatusSuccess).
		Row().Scan(&total)
	return total, err
}

// Create appends a transaction
func (r *GormBillingTransactionRepository) Create(ctx context.Context, txn *billing.Transaction) error {
	return r.db.WithContext(ctx).Create(models.TransactionModelFromDomain(txn)).Error
}

// Save persists the status of a transaction
func (r *GormBillingTransactionRepository) Save(ctx context.Context, txn *billing.Transaction) error {
	return r.db.WithContext(ctx).Model(&models.TransactionModel{}).
		Where("tenant_id = ? AND id = ?", txn.TenantID, txn.ID).
		Updates(map[string]any{
			"status":     txn.Status,
			"notes":      txn.Notes,
			"updated_at": txn.UpdatedAt,
		}).Error
}

var _ billing.TransactionRepository = (*GormBillingTransactionRepository)(nil)
