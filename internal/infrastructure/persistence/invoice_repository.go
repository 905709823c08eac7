package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by ID within a tenant
func (r *GormInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	return r.findOne(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate loads the invoice with SELECT ... FOR UPDATE.
// Only meaningful inside a transaction.
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, id)
}

func (r *GormInvoiceRepository) findOne(query *gorm.DB, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := query.Where("tenant_id = ? AND id = ?", tenantID, id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOwner lists the invoices of an owner, newest first by default
func (r *GormInvoiceRepository) FindByOwner(ctx context.Context, tenantID, ownerID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND owner_id = ?", tenantID, ownerID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.InvoiceModel
	if err := paginate(query, filter.Filter, InvoiceSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	invoices := make([]billing.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices, total, nil
}

// FindOutstanding returns PENDING and PARTIAL invoices of all tenants in ID order.
// Pass uuid.Nil to start from the beginning.
func (r *GormInvoiceRepository) FindOutstanding(ctx context.Context, afterID uuid.UUID, limit int) ([]billing.Invoice, error) {
	query := r.db.WithContext(ctx).
		Where("status IN ?", []billing.InvoiceStatus{billing.InvoiceStatusPending, billing.InvoiceStatusPartial})
	if afterID != uuid.Nil {
		query = query.Where("id > ?", afterID)
	}

	var rows []models.InvoiceModel
	if err := query.Order("id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	invoices := make([]billing.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices, nil
}

// Create inserts a new invoice
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *billing.Invoice) error {
	return r.db.WithContext(ctx).Create(models.InvoiceModelFromDomain(inv)).Error
}

// Save updates an existing invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *billing.Invoice) error {
	return r.db.WithContext(ctx).Save(models.InvoiceModelFromDomain(inv)).Error
}

var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
