package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRefundRequestRepository implements billing.RefundRepository using GORM
type GormRefundRequestRepository struct {
	db *gorm.DB
}

// NewGormRefundRequestRepository creates a new GormRefundRequestRepository
func NewGormRefundRequestRepository(db *gorm.DB) *GormRefundRequestRepository {
	return &GormRefundRequestRepository{db: db}
}

// FindByID finds a refund request by ID within a tenant
func (r *GormRefundRequestRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*billing.RefundRequest, error) {
	return r.findOne(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate loads the refund request with SELECT ... FOR UPDATE
func (r *GormRefundRequestRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*billing.RefundRequest, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, id)
}

func (r *GormRefundRequestRepository) findOne(query *gorm.DB, tenantID, id uuid.UUID) (*billing.RefundRequest, error) {
	var model models.RefundRequestModel
	err := query.Where("tenant_id = ? AND id = ?", tenantID, id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists refund requests matching the filter
func (r *GormRefundRequestRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter billing.RefundFilter) ([]billing.RefundRequest, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RefundRequestModel{}).Where("tenant_id = ?", tenantID)
	if filter.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *filter.InvoiceID)
	}
	if filter.TransactionID != nil {
		query = query.Where("transaction_id = ?", *filter.TransactionID)
	}
	if filter.State != nil {
		query = query.Where("state = ?", *filter.State)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.RefundRequestModel
	if err := paginate(query, filter.Filter, RefundSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	refunds := make([]billing.RefundRequest, len(rows))
	for i := range rows {
		refunds[i] = *rows[i].ToDomain()
	}
	return refunds, total, nil
}

// FindInFlightByTransaction lists INITIATED and PROCESSING refunds of a payment
func (r *GormRefundRequestRepository) FindInFlightByTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) ([]billing.RefundRequest, error) {
	var rows []models.RefundRequestModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND transaction_id = ? AND state IN ?", tenantID, transactionID,
			[]billing.RefundState{billing.RefundStateInitiated, billing.RefundStateProcessing}).
		Order("requested_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	refunds := make([]billing.RefundRequest, len(rows))
	for i := range rows {
		refunds[i] = *rows[i].ToDomain()
	}
	return refunds, nil
}

// SumCompletedByTransaction returns the total of COMPLETED refunds of a payment
func (r *GormRefundRequestRepository) SumCompletedByTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.RefundRequestModel{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("tenant_id = ? AND transaction_id = ? AND state = ?", tenantID, transactionID, billing.RefundStateCompleted).
		Row().Scan(&total)
	return total, err
}

// Create inserts a refund request
func (r *GormRefundRequestRepository) Create(ctx context.Context, refund *billing.RefundRequest) error {
	return r.db.WithContext(ctx).Create(models.RefundRequestModelFromDomain(refund)).Error
}

// Save updates a refund request
func (r *GormRefundRequestRepository) Save(ctx context.Context, refund *billing.RefundRequest) error {
	return r.db.WithContext(ctx).Save(models.RefundRequestModelFromDomain(refund)).Error
}

var _ billing.RefundRepository = (*GormRefundRequestRepository)(nil)
