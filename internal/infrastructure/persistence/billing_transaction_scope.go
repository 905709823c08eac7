package persistence

import (
	"context"

	appbilling "github.com/hostel/backend/internal/application/billing"
	"github.com/hostel/backend/internal/domain/billing"
	"gorm.io/gorm"
)

// GormBillingTransactionScope implements TransactionScope using GORM transactions.
type GormBillingTransactionScope struct {
	db *gorm.DB
}

// NewGormBillingTransactionScope creates a new GormBillingTransactionScope.
func NewGormBillingTransactionScope(db *gorm.DB) *GormBillingTransactionScope {
	return &GormBillingTransactionScope{db: db}
}

// Execute runs fn within a database transaction; an error from fn rolls it back.
func (s *GormBillingTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormBillingRepositories{tx: tx})
	})
}

// gormBillingRepositories builds repositories on the transaction handle
type gormBillingRepositories struct {
	tx *gorm.DB
}

func (r *gormBillingRepositories) Invoices() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *gormBillingRepositories) Transactions() billing.TransactionRepository {
	return NewGormBillingTransactionRepository(r.tx)
}

func (r *gormBillingRepositories) Receipts() billing.ReceiptRepository {
	return NewGormReceiptRepository(r.tx)
}

func (r *gormBillingRepositories) Refunds() billing.RefundRepository {
	return NewGormRefundRequestRepository(r.tx)
}

func (r *gormBillingRepositories) Reminders() billing.ReminderRepository {
	return NewGormPaymentReminderRepository(r.tx)
}

var _ appbilling.TransactionScope = (*GormBillingTransactionScope)(nil)
var _ appbilling.TransactionalRepositories = (*gormBillingRepositories)(nil)
