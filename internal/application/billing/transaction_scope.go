package billing

import (
	"context"

	"github.com/hostel/backend/internal/domain/billing"
)

// TransactionScope provides transactional access to the ledger repositories.
// Everything done through the repositories handed to fn commits or rolls back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the billing repositories bound to one transaction.
//
// The invoice row is the concurrency boundary: payment and refund paths lock it
// with FindByIDForUpdate before touching transactions, receipts or refunds.
type TransactionalRepositories interface {
	Invoices() billing.InvoiceRepository
	Transactions() billing.TransactionRepository
	Receipts() billing.ReceiptRepository
	Refunds() billing.RefundRepository
	Reminders() billing.ReminderRepository
}

// NoOpTransactionScope runs the function against plain repositories without a transaction.
// It is meant for tests.
type NoOpTransactionScope struct {
	invoices     billing.InvoiceRepository
	transactions billing.TransactionRepository
	receipts     billing.ReceiptRepository
	refunds      billing.RefundRepository
	reminders    billing.ReminderRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	invoices billing.InvoiceRepository,
	transactions billing.TransactionRepository,
	receipts billing.ReceiptRepository,
	refunds billing.RefundRepository,
	reminders billing.ReminderRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		invoices:     invoices,
		transactions: transactions,
		receipts:     receipts,
		refunds:      refunds,
		reminders:    reminders,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Invoices() billing.InvoiceRepository         { return s.invoices }
func (s *NoOpTransactionScope) Transactions() billing.TransactionRepository { return s.transactions }
func (s *NoOpTransactionScope) Receipts() billing.ReceiptRepository         { return s.receipts }
func (s *NoOpTransactionScope) Refunds() billing.RefundRepository           { return s.refunds }
func (s *NoOpTransactionScope) Reminders() billing.ReminderRepository       { return s.reminders }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
