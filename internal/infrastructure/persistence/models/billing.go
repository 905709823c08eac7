package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber   string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	OwnerID         uuid.UUID             `gorm:"type:uuid;not null;index"`
	ContactName     string                `gorm:"type:varchar(200)"`
	ContactEmail    string                `gorm:"type:varchar(200)"`
	ContactPhone    string                `gorm:"type:varchar(50)"`
	Description     string                `gorm:"type:text"`
	LineItems       billing.LineItems     `gorm:"type:jsonb;not null;default:'[]'"`
	TotalAmount     decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	PaidAmount      decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	DueAmount       decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Status          billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	IssueDate       time.Time             `gorm:"not null"`
	DueDate         time.Time             `gorm:"not null;index"`
	EscalationLevel int                   `gorm:"not null;default:0"`
	ReminderCount   int                   `gorm:"not null;default:0"`
	LastReminderAt  *time.Time
	CancelledAt     *time.Time
	CancelReason    string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	return &billing.Invoice{
		TenantAggregateRoot: m.aggregate(),
		InvoiceNumber:       m.InvoiceNumber,
		OwnerID:             m.OwnerID,
		Contact: billing.BillingContact{
			Name:  m.ContactName,
			Email: m.ContactEmail,
			Phone: m.ContactPhone,
		},
		Description:     m.Description,
		LineItems:       m.LineItems,
		TotalAmount:     m.TotalAmount,
		PaidAmount:      m.PaidAmount,
		DueAmount:       m.DueAmount,
		Status:          m.Status,
		IssueDate:       m.IssueDate,
		DueDate:         m.DueDate,
		EscalationLevel: m.EscalationLevel,
		ReminderCount:   m.ReminderCount,
		LastReminderAt:  m.LastReminderAt,
		CancelledAt:     m.CancelledAt,
		CancelReason:    m.CancelReason,
	}
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.setAggregate(inv.TenantAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.OwnerID = inv.OwnerID
	m.ContactName = inv.Contact.Name
	m.ContactEmail = inv.Contact.Email
	m.ContactPhone = inv.Contact.Phone
	m.Description = inv.Description
	m.LineItems = inv.LineItems
	m.TotalAmount = inv.TotalAmount
	m.PaidAmount = inv.PaidAmount
	m.DueAmount = inv.DueAmount
	m.Status = inv.Status
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.EscalationLevel = inv.EscalationLevel
	m.ReminderCount = inv.ReminderCount
	m.LastReminderAt = inv.LastReminderAt
	m.CancelledAt = inv.CancelledAt
	m.CancelReason = inv.CancelReason
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// TransactionModel is the persistence model for ledger transactions.
type TransactionModel struct {
	TenantModel
	TransactionNumber string                    `gorm:"type:varchar(50);not null;uniqueIndex"`
	InvoiceID         uuid.UUID                 `gorm:"type:uuid;not null;index"`
	ParentPaymentID   uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Kind              billing.TransactionKind   `gorm:"type:varchar(20);not null"`
	Amount            decimal.Decimal           `gorm:"type:decimal(18,4);not null"`
	Method            billing.PaymentMethod     `gorm:"type:varchar(30);not null"`
	Gateway           string                    `gorm:"type:varchar(50)"`
	GatewayRef        string                    `gorm:"type:varchar(100);index"`
	Status            billing.TransactionStatus `gorm:"type:varchar(20);not null;index"`
	Notes             string                    `gorm:"type:text"`
	ProcessedBy       *uuid.UUID                `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "billing_transactions"
}

// ToDomain converts the persistence model to a domain Transaction.
func (m *TransactionModel) ToDomain() *billing.Transaction {
	return &billing.Transaction{
		BaseEntity:        m.entity(),
		TenantID:          m.TenantID,
		TransactionNumber: m.TransactionNumber,
		InvoiceID:         m.InvoiceID,
		ParentPaymentID:   m.ParentPaymentID,
		Kind:              m.Kind,
		Amount:            m.Amount,
		Method:            m.Method,
		Gateway:           m.Gateway,
		GatewayRef:        m.GatewayRef,
		Status:            m.Status,
		Notes:             m.Notes,
		ProcessedBy:       m.ProcessedBy,
	}
}

// TransactionModelFromDomain creates a new persistence model from a domain Transaction.
func TransactionModelFromDomain(t *billing.Transaction) *TransactionModel {
	m := &TransactionModel{
		TransactionNumber: t.TransactionNumber,
		InvoiceID:         t.InvoiceID,
		ParentPaymentID:   t.ParentPaymentID,
		Kind:              t.Kind,
		Amount:            t.Amount,
		Method:            t.Method,
		Gateway:           t.Gateway,
		GatewayRef:        t.GatewayRef,
		Status:            t.Status,
		Notes:             t.Notes,
		ProcessedBy:       t.ProcessedBy,
	}
	m.setEntity(t.BaseEntity)
	m.TenantID = t.TenantID
	return m
}

// ReceiptModel is the persistence model for receipts. One receipt per transaction.
type ReceiptModel struct {
	TenantModel
	ReceiptNumber  string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	InvoiceID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	TransactionID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	PaymentID      uuid.UUID       `gorm:"type:uuid;not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ArtifactHandle string          `gorm:"type:varchar(500)"`
	QRPayload      string          `gorm:"type:varchar(200);not null"`
	GeneratedAt    time.Time       `gorm:"not null"`
	Emailed        bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ReceiptModel) TableName() string {
	return "receipts"
}

// ToDomain converts the persistence model to a domain Receipt.
func (m *ReceiptModel) ToDomain() *billing.Receipt {
	return &billing.Receipt{
		BaseEntity:     m.entity(),
		TenantID:       m.TenantID,
		ReceiptNumber:  m.ReceiptNumber,
		InvoiceID:      m.InvoiceID,
		TransactionID:  m.TransactionID,
		PaymentID:      m.PaymentID,
		Amount:         m.Amount,
		ArtifactHandle: m.ArtifactHandle,
		QRPayload:      m.QRPayload,
		GeneratedAt:    m.GeneratedAt,
		Emailed:        m.Emailed,
	}
}

// ReceiptModelFromDomain creates a new persistence model from a domain Receipt.
func ReceiptModelFromDomain(r *billing.Receipt) *ReceiptModel {
	m := &ReceiptModel{
		ReceiptNumber:  r.ReceiptNumber,
		InvoiceID:      r.InvoiceID,
		TransactionID:  r.TransactionID,
		PaymentID:      r.PaymentID,
		Amount:         r.Amount,
		ArtifactHandle: r.ArtifactHandle,
		QRPayload:      r.QRPayload,
		GeneratedAt:    r.GeneratedAt,
		Emailed:        r.Emailed,
	}
	m.setEntity(r.BaseEntity)
	m.TenantID = r.TenantID
	return m
}

// RefundRequestModel is the persistence model for the RefundRequest aggregate root.
type RefundRequestModel struct {
	TenantAggregateModel
	RefundNumber        string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	TransactionID       uuid.UUID           `gorm:"type:uuid;not null;index"`
	InvoiceID           uuid.UUID           `gorm:"type:uuid;not null;index"`
	Amount              decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Reason              string              `gorm:"type:varchar(500)"`
	State               billing.RefundState `gorm:"type:varchar(20);not null;index"`
	RequestedBy         *uuid.UUID          `gorm:"type:uuid"`
	ApprovedBy          *uuid.UUID          `gorm:"type:uuid"`
	RejectionReason     string              `gorm:"type:varchar(500)"`
	FailureReason       string              `gorm:"type:varchar(500)"`
	RefundTransactionID *uuid.UUID          `gorm:"type:uuid"`
	RequestedAt         time.Time           `gorm:"not null"`
	ProcessedAt         *time.Time
	CompletedAt         *time.Time
}

// TableName returns the table name for GORM
func (RefundRequestModel) TableName() string {
	return "refund_requests"
}

// ToDomain converts the persistence model to a domain RefundRequest.
func (m *RefundRequestModel) ToDomain() *billing.RefundRequest {
	return &billing.RefundRequest{
		TenantAggregateRoot: m.aggregate(),
		RefundNumber:        m.RefundNumber,
		TransactionID:       m.TransactionID,
		InvoiceID:           m.InvoiceID,
		Amount:              m.Amount,
		Reason:              m.Reason,
		State:               m.State,
		RequestedBy:         m.RequestedBy,
		ApprovedBy:          m.ApprovedBy,
		RejectionReason:     m.RejectionReason,
		FailureReason:       m.FailureReason,
		RefundTransactionID: m.RefundTransactionID,
		RequestedAt:         m.RequestedAt,
		ProcessedAt:         m.ProcessedAt,
		CompletedAt:         m.CompletedAt,
	}
}

// RefundRequestModelFromDomain creates a new persistence model from a domain RefundRequest.
func RefundRequestModelFromDomain(r *billing.RefundRequest) *RefundRequestModel {
	m := &RefundRequestModel{
		RefundNumber:        r.RefundNumber,
		TransactionID:       r.TransactionID,
		InvoiceID:           r.InvoiceID,
		Amount:              r.Amount,
		Reason:              r.Reason,
		State:               r.State,
		RequestedBy:         r.RequestedBy,
		ApprovedBy:          r.ApprovedBy,
		RejectionReason:     r.RejectionReason,
		FailureReason:       r.FailureReason,
		RefundTransactionID: r.RefundTransactionID,
		RequestedAt:         r.RequestedAt,
		ProcessedAt:         r.ProcessedAt,
		CompletedAt:         r.CompletedAt,
	}
	m.setAggregate(r.TenantAggregateRoot)
	return m
}
