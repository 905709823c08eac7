package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func createTestInvoice(t *testing.T, total int64) *Invoice {
	issue := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	inv, err := NewInvoice(
		uuid.New(),
		uuid.New(),
		"INV-20240301090000-ABCDEFGH",
		[]LineItem{{
			Description: "Room rent",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(total),
			Amount:      decimal.NewFromInt(total),
		}},
		"March rent",
		issue,
		issue.AddDate(0, 0, 7),
	)
	require.NoError(t, err)
	return inv
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, shared.ErrorCode(err))
}

// ============================================
// InvoiceStatus Tests
// ============================================

func TestInvoiceStatus_IsValid(t *testing.T) {
	tests := []struct {
		status  InvoiceStatus
		isValid bool
	}{
		{InvoiceStatusPending, true},
		{InvoiceStatusPartial, true},
		{InvoiceStatusPaid, true},
		{InvoiceStatusCancelled, true},
		{InvoiceStatus("OVERDUE"), false},
		{InvoiceStatus(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.status.IsValid())
		})
	}
}

func TestDeriveInvoiceStatus(t *testing.T) {
	total := decimal.NewFromInt(8000)
	tests := []struct {
		name      string
		paid      decimal.Decimal
		cancelled bool
		expected  InvoiceStatus
	}{
		{"nothing paid", decimal.Zero, false, InvoiceStatusPending},
		{"partly paid", decimal.NewFromInt(4000), false, InvoiceStatusPartial},
		{"fully paid", total, false, InvoiceStatusPaid},
		{"cancelled wins", decimal.Zero, true, InvoiceStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveInvoiceStatus(tt.paid, total, tt.cancelled))
		})
	}
}

// ============================================
// Invoice creation
// ============================================

func TestNewInvoice(t *testing.T) {
	t.Run("computes totals from line items", func(t *testing.T) {
		issue := time.Now()
		inv, err := NewInvoice(uuid.New(), uuid.New(), "INV-1",
			[]LineItem{
				{Description: "Rent", Amount: decimal.NewFromInt(6000)},
				{Description: "Mess", Amount: decimal.NewFromInt(2000)},
			}, "", issue, issue.AddDate(0, 1, 0))
		require.NoError(t, err)

		assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(8000)))
		assert.True(t, inv.PaidAmount.IsZero())
		assert.True(t, inv.DueAmount.Equal(decimal.NewFromInt(8000)))
		assert.Equal(t, InvoiceStatusPending, inv.Status)
		assert.Equal(t, 0, inv.EscalationLevel)
		assert.NoError(t, inv.CheckBalances())
		require.Len(t, inv.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeInvoiceCreated, inv.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects empty items", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), uuid.New(), "INV-1", nil, "", time.Now(), time.Now())
		requireCode(t, err, shared.CodeInvalidInput)
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		_, err := NewInvoice(uuid.New(), uuid.New(), "INV-1",
			[]LineItem{{Description: "Discount", Amount: decimal.NewFromInt(-5)}}, "", time.Now(), time.Now())
		requireCode(t, err, shared.CodeInvalidInput)
	})

	t.Run("rejects due date before issue date", func(t *testing.T) {
		issue := time.Now()
		_, err := NewInvoice(uuid.New(), uuid.New(), "INV-1",
			[]LineItem{{Description: "Rent", Amount: decimal.NewFromInt(5)}}, "", issue, issue.AddDate(0, 0, -2))
		requireCode(t, err, shared.CodeInvalidInput)
	})

	t.Run("accepts zero-amount items", func(t *testing.T) {
		issue := time.Now()
		inv, err := NewInvoice(uuid.New(), uuid.New(), "INV-1",
			[]LineItem{{Description: "Waived fee", Amount: decimal.Zero}}, "", issue, issue)
		require.NoError(t, err)
		assert.True(t, inv.TotalAmount.IsZero())
	})
}

// ============================================
// Payments and refunds
// ============================================

func TestInvoice_ApplyPayment(t *testing.T) {
	t.Run("partial then full payment", func(t *testing.T) {
		inv := createTestInvoice(t, 8000)
		inv.ClearDomainEvents()
		at := time.Now()

		require.NoError(t, inv.ApplyPayment(decimal.NewFromInt(4000), at))
		assert.Equal(t, InvoiceStatusPartial, inv.Status)
		assert.True(t, inv.PaidAmount.Equal(decimal.NewFromInt(4000)))
		assert.True(t, inv.DueAmount.Equal(decimal.NewFromInt(4000)))
		assert.NoError(t, inv.CheckBalances())

		require.NoError(t, inv.ApplyPayment(decimal.NewFromInt(4000), at))
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.True(t, inv.DueAmount.IsZero())
		assert.NoError(t, inv.CheckBalances())

		var types []string
		for _, e := range inv.GetDomainEvents() {
			types = append(types, e.EventType())
		}
		assert.Equal(t, []string{EventTypeInvoicePaymentApplied, EventTypeInvoicePaymentApplied, EventTypeInvoicePaid}, types)
		for _, e := range inv.GetDomainEvents() {
			assert.True(t, e.OccurredAt().Equal(at), "events carry the payment time")
		}
	})

	t.Run("rejects overpayment without changing state", func(t *testing.T) {
		inv := createTestInvoice(t, 8000)
		version := inv.Version

		err := inv.ApplyPayment(decimal.NewFromInt(9000), time.Now())
		requireCode(t, err, shared.CodeAmountExceedsDue)
		assert.True(t, inv.PaidAmount.IsZero())
		assert.True(t, inv.DueAmount.Equal(decimal.NewFromInt(8000)))
		assert.Equal(t, version, inv.Version)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		inv := createTestInvoice(t, 8000)
		requireCode(t, inv.ApplyPayment(decimal.Zero, time.Now()), shared.CodeInvalidInput)
		requireCode(t, inv.ApplyPayment(decimal.NewFromInt(-1), time.Now()), shared.CodeInvalidInput)
	})

	t.Run("rejects payment on cancelled invoice", func(t *testing.T) {
		inv := createTestInvoice(t, 8000)
		require.NoError(t, inv.Cancel("duplicate", time.Now()))
		requireCode(t, inv.ApplyPayment(decimal.NewFromInt(10), time.Now()), shared.CodeIllegalStateTransition)
	})
}

func TestInvoice_ReverseRefund(t *testing.T) {
	inv := createTestInvoice(t, 8000)
	require.NoError(t, inv.ApplyPayment(decimal.NewFromInt(8000), time.Now()))

	require.NoError(t, inv.ReverseRefund(decimal.NewFromInt(1000), time.Now()))
	assert.Equal(t, InvoiceStatusPartial, inv.Status)
	assert.True(t, inv.PaidAmount.Equal(decimal.NewFromInt(7000)))
	assert.True(t, inv.DueAmount.Equal(decimal.NewFromInt(1000)))

	require.NoError(t, inv.ReverseRefund(decimal.NewFromInt(7000), time.Now()))
	assert.Equal(t, InvoiceStatusPending, inv.Status)
	assert.True(t, inv.PaidAmount.IsZero())
	assert.NoError(t, inv.CheckBalances())

	requireCode(t, inv.ReverseRefund(decimal.NewFromInt(1), time.Now()), shared.CodeAmountExceedsRefundable)
}

func TestInvoice_Cancel(t *testing.T) {
	t.Run("cancels unpaid invoice", func(t *testing.T) {
		inv := createTestInvoice(t, 500)
		require.NoError(t, inv.Cancel("issued twice", time.Now()))
		assert.Equal(t, InvoiceStatusCancelled, inv.Status)
		assert.NotNil(t, inv.CancelledAt)
		requireCode(t, inv.Cancel("again", time.Now()), shared.CodeIllegalStateTransition)
	})

	t.Run("refuses to cancel paid invoice", func(t *testing.T) {
		inv := createTestInvoice(t, 500)
		require.NoError(t, inv.ApplyPayment(decimal.NewFromInt(100), time.Now()))
		requireCode(t, inv.Cancel("oops", time.Now()), shared.CodeIllegalStateTransition)
	})
}

func TestInvoice_RecordReminderSent(t *testing.T) {
	inv := createTestInvoice(t, 500)
	at := time.Now()

	inv.RecordReminderSent(ReminderTypeEscalation2, at)
	assert.Equal(t, 1, inv.ReminderCount)
	assert.Equal(t, 2, inv.EscalationLevel)
	require.NotNil(t, inv.LastReminderAt)

	inv.RecordReminderSent(ReminderTypeEscalation1, at)
	assert.Equal(t, 2, inv.ReminderCount)
	assert.Equal(t, 2, inv.EscalationLevel, "escalation level never decreases")

	inv.RecordReminderSent(ReminderTypeFinalNotice, at)
	assert.Equal(t, MaxEscalationLevel, inv.EscalationLevel)
}

func TestLineItems_ValueScan(t *testing.T) {
	items := LineItems{{Description: "Rent", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50), Amount: decimal.NewFromInt(100)}}
	v, err := items.Value()
	require.NoError(t, err)

	var scanned LineItems
	require.NoError(t, scanned.Scan(v))
	require.Len(t, scanned, 1)
	assert.True(t, scanned.Total().Equal(decimal.NewFromInt(100)))

	var empty LineItems
	require.NoError(t, empty.Scan(nil))
	assert.Empty(t, empty)
	assert.Error(t, empty.Scan(42))
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, 0, DaysBetween(base, base.Add(10*time.Minute).Add(-20*time.Minute)))
	assert.Equal(t, 1, DaysBetween(base, base.Add(time.Hour)))
	assert.Equal(t, 3, DaysBetween(base, time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, -20, DaysBetween(base, base.AddDate(0, 0, -20)))
}
