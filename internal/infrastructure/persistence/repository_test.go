package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/domain/shared"
	"github.com/hostel/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var issuedAt = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "repo.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.InvoiceModel{},
		&models.TransactionModel{},
		&models.ReceiptModel{},
		&models.RefundRequestModel{},
		&models.PaymentReminderModel{},
		&models.ReminderConfigurationModel{},
		&models.ReminderTemplateModel{},
	))
	return db
}

func seedInvoice(t *testing.T, repo *GormInvoiceRepository, tenantID uuid.UUID, total int64) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(
		tenantID,
		uuid.New(),
		"INV-"+gofakeit.LetterN(12),
		[]billing.LineItem{{
			Description: gofakeit.ProductName(),
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(total),
			Amount:      decimal.NewFromInt(total),
		}},
		"Room rent",
		issuedAt,
		issuedAt.AddDate(0, 0, 7),
	)
	require.NoError(t, err)
	inv.WithContact(billing.BillingContact{Name: gofakeit.Name(), Email: gofakeit.Email()})
	require.NoError(t, repo.Create(context.Background(), inv))
	return inv
}

func TestInvoiceRepository_RoundTrip(t *testing.T) {
	db := setupSQLite(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	inv := seedInvoice(t, repo, tenantID, 12000)

	found, err := repo.FindByID(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, inv.InvoiceNumber, found.InvoiceNumber)
	assert.Equal(t, inv.Contact.Email, found.Contact.Email)
	assert.True(t, found.TotalAmount.Equal(decimal.NewFromInt(12000)))
	require.Len(t, found.LineItems, 1)

	other, err := repo.FindByID(ctx, uuid.New(), inv.ID)
	require.NoError(t, err)
	assert.Nil(t, other, "invoices are tenant scoped")

	require.NoError(t, found.ApplyPayment(decimal.NewFromInt(5000), issuedAt.Add(time.Hour)))
	require.NoError(t, repo.Save(ctx, found))

	locked, err := repo.FindByIDForUpdate(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPartial, locked.Status)
	assert.True(t, locked.DueAmount.Equal(decimal.NewFromInt(7000)))
}

func TestInvoiceRepository_FindOutstanding_PagesAcrossTenants(t *testing.T) {
	db := setupSQLite(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	var outstanding int
	for i := 0; i < 5; i++ {
		inv := seedInvoice(t, repo, uuid.New(), 1000)
		if i == 2 {
			require.NoError(t, inv.ApplyPayment(decimal.NewFromInt(1000), issuedAt))
			require.NoError(t, repo.Save(ctx, inv))
			continue
		}
		outstanding++
	}

	seen := map[uuid.UUID]bool{}
	after := uuid.Nil
	for {
		page, err := repo.FindOutstanding(ctx, after, 2)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		for _, inv := range page {
			assert.False(t, seen[inv.ID], "keyset paging must not repeat rows")
			assert.True(t, inv.Status.IsOutstanding())
			seen[inv.ID] = true
		}
		after = page[len(page)-1].ID
	}
	assert.Len(t, seen, outstanding)
}

func TestInvoiceRepository_FindByOwner_Paginates(t *testing.T) {
	db := setupSQLite(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID, ownerID := uuid.New(), uuid.New()

	for i := 0; i < 3; i++ {
		inv := seedInvoice(t, repo, tenantID, int64(1000*(i+1)))
		require.NoError(t, db.Model(&models.InvoiceModel{}).Where("id = ?", inv.ID).Update("owner_id", ownerID).Error)
	}
	seedInvoice(t, repo, tenantID, 500)

	page, total, err := repo.FindByOwner(ctx, tenantID, ownerID, billing.InvoiceFilter{
		Filter: shared.Filter{Page: 1, PageSize: 2, OrderBy: "total_amount", OrderDir: "desc"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.True(t, page[0].TotalAmount.Equal(decimal.NewFromInt(3000)))
}

func TestTransactionRepository_GatewayRefAndSum(t *testing.T) {
	db := setupSQLite(t)
	invoices := NewGormInvoiceRepository(db)
	repo := NewGormBillingTransactionRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	inv := seedInvoice(t, invoices, tenantID, 10000)

	payment, err := billing.NewPaymentTransaction(inv, "TXN-1", decimal.NewFromInt(6000), billing.PaymentDetails{
		Method:     billing.PaymentMethodUPI,
		Gateway:    "razorpay",
		GatewayRef: "pay_123",
	}, issuedAt)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, payment))

	refund, err := billing.NewRefundTransaction(payment, "TXN-2", decimal.NewFromInt(1500), "overcharge", nil, issuedAt.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, refund))

	found, err := repo.FindByGatewayRef(ctx, tenantID, inv.ID, "razorpay", "pay_123")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, payment.ID, found.ID)

	missing, err := repo.FindByGatewayRef(ctx, tenantID, inv.ID, "razorpay", "pay_999")
	require.NoError(t, err)
	assert.Nil(t, missing)

	sum, err := repo.SumSuccessful(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(4500)), "got %s", sum)

	history, err := repo.FindByInvoice(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestReminderRepository_CancelPendingByInvoice(t *testing.T) {
	db := setupSQLite(t)
	invoices := NewGormInvoiceRepository(db)
	repo := NewGormPaymentReminderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	inv := seedInvoice(t, invoices, tenantID, 5000)

	pending, err := billing.NewPaymentReminder(inv, "REM-1", billing.ReminderTypeOverdue, billing.ChannelEmail, "s", "b", "", issuedAt)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, pending))

	sent, err := billing.NewPaymentReminder(inv, "REM-2", billing.ReminderTypePreDue, billing.ChannelEmail, "s", "b", "", issuedAt)
	require.NoError(t, err)
	require.NoError(t, sent.MarkSent("msg-1", issuedAt))
	require.NoError(t, repo.Create(ctx, sent))

	n, err := repo.CancelPendingByInvoice(ctx, tenantID, inv.ID, issuedAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.FindByID(ctx, tenantID, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.ReminderStateCancelled, got.State)

	kept, err := repo.FindByID(ctx, tenantID, sent.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.ReminderStateSent, kept.State)
}

func TestReminderRepository_SettlePending(t *testing.T) {
	db := setupSQLite(t)
	invoices := NewGormInvoiceRepository(db)
	repo := NewGormPaymentReminderRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	inv := seedInvoice(t, invoices, tenantID, 5000)

	t.Run("pending reminder takes the outcome", func(t *testing.T) {
		r, err := billing.NewPaymentReminder(inv, "REM-10", billing.ReminderTypeOverdue, billing.ChannelEmail, "s", "b", "", issuedAt)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, r))

		require.NoError(t, r.MarkSent("email:sent", issuedAt.Add(time.Minute)))
		ok, err := repo.SettlePending(ctx, r)
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := repo.FindByID(ctx, tenantID, r.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.ReminderStateSent, got.State)
		assert.Equal(t, "email:sent", got.DeliveryStatus)
		require.NotNil(t, got.SentAt)
		assert.Equal(t, 2, got.Version)
	})

	t.Run("cancelled reminder is not overwritten", func(t *testing.T) {
		r, err := billing.NewPaymentReminder(inv, "REM-11", billing.ReminderTypeOverdue, billing.ChannelEmail, "s", "b", "", issuedAt)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, r))

		_, err = repo.CancelPendingByInvoice(ctx, tenantID, inv.ID, issuedAt.Add(time.Minute))
		require.NoError(t, err)

		require.NoError(t, r.MarkSent("email:sent", issuedAt.Add(2*time.Minute)))
		ok, err := repo.SettlePending(ctx, r)
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := repo.FindByID(ctx, tenantID, r.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.ReminderStateCancelled, got.State)
		assert.Nil(t, got.SentAt)
	})
}

func TestReminderTemplateRepository_DefaultIsUniquePerType(t *testing.T) {
	db := setupSQLite(t)
	repo := NewGormReminderTemplateRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	first, err := billing.NewReminderTemplate(tenantID, "Polite", billing.ReminderTypeOverdue, "Due", "Please pay", "", true)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	second, err := billing.NewReminderTemplate(tenantID, "Firm", billing.ReminderTypeOverdue, "Overdue", "Pay now", "", true)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, second))

	def, err := repo.FindDefault(ctx, tenantID, billing.ReminderTypeOverdue)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, second.ID, def.ID)

	rt := billing.ReminderTypeOverdue
	all, err := repo.FindAll(ctx, tenantID, &rt)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := repo.FindDefault(ctx, tenantID, billing.ReminderTypePreDue)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestReminderConfigRepository_Upsert(t *testing.T) {
	db := setupSQLite(t)
	repo := NewGormReminderConfigRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	missing, err := repo.FindByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	cfg := billing.DefaultReminderConfiguration(tenantID)
	require.NoError(t, repo.Upsert(ctx, cfg))

	cfg.MaxReminders = 3
	require.NoError(t, repo.Upsert(ctx, cfg))

	got, err := repo.FindByTenant(ctx, tenantID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.MaxReminders)

	var count int64
	require.NoError(t, db.Model(&models.ReminderConfigurationModel{}).Where("tenant_id = ?", tenantID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
