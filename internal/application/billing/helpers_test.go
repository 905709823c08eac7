package billing_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	appbilling "github.com/hostel/backend/internal/application/billing"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/infrastructure/numbering"
	"github.com/hostel/backend/internal/infrastructure/persistence"
	"github.com/hostel/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeSink struct {
	mu      sync.Mutex
	sent    []billing.Notification
	failing map[billing.Channel]error
	// onSend runs before each delivery, outside the lock
	onSend func()
}

func newFakeSink() *fakeSink {
	return &fakeSink{failing: map[billing.Channel]error{}}
}

func (s *fakeSink) Send(_ context.Context, n billing.Notification) (string, error) {
	if s.onSend != nil {
		s.onSend()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failing[n.Channel]; err != nil {
		return "", err
	}
	s.sent = append(s.sent, n)
	return fmt.Sprintf("msg-%d", len(s.sent)), nil
}

func (s *fakeSink) fail(ch billing.Channel, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[ch] = err
}

func (s *fakeSink) sentTo(recipient string) []billing.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []billing.Notification
	for _, n := range s.sent {
		if n.Recipient == recipient {
			out = append(out, n)
		}
	}
	return out
}

type countingConfigs struct {
	billing.ReminderConfigRepository
	mu    sync.Mutex
	reads int
}

func (c *countingConfigs) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*billing.ReminderConfiguration, error) {
	c.mu.Lock()
	c.reads++
	c.mu.Unlock()
	return c.ReminderConfigRepository.FindByTenant(ctx, tenantID)
}

func (c *countingConfigs) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

type fakeRenderer struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (r *fakeRenderer) RenderReceipt(_ context.Context, receipt *billing.Receipt, _ *billing.Invoice, _ *billing.Transaction) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return "", r.err
	}
	return "receipts/" + receipt.ReceiptNumber + ".pdf", nil
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[uuid.UUID]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[uuid.UUID]bool{}}
}

func (l *fakeLocker) TryLock(_ context.Context, invoiceID uuid.UUID) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[invoiceID] {
		return nil, false, nil
	}
	l.held[invoiceID] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, invoiceID)
	}, true, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// =============================================================================
// Test environment
// =============================================================================

type testEnv struct {
	db        *gorm.DB
	tenantID  uuid.UUID
	ledger    *appbilling.LedgerService
	refunds   *appbilling.RefundService
	reminders *appbilling.ReminderService
	settings  *appbilling.ReminderSettingsService
	sink      *fakeSink
	renderer  *fakeRenderer
	locker    *fakeLocker
	clock     *fakeClock
	configs   *countingConfigs
}

func setupBillingTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "billing.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// sqlite has no row locks; a single connection serializes transactions instead
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&models.InvoiceModel{},
		&models.TransactionModel{},
		&models.ReceiptModel{},
		&models.RefundRequestModel{},
		&models.PaymentReminderModel{},
		&models.ReminderConfigurationModel{},
		&models.ReminderTemplateModel{},
	)
	require.NoError(t, err)
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupBillingTestDB(t)
	log := zap.NewNop()

	invoices := persistence.NewGormInvoiceRepository(db)
	transactions := persistence.NewGormBillingTransactionRepository(db)
	receipts := persistence.NewGormReceiptRepository(db)
	refundRepo := persistence.NewGormRefundRequestRepository(db)
	reminderRepo := persistence.NewGormPaymentReminderRepository(db)
	configs := persistence.NewGormReminderConfigRepository(db)
	templates := persistence.NewGormReminderTemplateRepository(db)
	scope := persistence.NewGormBillingTransactionScope(db)
	minter := numbering.NewMinter()

	env := &testEnv{
		db:       db,
		tenantID: uuid.New(),
		sink:     newFakeSink(),
		renderer: &fakeRenderer{},
		locker:   newFakeLocker(),
		clock:    &fakeClock{now: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)},
		configs:  &countingConfigs{ReminderConfigRepository: configs},
	}

	env.ledger = appbilling.NewLedgerService(invoices, transactions, receipts, scope, minter, log)
	env.ledger.SetReceiptRenderer(env.renderer)
	env.ledger.SetNotificationSink(env.sink)
	env.ledger.SetClock(env.clock.Now)

	env.refunds = appbilling.NewRefundService(refundRepo, transactions, env.ledger, scope, minter, log)

	env.reminders = appbilling.NewReminderService(invoices, reminderRepo, env.configs, templates, scope, minter,
		env.sink, env.locker, billing.NewTemplateRenderer(language.English), log)
	env.reminders.SetClock(env.clock.Now)
	env.reminders.SetHostelDefaults(appbilling.HostelDefaults{
		Name:  "Sunrise Hostel",
		Phone: "+91-80-5550-0100",
		Email: "office@sunrise.example",
	})

	env.settings = appbilling.NewReminderSettingsService(configs, templates, log)
	_, err := env.settings.EnsureDefaultTemplates(context.Background(), env.tenantID)
	require.NoError(t, err)
	return env
}

// createInvoice issues a single-line invoice due the given number of days from the test clock
func (e *testEnv) createInvoice(t *testing.T, total string, dueInDays int) *appbilling.InvoiceResponse {
	t.Helper()
	amount := decimal.RequireFromString(total)
	due := e.clock.Now().AddDate(0, 0, dueInDays).Format(time.DateOnly)
	issue := e.clock.Now().Format(time.DateOnly)
	if dueInDays < 0 {
		issue = due
	}
	inv, err := e.ledger.CreateInvoice(context.Background(), e.tenantID, appbilling.CreateInvoiceRequest{
		OwnerID:      uuid.New(),
		Items:        []appbilling.LineItemInput{{Description: "Monthly rent", Amount: &amount}},
		Description:  "Room " + gofakeit.DigitN(3),
		IssueDate:    issue,
		DueDate:      due,
		ContactName:  gofakeit.Name(),
		ContactEmail: gofakeit.Email(),
		ContactPhone: gofakeit.Phone(),
	})
	require.NoError(t, err)
	return inv
}

func (e *testEnv) pay(t *testing.T, invoiceID uuid.UUID, amount string) *appbilling.PaymentResult {
	t.Helper()
	result, err := e.ledger.ProcessPayment(context.Background(), e.tenantID, invoiceID, appbilling.ProcessPaymentRequest{
		Amount: decimal.RequireFromString(amount),
		Method: "CASH",
	}, nil)
	require.NoError(t, err)
	return result
}

func (e *testEnv) invoice(t *testing.T, id uuid.UUID) *appbilling.InvoiceResponse {
	t.Helper()
	inv, err := e.ledger.GetInvoice(context.Background(), e.tenantID, id)
	require.NoError(t, err)
	return inv
}

// setInvoiceReminderState overwrites reminder bookkeeping to put an invoice mid-way through its lifecycle
func (e *testEnv) setInvoiceReminderState(t *testing.T, id uuid.UUID, escalationLevel, reminderCount int) {
	t.Helper()
	err := e.db.Model(&models.InvoiceModel{}).Where("id = ?", id).Updates(map[string]any{
		"escalation_level": escalationLevel,
		"reminder_count":   reminderCount,
	}).Error
	require.NoError(t, err)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

var errGatewayDown = errors.New("gateway unavailable")
