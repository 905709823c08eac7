package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appbilling "github.com/hostel/backend/internal/application/billing"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/infrastructure/cache"
	"github.com/hostel/backend/internal/infrastructure/event"
	"github.com/hostel/backend/internal/infrastructure/numbering"
	"github.com/hostel/backend/internal/infrastructure/persistence"
	"github.com/hostel/backend/internal/infrastructure/persistence/models"
	"github.com/hostel/backend/internal/infrastructure/storage"
	"github.com/hostel/backend/internal/interfaces/http/dto"
	"github.com/hostel/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var validatorOnce sync.Once

type recordingSink struct {
	mu   sync.Mutex
	sent []billing.Notification
}

func (s *recordingSink) Send(_ context.Context, n billing.Notification) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return fmt.Sprintf("msg-%d", len(s.sent)), nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// storeRenderer writes a placeholder document into the artifact store
type storeRenderer struct {
	store storage.ArtifactStore
}

func (r *storeRenderer) RenderReceipt(ctx context.Context, receipt *billing.Receipt, _ *billing.Invoice, _ *billing.Transaction) (string, error) {
	key := receipt.TenantID.String() + "/" + receipt.ReceiptNumber + ".pdf"
	if err := r.store.Put(ctx, key, []byte("%PDF-1.4 "+receipt.ReceiptNumber), "application/pdf"); err != nil {
		return "", err
	}
	return key, nil
}

type apiServer struct {
	engine   *gin.Engine
	db       *gorm.DB
	tenantID uuid.UUID
	userID   uuid.UUID
	sink     *recordingSink
	store    storage.ArtifactStore
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	validatorOnce.Do(func() {
		require.NoError(t, middleware.SetupValidator())
	})

	dsn := filepath.Join(t.TempDir(), "api.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
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
		&models.EventJournalModel{},
	))

	log := zap.NewNop()
	invoices := persistence.NewGormInvoiceRepository(db)
	transactions := persistence.NewGormBillingTransactionRepository(db)
	configs := persistence.NewGormReminderConfigRepository(db)
	templates := persistence.NewGormReminderTemplateRepository(db)
	scope := persistence.NewGormBillingTransactionScope(db)
	minter := numbering.NewMinter()

	serializer := event.NewEventSerializer()
	event.RegisterBillingEvents(serializer)
	journal := event.NewEventJournal(db, serializer, log)
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(journal)

	srv := &apiServer{
		db:       db,
		tenantID: uuid.New(),
		userID:   uuid.New(),
		sink:     &recordingSink{},
		store:    storage.NewMemoryStore(),
	}

	ledger := appbilling.NewLedgerService(invoices, transactions, persistence.NewGormReceiptRepository(db), scope, minter, log)
	ledger.SetReceiptRenderer(&storeRenderer{store: srv.store})
	ledger.SetNotificationSink(srv.sink)
	ledger.SetEventPublisher(bus)

	refunds := appbilling.NewRefundService(persistence.NewGormRefundRequestRepository(db), transactions, ledger, scope, minter, log)

	reminders := appbilling.NewReminderService(invoices, persistence.NewGormPaymentReminderRepository(db), configs, templates,
		scope, minter, srv.sink, cache.NewInMemoryInvoiceLocker(time.Minute), billing.NewTemplateRenderer(language.English), log)
	reminders.SetEventPublisher(bus)

	settings := appbilling.NewReminderSettingsService(configs, templates, log)
	_, err = settings.EnsureDefaultTemplates(context.Background(), srv.tenantID)
	require.NoError(t, err)

	invoiceHandler := NewInvoiceHandler(ledger, journal)
	receiptHandler := NewReceiptHandler(ledger, srv.store)
	refundHandler := NewRefundHandler(refunds)
	reminderHandler := NewReminderHandler(reminders, settings, 50)

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.JWTAuthMiddleware(nil))
	api := engine.Group("/api/v1/billing")
	api.POST("/invoices", invoiceHandler.Create)
	api.GET("/invoices/:id", invoiceHandler.Get)
	api.POST("/invoices/:id/cancel", invoiceHandler.Cancel)
	api.POST("/invoices/:id/payments", invoiceHandler.ProcessPayment)
	api.GET("/invoices/:id/transactions", invoiceHandler.ListTransactions)
	api.GET("/invoices/:id/events", invoiceHandler.ListEvents)
	api.POST("/invoices/:id/reminders", reminderHandler.SendManual)
	api.GET("/invoices/:id/reminders", reminderHandler.ListByInvoice)
	api.GET("/owners/:owner_id/invoices", invoiceHandler.ListByOwner)
	api.GET("/transactions/:id/receipt", receiptHandler.GetByTransaction)
	api.GET("/transactions/:id/receipt/artifact", receiptHandler.DownloadArtifact)
	api.POST("/receipts/:id/regenerate", receiptHandler.Regenerate)
	api.POST("/refunds", refundHandler.Request)
	api.GET("/refunds", refundHandler.List)
	api.GET("/refunds/:id", refundHandler.Get)
	api.POST("/refunds/:id/approve", refundHandler.Approve)
	api.POST("/refunds/:id/reject", refundHandler.Reject)
	api.POST("/refunds/:id/processing", refundHandler.MarkProcessing)
	api.POST("/refunds/:id/fail", refundHandler.Fail)
	api.GET("/reminders/config", reminderHandler.GetConfig)
	api.PUT("/reminders/config", reminderHandler.UpsertConfig)
	api.POST("/reminders/templates", reminderHandler.CreateTemplate)
	api.GET("/reminders/templates", reminderHandler.ListTemplates)
	api.POST("/reminders/tick", reminderHandler.Tick)
	srv.engine = engine
	return srv
}

// do sends a request as the server's tenant and user
func (s *apiServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, "/api/v1/billing"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.TenantIDHeader, s.tenantID.String())
	req.Header.Set(middleware.UserIDHeader, s.userID.String())
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the envelope's data field into out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	require.True(t, envelope.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func invoiceBody(ownerID uuid.UUID, amount string) map[string]any {
	return map[string]any{
		"owner_id":      ownerID,
		"items":         []map[string]any{{"description": "Monthly rent", "amount": amount}},
		"description":   "Room " + gofakeit.DigitN(3),
		"due_date":      time.Now().UTC().AddDate(0, 0, 10).Format(time.DateOnly),
		"contact_name":  gofakeit.Name(),
		"contact_email": gofakeit.Email(),
		"contact_phone": gofakeit.Phone(),
	}
}

func (s *apiServer) createInvoice(t *testing.T, amount string) appbilling.InvoiceResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/invoices", invoiceBody(uuid.New(), amount))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var inv appbilling.InvoiceResponse
	decodeData(t, w, &inv)
	return inv
}

func (s *apiServer) pay(t *testing.T, invoiceID uuid.UUID, amount string) appbilling.PaymentResult {
	t.Helper()
	w := s.do(t, http.MethodPost, "/invoices/"+invoiceID.String()+"/payments", map[string]any{
		"amount": amount,
		"method": "UPI",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var result appbilling.PaymentResult
	decodeData(t, w, &result)
	return result
}
