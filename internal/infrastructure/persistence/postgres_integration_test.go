package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	appbilling "github.com/hostel/backend/internal/application/billing"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/domain/shared"
	"github.com/hostel/backend/internal/infrastructure/migration"
	"github.com/hostel/backend/internal/infrastructure/persistence/models"
	"github.com/hostel/backend/migrations"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newPostgresDB starts a disposable PostgreSQL and applies the embedded migrations
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("billing_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg := GormConfig(gormlogger.Discard)
	db, err := gorm.Open(postgres.Open(dsn), cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(20)
	t.Cleanup(func() { _ = sqlDB.Close() })

	migrator, err := migration.NewFromFS(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migrator.Up())

	version, dirty, err := migrator.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.NotZero(t, version)
	return db
}

func TestPostgres_ConcurrentPaymentsNeverOverpay(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	tenantID := uuid.New()
	inv := seedInvoice(t, NewGormInvoiceRepository(db), tenantID, 10000)
	scope := NewGormBillingTransactionScope(db)

	const workers = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := scope.Execute(ctx, func(repos appbilling.TransactionalRepositories) error {
				locked, err := repos.Invoices().FindByIDForUpdate(ctx, tenantID, inv.ID)
				if err != nil {
					return err
				}
				now := time.Now().UTC()
				if err := locked.ApplyPayment(decimal.NewFromInt(2000), now); err != nil {
					return err
				}
				txn, err := billing.NewPaymentTransaction(locked, uuid.NewString(), decimal.NewFromInt(2000),
					billing.PaymentDetails{Method: billing.PaymentMethodCash}, now)
				if err != nil {
					return err
				}
				if err := repos.Transactions().Create(ctx, txn); err != nil {
					return err
				}
				return repos.Invoices().Save(ctx, locked)
			})

			mu.Lock()
			defer mu.Unlock()
			var domainErr *shared.DomainError
			switch {
			case err == nil:
				succeeded++
			case errors.As(err, &domainErr) && domainErr.Code == shared.CodeAmountExceedsDue:
				rejected++
			default:
				t.Errorf("worker %d: unexpected error: %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, workers-5, rejected)

	final, err := NewGormInvoiceRepository(db).FindByID(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, final.Status)
	assert.True(t, final.DueAmount.IsZero())

	sum, err := NewGormBillingTransactionRepository(db).SumSuccessful(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(final.PaidAmount), "ledger sum %s != paid %s", sum, final.PaidAmount)
}

func TestPostgres_SchemaRejectsInconsistentBalances(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	inv := seedInvoice(t, NewGormInvoiceRepository(db), uuid.New(), 5000)

	err := db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("id = ?", inv.ID).
		Update("paid_amount", decimal.NewFromInt(9000)).Error
	assert.Error(t, err, "paid above total must violate a check constraint")
}

func TestPostgres_DuplicateGatewayRefIsRejected(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()
	tenantID := uuid.New()
	inv := seedInvoice(t, NewGormInvoiceRepository(db), tenantID, 5000)
	repo := NewGormBillingTransactionRepository(db)

	details := billing.PaymentDetails{Method: billing.PaymentMethodOnline, Gateway: "razorpay", GatewayRef: "pay_dup"}
	first, err := billing.NewPaymentTransaction(inv, "TXN-A", decimal.NewFromInt(1000), details, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	second, err := billing.NewPaymentTransaction(inv, "TXN-B", decimal.NewFromInt(1000), details, time.Now().UTC())
	require.NoError(t, err)
	err = repo.Create(ctx, second)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestPostgres_DatabaseHealth(t *testing.T) {
	db := newPostgresDB(t)
	wrapped := &Database{DB: db}

	require.NoError(t, wrapped.Ping(context.Background()))
	stats, err := wrapped.Stats()
	require.NoError(t, err)
	assert.Equal(t, 20, stats.MaxOpenConnections)
}
