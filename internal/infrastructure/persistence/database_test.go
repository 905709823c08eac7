package persistence

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	cfg := GormConfig(gormlogger.Discard)
	cfg.PrepareStmt = false
	gormDB, err := gorm.Open(dialector, cfg)
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock, mockDB
}

func TestGormConfig(t *testing.T) {
	cfg := GormConfig(nil)
	assert.True(t, cfg.TranslateError)
	assert.True(t, cfg.SkipDefaultTransaction)
	assert.Equal(t, time.UTC, cfg.NowFunc().Location())
}

func TestDatabase_Ping(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectPing()
	require.NoError(t, db.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Stats(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)
	assert.Equal(t, stats.InUse+stats.Idle, stats.OpenConnections)
}

func TestDatabase_Transaction(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "invoices" SET "reminder_count"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := db.Transaction(context.Background(), func(tx *gorm.DB) error {
			return tx.Table("invoices").Where("id = ?", uuid.New()).Update("reminder_count", 1).Error
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := db.Transaction(context.Background(), func(*gorm.DB) error {
			return shared.NewDomainError(shared.CodeAmountExceedsDue, "too much")
		})
		assert.ErrorContains(t, err, "too much")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInvoiceRepository_FindByIDForUpdate_LocksRow(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	tenantID, invoiceID := uuid.New(), uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "invoices" WHERE tenant_id = $1 AND id = $2`) + `.* FOR UPDATE`).
		WithArgs(tenantID, invoiceID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "invoice_number", "status", "total_amount", "paid_amount", "due_amount"}).
			AddRow(invoiceID, tenantID, "INV-20260310-0A1B2C", "PARTIAL", "12000", "5000", "7000"))

	inv, err := NewGormInvoiceRepository(db.DB).FindByIDForUpdate(context.Background(), tenantID, invoiceID)
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, "INV-20260310-0A1B2C", inv.InvoiceNumber)
	assert.Equal(t, billing.InvoiceStatusPartial, inv.Status)
	assert.Equal(t, "7000", inv.DueAmount.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceRepository_FindByID_NotFoundIsNil(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE tenant_id = \$1 AND id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	inv, err := NewGormInvoiceRepository(db.DB).FindByID(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, inv)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefundRepository_FindByIDForUpdate_LocksRow(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "refund_requests" WHERE tenant_id = \$1 AND id = \$2 .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	refund, err := NewGormRefundRequestRepository(db.DB).FindByIDForUpdate(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, refund)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceRepository_FindOutstanding_Keyset(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	after := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "invoices" WHERE status IN ($1,$2) AND id > $3 ORDER BY id ASC LIMIT`)).
		WithArgs("PENDING", "PARTIAL", after, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rows, err := NewGormInvoiceRepository(db.DB).FindOutstanding(context.Background(), after, 50)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
