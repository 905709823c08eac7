package numbering

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/hostel/backend/internal/domain/billing"
	"github.com/hostel/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var numberPattern = regexp.MustCompile(`^(INV|TXN|RCP|RFN|REM)-\d{14}-[A-Z2-7]{8}$`)

func TestMinter_Mint(t *testing.T) {
	m := NewMinter()
	at := time.Date(2024, 6, 1, 13, 4, 5, 0, time.UTC)

	for _, prefix := range []billing.NumberPrefix{
		billing.PrefixInvoice, billing.PrefixTransaction, billing.PrefixReceipt,
		billing.PrefixRefund, billing.PrefixReminder,
	} {
		t.Run(string(prefix), func(t *testing.T) {
			n := m.Mint(prefix, at)
			assert.Regexp(t, numberPattern, n)
			assert.Contains(t, n, "-20240601130405-")
		})
	}
}

func TestMinter_Unique(t *testing.T) {
	m := NewMinter()
	at := time.Now()
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		n := m.Mint(billing.PrefixTransaction, at)
		_, dup := seen[n]
		require.False(t, dup, "duplicate number %s", n)
		seen[n] = struct{}{}
	}
}

func TestParse(t *testing.T) {
	prefix, at, err := Parse("RCP-20240601130405-ABCDEFGH")
	require.NoError(t, err)
	assert.Equal(t, billing.PrefixReceipt, prefix)
	assert.Equal(t, 2024, at.Year())

	_, _, err = Parse("RCP-1")
	assert.Error(t, err)
}

func TestWithUniqueRetry(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	t.Run("succeeds after a collision", func(t *testing.T) {
		calls := 0
		err := WithUniqueRetry(ctx, log, func(context.Context) error {
			calls++
			if calls == 1 {
				return gorm.ErrDuplicatedKey
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("gives up after three collisions", func(t *testing.T) {
		calls := 0
		err := WithUniqueRetry(ctx, log, func(context.Context) error {
			calls++
			return errors.New("UNIQUE constraint failed: invoices.invoice_number")
		})
		require.Error(t, err)
		assert.Equal(t, MaxAttempts, calls)
		assert.Equal(t, shared.CodeConflict, shared.ErrorCode(err))
	})

	t.Run("other errors are returned immediately", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := WithUniqueRetry(ctx, log, func(context.Context) error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})
}
