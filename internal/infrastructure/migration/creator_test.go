package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/hostel/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add receipts table", "add_receipts_table"},
		{"Add-Receipts-Table", "add_receipts_table"},
		{"ADD_RECEIPTS_TABLE", "add_receipts_table"},
		{"add__receipts__table", "add_receipts_table"},
		{"Add Index 123", "add_index_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add receipt index", "")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_receipt_index.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_receipt_index.down.sql"), first.DownPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- add receipt index")

	second, err := CreateMigration(dir, "Refund Gateway Columns", "Store gateway refund ids")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)
	down, err := os.ReadFile(second.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "-- Rollback: Store gateway refund ids")
}

func TestCreateMigration_ContinuesAfterExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000007_old.up.sql"), nil, 0o644))

	mf, err := CreateMigration(filepath.Join(dir), "next", "")
	require.NoError(t, err)
	assert.Equal(t, uint(8), mf.Version)
}

func TestCreateMigration_CreatesDirectoryAndRejectsEmptyName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(dir, "!!!", "")
	require.Error(t, err)

	_, err = CreateMigration(dir, "init", "")
	require.NoError(t, err)
	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestListMigrationsFS(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_refunds.up.sql":   {},
		"000002_refunds.down.sql": {},
		"000001_ledger.up.sql":    {},
		"000010_journal.up.sql":   {},
		"README.md":               {},
		"notes.sql":               {},
		"abc_bad_version.up.sql":  {},
		"seed/000003_seed.up.sql": {},
	}

	list, err := ListMigrationsFS(fsys)
	require.NoError(t, err)
	assert.Equal(t, []MigrationInfo{
		{Version: 1, Name: "ledger"},
		{Version: 2, Name: "refunds", HasDown: true},
		{Version: 10, Name: "journal"},
	}, list)
}

func TestListMigrations_NonexistentDirectory(t *testing.T) {
	list, err := ListMigrations(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEmbeddedMigrationsAreComplete(t *testing.T) {
	list, err := ListMigrationsFS(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, list)

	for i, m := range list {
		assert.Equal(t, uint(i+1), m.Version, "versions must be contiguous")
		assert.True(t, m.HasDown, "migration %d has no down file", m.Version)
	}
}
