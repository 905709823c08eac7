package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"asc", "ASC"},
		{" ASC ", "ASC"},
		{"desc", "DESC"},
		{"", "DESC"},
		{"; DROP TABLE invoices", "DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortOrder(tt.in))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	assert.Equal(t, "due_date", ValidateSortField("due_date", InvoiceSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("", InvoiceSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("owner_id; --", InvoiceSortFields, "created_at"))
	assert.Equal(t, "requested_at", ValidateSortField("requested_at", RefundSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("due_date", RefundSortFields, "created_at"))
}
