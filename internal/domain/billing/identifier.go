package billing

import "time"

// NumberPrefix is the leading segment of a human-readable document number
type NumberPrefix string

const (
	PrefixInvoice     NumberPrefix = "INV"
	PrefixTransaction NumberPrefix = "TXN"
	PrefixReceipt     NumberPrefix = "RCP"
	PrefixRefund      NumberPrefix = "RFN"
	PrefixReminder    NumberPrefix = "REM"
)

// NumberMinter generates unique, time-prefixed document numbers
type NumberMinter interface {
	Mint(prefix NumberPrefix, at time.Time) string
}
