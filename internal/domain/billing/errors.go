package billing

import (
	"fmt"

	"github.com/hostel/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

func invalidInput(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf(format, args...))
}

func illegalTransition(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(shared.CodeIllegalStateTransition, fmt.Sprintf(format, args...))
}

// ErrAmountExceedsDue reports an overpayment attempt
func ErrAmountExceedsDue(amount, due decimal.Decimal) *shared.DomainError {
	return shared.NewDomainError(shared.CodeAmountExceedsDue,
		fmt.Sprintf("Payment amount %s exceeds due amount %s", amount.String(), due.String()))
}

// ErrAmountExceedsRefundable reports a refund larger than the refundable balance
func ErrAmountExceedsRefundable(amount, refundable decimal.Decimal) *shared.DomainError {
	return shared.NewDomainError(shared.CodeAmountExceedsRefundable,
		fmt.Sprintf("Refund amount %s exceeds refundable amount %s", amount.String(), refundable.String()))
}

// NotFound builds a NOT_FOUND error for the named resource
func NotFound(resource string) *shared.DomainError {
	return shared.NewDomainError(shared.CodeNotFound, resource+" not found")
}
