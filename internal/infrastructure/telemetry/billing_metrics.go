package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics constructor receives no meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// BillingMetrics tracks ledger and reminder activity.
// A nil *BillingMetrics is valid and records nothing.
type BillingMetrics struct {
	paymentsTotal         *Counter
	paymentAmountTotal    *Counter
	refundsCompletedTotal *Counter
	refundAmountTotal     *Counter
	remindersTotal        *Counter
	receiptFailuresTotal  *Counter
	reminderJobsDropped   *Counter
	tickDuration          *Histogram
}

// NewBillingMetrics creates the billing instruments on meter
func NewBillingMetrics(meter metric.Meter) (*BillingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	counters := []struct {
		name, desc, unit string
	}{
		{"billing_payments_total", "Total number of payments applied to invoices", "{payments}"},
		{"billing_payment_amount_total", "Total payment amount in minor currency units", "{paise}"},
		{"billing_refunds_completed_total", "Total number of refunds applied to invoices", "{refunds}"},
		{"billing_refund_amount_total", "Total refund amount in minor currency units", "{paise}"},
		{"billing_reminders_total", "Reminders dispatched by type and final state", "{reminders}"},
		{"billing_receipt_failures_total", "Receipt artifact render or delivery failures", "{receipts}"},
		{"billing_reminder_jobs_dropped_total", "Reminder jobs dropped because the worker queue was full", "{jobs}"},
	}
	bm := &BillingMetrics{}
	targets := []**Counter{
		&bm.paymentsTotal,
		&bm.paymentAmountTotal,
		&bm.refundsCompletedTotal,
		&bm.refundAmountTotal,
		&bm.remindersTotal,
		&bm.receiptFailuresTotal,
		&bm.reminderJobsDropped,
	}
	for i, c := range counters {
		counter, err := NewCounter(meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*targets[i] = counter
	}

	var err error
	bm.tickDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "billing_reminder_tick_duration_seconds",
		Description: "Duration of one reminder sweep over outstanding invoices",
		Unit:        "s",
		Boundaries:  TickDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	return bm, nil
}

// RecordPayment records a payment credited to an invoice
func (bm *BillingMetrics) RecordPayment(ctx context.Context, tenantID uuid.UUID, method string, amount decimal.Decimal) {
	if bm == nil {
		return
	}
	tenant := AttrTenantID.String(tenantID.String())
	bm.paymentsTotal.Inc(ctx, tenant, AttrPaymentMethod.String(method))
	bm.paymentAmountTotal.Add(ctx, minorUnits(amount), tenant)
}

// RecordRefundCompleted records a refund debited from an invoice
func (bm *BillingMetrics) RecordRefundCompleted(ctx context.Context, tenantID uuid.UUID, amount decimal.Decimal) {
	if bm == nil {
		return
	}
	tenant := AttrTenantID.String(tenantID.String())
	bm.refundsCompletedTotal.Inc(ctx, tenant)
	bm.refundAmountTotal.Add(ctx, minorUnits(amount), tenant)
}

// RecordReminder records a reminder reaching a final state
func (bm *BillingMetrics) RecordReminder(ctx context.Context, reminderType, state string) {
	if bm == nil {
		return
	}
	bm.remindersTotal.Inc(ctx, AttrReminderType.String(reminderType), AttrReminderState.String(state))
}

// RecordReceiptFailure records a receipt render or e-mail failure
func (bm *BillingMetrics) RecordReceiptFailure(ctx context.Context, failure string) {
	if bm == nil {
		return
	}
	bm.receiptFailuresTotal.Inc(ctx, AttrReceiptFailure.String(failure))
}

// RecordJobDropped records a reminder job rejected by a full queue
func (bm *BillingMetrics) RecordJobDropped(ctx context.Context) {
	if bm == nil {
		return
	}
	bm.reminderJobsDropped.Inc(ctx)
}

// RecordTick records the duration of a reminder sweep
func (bm *BillingMetrics) RecordTick(ctx context.Context, trigger string, d time.Duration) {
	if bm == nil {
		return
	}
	bm.tickDuration.RecordDuration(ctx, d, AttrTrigger.String(trigger))
}

func minorUnits(amount decimal.Decimal) int64 {
	return amount.Abs().Mul(decimal.NewFromInt(100)).IntPart()
}
