// Package billing holds the hostel payment and reminder domain: invoices with
// partial-payment accounting, append-only signed transactions, receipts, the
// refund approval workflow, and the per-invoice payment reminder state machine.
//
// Key Aggregates:
//   - Invoice: line items, running paid/due balances, reminder bookkeeping
//   - RefundRequest: reversal of a prior payment pending approval
//   - PaymentReminder: one outbound reminder message and its delivery state
//
// Entities and value objects:
//   - Transaction: signed monetary event (PAYMENT positive, REFUND negative)
//   - Receipt: attestation of a single transaction
//   - ReminderConfiguration / ReminderTemplate: tenant reminder policy and wording
//
// SelectReminder is a pure function of (now, invoice, configuration); the
// application layer owns storage, locking and dispatch around it.
package billing
