// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
// - base.go: shared persistence fields (BaseModel, TenantModel, TenantAggregateModel)
// - billing.go: invoices, transactions, receipts, refund requests
// - reminder.go: payment reminders, reminder configuration, reminder templates
// - event_journal.go: append-only journal of published billing events
package models
