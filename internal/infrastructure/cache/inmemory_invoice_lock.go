package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hostel/backend/internal/domain/billing"
)

// DefaultLockTTL bounds how long a crashed holder can block an invoice
const DefaultLockTTL = 5 * time.Minute

type lockEntry struct {
	token     uint64
	expiresAt time.Time
}

// InMemoryInvoiceLocker implements billing.InvoiceLocker with a process-local map.
// This is suitable for single-instance deployments and testing
type InMemoryInvoiceLocker struct {
	mu      sync.Mutex
	entries map[uuid.UUID]lockEntry
	ttl     time.Duration
	next    uint64
	now     func() time.Time
}

// NewInMemoryInvoiceLocker creates a new in-memory locker
func NewInMemoryInvoiceLocker(ttl time.Duration) *InMemoryInvoiceLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &InMemoryInvoiceLocker{
		entries: make(map[uuid.UUID]lockEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// TryLock acquires the invoice lock without waiting
func (l *InMemoryInvoiceLocker) TryLock(_ context.Context, invoiceID uuid.UUID) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, held := l.entries[invoiceID]; held && now.Before(e.expiresAt) {
		return nil, false, nil
	}

	l.next++
	token := l.next
	l.entries[invoiceID] = lockEntry{token: token, expiresAt: now.Add(l.ttl)}

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			// an expired lock may have been taken over
			if e, held := l.entries[invoiceID]; held && e.token == token {
				delete(l.entries, invoiceID)
			}
		})
	}
	return unlock, true, nil
}

// Size returns the number of held locks (for testing/monitoring)
func (l *InMemoryInvoiceLocker) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Close releases nothing; it lets the locker share the io.Closer shape of the Redis locker
func (l *InMemoryInvoiceLocker) Close() error {
	return nil
}

var _ billing.InvoiceLocker = (*InMemoryInvoiceLocker)(nil)
