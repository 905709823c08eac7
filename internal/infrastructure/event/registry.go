package event

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/hostel/backend/internal/domain/shared"
)

// subscriptions is an immutable routing table. Writers build a new one and
// swap it in; Publish reads whichever table is current without locking.
type subscriptions struct {
	byType   map[string][]shared.EventHandler
	wildcard []shared.EventHandler
}

// HandlerRegistry routes event types to handlers. A handler registered with
// no types is a wildcard and sees every event after the typed handlers.
type HandlerRegistry struct {
	writeMu sync.Mutex
	current atomic.Pointer[subscriptions]
}

func NewHandlerRegistry() *HandlerRegistry {
	r := &HandlerRegistry{}
	r.current.Store(&subscriptions{byType: map[string][]shared.EventHandler{}})
	return r
}

// Register adds handler for eventTypes. Repeated registration is a no-op.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.update(func(s *subscriptions) {
		if len(eventTypes) == 0 {
			s.wildcard = appendOnce(s.wildcard, handler)
			return
		}
		for _, t := range eventTypes {
			s.byType[t] = appendOnce(s.byType[t], handler)
		}
	})
}

// Unregister drops handler from every route it appears on
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.update(func(s *subscriptions) {
		s.wildcard = without(s.wildcard, handler)
		for t, hs := range s.byType {
			if hs = without(hs, handler); len(hs) == 0 {
				delete(s.byType, t)
			} else {
				s.byType[t] = hs
			}
		}
	})
}

// GetHandlers returns typed handlers for eventType followed by wildcards.
// The returned slice must not be modified.
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	s := r.current.Load()
	typed := s.byType[eventType]
	switch {
	case len(s.wildcard) == 0:
		return typed
	case len(typed) == 0:
		return s.wildcard
	}
	return append(slices.Clip(typed), s.wildcard...)
}

// Count returns the number of distinct registered handlers
func (r *HandlerRegistry) Count() int {
	s := r.current.Load()
	seen := make(map[shared.EventHandler]struct{})
	for _, h := range s.wildcard {
		seen[h] = struct{}{}
	}
	for _, hs := range s.byType {
		for _, h := range hs {
			seen[h] = struct{}{}
		}
	}
	return len(seen)
}

func (r *HandlerRegistry) update(mutate func(*subscriptions)) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	old := r.current.Load()
	next := &subscriptions{
		byType:   make(map[string][]shared.EventHandler, len(old.byType)),
		wildcard: slices.Clone(old.wildcard),
	}
	for t, hs := range old.byType {
		next.byType[t] = slices.Clone(hs)
	}
	mutate(next)
	r.current.Store(next)
}

func appendOnce(hs []shared.EventHandler, h shared.EventHandler) []shared.EventHandler {
	if slices.Contains(hs, h) {
		return hs
	}
	return append(hs, h)
}

func without(hs []shared.EventHandler, h shared.EventHandler) []shared.EventHandler {
	return slices.DeleteFunc(hs, func(x shared.EventHandler) bool { return x == h })
}
