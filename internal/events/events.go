// Package events carries typed domain events to in-process subscribers.
// The core publishes concrete event values after each committed operation and
// collaborators (audit log, dependent views) subscribe by event name.
package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type Event interface {
	EventName() string
}

// CompanyCreated fires after a company and its initial capital entry commit.
type CompanyCreated struct {
	CompanyID         uuid.UUID
	ClassID           uuid.UUID
	MemberIDs         []uuid.UUID
	TotalCapitalCents int64
}

func (CompanyCreated) EventName() string { return "company.created" }

// CompanyDeleted fires after a company row is gone. Product cascade runs off
// the queued cleanup job, not off this event, so it survives a process crash.
type CompanyDeleted struct {
	CompanyID uuid.UUID
	ClassID   uuid.UUID
}

func (CompanyDeleted) EventName() string { return "company.deleted" }

// BalanceChanged fires whenever a student's balance moved (deposit, withdrawal,
// contribution debit, distribution credit).
type BalanceChanged struct {
	StudentID       uuid.UUID
	NewBalanceCents int64
}

func (BalanceChanged) EventName() string { return "student.balance_changed" }

// ProductSold fires after a sale and its revenue entry commit.
type ProductSold struct {
	ProductID   uuid.UUID
	CompanyID   uuid.UUID
	Units       int64
	AmountCents int64
}

func (ProductSold) EventName() string { return "product.sold" }

type Handler func(ctx context.Context, e Event)

// Bus dispatches events synchronously, in subscription order. A nil *Bus is
// valid and drops everything, which keeps service tests free of wiring.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers a handler for the named event.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish delivers e to every handler subscribed to its name.
func (b *Bus) Publish(ctx context.Context, e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	hs := b.handlers[e.EventName()]
	b.mu.RUnlock()
	for _, h := range hs {
		h(ctx, e)
	}
}
