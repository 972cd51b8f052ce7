// Package stream fans marketplace lifecycle events out to subscribers.
package stream

import (
	"context"
	"sync"
	"time"
)

// EventType names a marketplace lifecycle event.
type EventType string

const (
	EventPropertyListed     EventType = "property_listed"
	EventContractProposed   EventType = "contract_proposed"
	EventContractConfirmed  EventType = "contract_confirmed"
	EventContractTerminated EventType = "contract_terminated"
	EventContractCancelled  EventType = "contract_cancelled"
	EventDepositPaid        EventType = "deposit_paid"
	EventRentPaid           EventType = "rent_paid"
	EventDepositReleased    EventType = "deposit_released"
	EventProceedsWithdrawn  EventType = "proceeds_withdrawn"
	EventDisputeOpened      EventType = "dispute_opened"
)

// Event is a single marketplace notification. PaymentID is set only on
// deposit_paid and rent_paid events so archivers can follow up on the
// escrow record behind the notification.
type Event struct {
	Type       EventType `json:"type"`
	PropertyID uint64    `json:"property_id,omitempty"`
	ContractID uint64    `json:"contract_id,omitempty"`
	PaymentID  uint64    `json:"payment_id,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

const subscriberBuffer = 16

// Stream is an in-process publish/subscribe hub. Slow subscribers lose
// events rather than blocking publishers.
type Stream struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func New() *Stream {
	return &Stream{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber. The channel is closed when ctx is
// cancelled.
func (s *Stream) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
		close(ch)
	}()

	return ch
}

// Publish delivers the event to every subscriber with buffer space.
func (s *Stream) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
			// Drop for this subscriber; the hub never blocks.
		}
	}
}
