// Package events is the per-store fan-out for live dashboards and print
// agents. Delivery is best-effort, at-most-once per currently-connected
// subscriber: nothing is buffered or retried, and a subscriber that cannot
// keep up is dropped. Clients that miss events resynchronize through the
// regular listing endpoints.
package events

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const subscriberBuffer = 16

// Event names fanned out by the hub. All namespaces share the same
// mechanism; only the payload shape differs.
const (
	EventOrderCreated  = "order.created"
	EventOrderUpdated  = "order.updated"
	EventTablesUpdated = "tables_updated"
	EventMenuUpdated   = "menu_updated"
)

type Subscriber struct {
	StoreID uint
	ch      chan []byte
	closed  bool
}

// Frames yields wire-ready SSE frames. The channel is closed when the hub
// drops the subscriber.
func (s *Subscriber) Frames() <-chan []byte { return s.ch }

// Hub keeps the process-local registry of live subscribers per store.
type Hub struct {
	mu   sync.Mutex
	subs map[uint]map[*Subscriber]bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint]map[*Subscriber]bool)}
}

func (h *Hub) Subscribe(storeID uint) *Subscriber {
	sub := &Subscriber{StoreID: storeID, ch: make(chan []byte, subscriberBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[storeID] == nil {
		h.subs[storeID] = make(map[*Subscriber]bool)
	}
	h.subs[storeID][sub] = true
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(sub)
}

func (h *Hub) dropLocked(sub *Subscriber) {
	if sub.closed {
		return
	}
	sub.closed = true
	delete(h.subs[sub.StoreID], sub)
	if len(h.subs[sub.StoreID]) == 0 {
		delete(h.subs, sub.StoreID)
	}
	close(sub.ch)
}

// SubscriberCount reports how many live subscribers a store has.
func (h *Hub) SubscriberCount(storeID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[storeID])
}

// Publish serializes payload once and pushes one frame to every live
// subscriber of the store. A subscriber whose buffer is full is dropped on
// the spot; publishing never blocks and never reports delivery failures.
func (h *Hub) Publish(storeID uint, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).WithField("event", event).Error("events: payload marshal failed")
		return
	}
	frame := Frame(event, data)

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[storeID] {
		select {
		case sub.ch <- frame:
		default:
			h.dropLocked(sub)
		}
	}
}

// Frame formats one SSE event frame.
func Frame(event string, data []byte) []byte {
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event, data))
}

// KeepAliveFrame is an SSE comment line; clients ignore it, idle-connection
// timeouts in between do not.
func KeepAliveFrame() []byte {
	return []byte(": keep-alive\n\n")
}

// KeepAliveDelay jitters the keep-alive interval per tick so connections
// opened together do not ping in lockstep.
func KeepAliveDelay() time.Duration {
	return 25*time.Second + time.Duration(rand.Intn(10000)-5000)*time.Millisecond
}
