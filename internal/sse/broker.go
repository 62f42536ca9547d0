// Package sse streams handoff change notifications as Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event is one SSE frame.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Event types.
const (
	TypeCreated  = "handoff.created"
	TypeUpdated  = "handoff.updated"
	TypeDeleted  = "handoff.deleted"
	TypeListDiff = "handoffs.changed"
)

// DefaultListThrottle is the handoffs.changed window used when NewBroker
// gets zero.
const DefaultListThrottle = 2 * time.Second

// clientBuffer is the per-client backlog; frames beyond it are dropped.
const clientBuffer = 64

// Change is the payload of the per-document events.
type Change struct {
	HandoffID string `json:"handoff_id"`
	Location  string `json:"location"`
}

// ListChange is the payload of handoffs.changed: how many document events
// it summarises.
type ListChange struct {
	Changes int `json:"changes"`
}

var changeTypes = map[string]string{
	"created": TypeCreated,
	"updated": TypeUpdated,
	"deleted": TypeDeleted,
}

// Broker fans handoff changes out to connected event-stream clients.
//
// Every document change is forwarded as it happens. handoffs.changed is
// coalesced: the first change in a quiet period is announced at once, and
// changes arriving inside the window are folded into one trailing
// announcement when it closes.
type Broker struct {
	window time.Duration

	mu      sync.Mutex
	clients map[chan []byte]struct{}
	seq     uint64
	closed  bool

	lastList time.Time
	folded   int
	trailing *time.Timer
}

// NewBroker creates a broker. listThrottle is the handoffs.changed window.
func NewBroker(listThrottle time.Duration) *Broker {
	if listThrottle <= 0 {
		listThrottle = DefaultListThrottle
	}
	return &Broker{
		window:  listThrottle,
		clients: make(map[chan []byte]struct{}),
	}
}

// Subscribe registers a client. The channel is closed by Unsubscribe or
// Close; on a closed broker it is returned already closed.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.clients[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[ch]; ok {
		delete(b.clients, ch)
		close(ch)
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Close disconnects every client and stops pending announcements. Later
// publishes are no-ops.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	if b.trailing != nil {
		b.trailing.Stop()
	}
	for ch := range b.clients {
		delete(b.clients, ch)
		close(ch)
	}
}

// Publish sends event to every client.
func (b *Broker) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcastLocked(event)
}

// PublishHandoffEvent announces a document change. kind is created, updated
// or deleted; other kinds are ignored. location is active or archived.
func (b *Broker) PublishHandoffEvent(kind, id, location string) {
	typ, ok := changeTypes[kind]
	if !ok {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.broadcastLocked(Event{Type: typ, Data: Change{HandoffID: id, Location: location}})

	if b.trailing != nil {
		b.folded++
		return
	}
	if since := time.Since(b.lastList); since >= b.window {
		b.announceListLocked(1)
		return
	}
	b.folded = 1
	b.trailing = time.AfterFunc(b.window-time.Since(b.lastList), b.flushList)
}

func (b *Broker) flushList() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trailing = nil
	if b.closed || b.folded == 0 {
		return
	}
	b.announceListLocked(b.folded)
}

func (b *Broker) announceListLocked(changes int) {
	b.lastList = time.Now()
	b.folded = 0
	b.broadcastLocked(Event{Type: TypeListDiff, Data: ListChange{Changes: changes}})
}

func (b *Broker) broadcastLocked(event Event) {
	if b.closed {
		return
	}
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return
	}
	b.seq++
	frame := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", b.seq, event.Type, payload))
	for ch := range b.clients {
		select {
		case ch <- frame:
		default:
			// full backlog, frame dropped
		}
	}
}

// ServeHTTP streams events to one client until it disconnects.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
