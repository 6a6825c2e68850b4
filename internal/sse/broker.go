// Package sse streams post change notifications to browsers over
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/wanderlog/internal/catalog"
)

// Event types sent to clients.
const (
	TypePostCreated  = "post.created"
	TypePostUpdated  = "post.updated"
	TypePostDeleted  = "post.deleted"
	TypeIndexUpdated = "index.updated"
)

const (
	clientBuffer      = 64
	defaultThrottle   = 2 * time.Second
	heartbeatInterval = 25 * time.Second
)

// Event is one message to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type changeBatch struct {
	snapshotID string
	changes    []catalog.Change
}

// Broker fans events out to connected clients.
//
// A single event loop owns the client set, the sequence counter and the
// index.updated throttle state; public methods talk to it over channels.
type Broker struct {
	throttle  time.Duration
	heartbeat time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	changesCh     chan changeBatch
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker. index.updated is sent at most once per throttle
// interval; a batch arriving inside the interval is coalesced into one
// trailing event carrying the latest snapshot id.
func NewBroker(throttle time.Duration) *Broker {
	if throttle <= 0 {
		throttle = defaultThrottle
	}
	b := &Broker{
		throttle:      throttle,
		heartbeat:     heartbeatInterval,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		changesCh:     make(chan changeBatch, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var (
		seq        uint64
		lastIndex  time.Time
		pendingID  string
		trailing   *time.Timer
		trailingCh <-chan time.Time
	)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		seq++
		raw := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, event.Type, payload))
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// slow client; drop rather than stall the loop
			}
		}
	}

	indexUpdated := func(id string) {
		lastIndex = time.Now()
		pendingID = ""
		broadcast(Event{Type: TypeIndexUpdated, Data: map[string]string{"snapshotId": id}})
	}

	for {
		select {
		case <-b.stopCh:
			if trailing != nil {
				trailing.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case batch := <-b.changesCh:
			for _, c := range batch.changes {
				broadcast(Event{Type: eventType(c.Kind), Data: c})
			}
			if wait := b.throttle - time.Since(lastIndex); wait > 0 {
				pendingID = batch.snapshotID
				if trailing == nil {
					trailing = time.NewTimer(wait)
					trailingCh = trailing.C
				}
				continue
			}
			indexUpdated(batch.snapshotID)

		case <-trailingCh:
			trailing, trailingCh = nil, nil
			if pendingID != "" {
				indexUpdated(pendingID)
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

func eventType(k catalog.ChangeKind) string {
	switch k {
	case catalog.Created:
		return TypePostCreated
	case catalog.Deleted:
		return TypePostDeleted
	default:
		return TypePostUpdated
	}
}

// Close stops the event loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishChanges sends one post.* event per change followed by a throttled
// index.updated.
func (b *Broker) PublishChanges(snapshotID string, changes []catalog.Change) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changesCh <- changeBatch{snapshotID: snapshotID, changes: changes}:
	case <-b.stopped:
	}
}

// OnChange adapts the broker to a catalog change hook.
func (b *Broker) OnChange(snap *catalog.Snapshot, changes []catalog.Change) {
	b.PublishChanges(snap.ID, changes)
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
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

	ping := time.NewTicker(b.heartbeat)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
