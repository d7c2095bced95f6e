package gateway

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gitmonhq/gitmon/internal/metrics"
)

// Broadcaster fans SSEEvent values out to all active GET /api/stream
// subscribers. A subscriber whose buffer is full is treated as dead: its
// channel is closed and removed, so the registry only holds clients that are
// actually draining frames.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

func newBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan []byte]struct{})}
}

// subscribe returns a channel that receives ready-to-write SSE data frames.
// The caller must call unsubscribe when the HTTP connection closes.
func (b *Broadcaster) subscribe() chan []byte {
	ch := make(chan []byte, 32)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	n := len(b.subs)
	b.mu.Unlock()
	metrics.SSEClients.Set(float64(n))
	return ch
}

func (b *Broadcaster) unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.subs, ch)
	n := len(b.subs)
	b.mu.Unlock()
	metrics.SSEClients.Set(float64(n))
}

// clientCount returns the number of live subscribers.
func (b *Broadcaster) clientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// send serialises evt as JSON and fans the SSE frame to all subscribers.
// Subscribers that cannot take the frame are pruned; remaining clients still
// get it.
func (b *Broadcaster) send(evt SSEEvent) {
	raw, err := json.Marshal(evt)
	if err != nil {
		slog.Warn("gateway: failed to marshal SSE event", "type", evt.Type, "error", err)
		return
	}
	// SSE wire format: "data: <json>\n\n"
	frame := []byte("data: ")
	frame = append(frame, raw...)
	frame = append(frame, '\n', '\n')

	b.mu.Lock()
	for ch := range b.subs {
		select {
		case ch <- frame:
		default:
			delete(b.subs, ch)
			close(ch)
			slog.Debug("gateway: dropped stalled SSE subscriber")
		}
	}
	n := len(b.subs)
	b.mu.Unlock()
	metrics.SSEClients.Set(float64(n))
}
