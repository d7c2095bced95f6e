package gateway

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestBroadcasterDeliversToAllSubscribers(t *testing.T) {
	b := newBroadcaster()
	chans := []chan []byte{b.subscribe(), b.subscribe(), b.subscribe()}

	b.send(SSEEvent{Type: "ping"})

	for i, ch := range chans {
		select {
		case frame := <-ch:
			if !bytes.HasPrefix(frame, []byte("data: ")) || !bytes.HasSuffix(frame, []byte("\n\n")) {
				t.Fatalf("subscriber %d got malformed frame: %q", i, frame)
			}
			var evt SSEEvent
			if err := json.Unmarshal(bytes.TrimSpace(bytes.TrimPrefix(frame, []byte("data: "))), &evt); err != nil {
				t.Fatalf("subscriber %d frame is not JSON: %v", i, err)
			}
			if evt.Type != "ping" {
				t.Fatalf("subscriber %d got type %q", i, evt.Type)
			}
		default:
			t.Fatalf("subscriber %d got no frame", i)
		}
	}
}

func TestBroadcasterPrunesStalledSubscriber(t *testing.T) {
	b := newBroadcaster()
	stalled := b.subscribe()
	healthy := b.subscribe()

	// Fill the stalled subscriber's buffer while the healthy one drains.
	for i := 0; i < cap(stalled)+1; i++ {
		b.send(SSEEvent{Type: "ping"})
		select {
		case <-healthy:
		default:
			t.Fatalf("healthy subscriber missed frame %d", i)
		}
	}

	if got := b.clientCount(); got != 1 {
		t.Fatalf("expected stalled subscriber pruned, client count = %d", got)
	}

	// Draining the stalled channel must end in a close.
	closed := false
	for i := 0; i <= cap(stalled); i++ {
		if _, open := <-stalled; !open {
			closed = true
			break
		}
	}
	if !closed {
		t.Fatal("pruned channel was not closed")
	}

	b.send(SSEEvent{Type: "ping"})
	select {
	case <-healthy:
	default:
		t.Fatal("healthy subscriber should still receive after prune")
	}
}

func TestBroadcasterUnsubscribe(t *testing.T) {
	b := newBroadcaster()
	ch := b.subscribe()
	if b.clientCount() != 1 {
		t.Fatalf("client count = %d, want 1", b.clientCount())
	}
	b.unsubscribe(ch)
	if b.clientCount() != 0 {
		t.Fatalf("client count = %d, want 0", b.clientCount())
	}

	// Sending to an empty registry is a no-op.
	b.send(SSEEvent{Type: "ping"})
}
