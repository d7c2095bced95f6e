package poller

import (
	"testing"
	"time"
)

func TestBackoffDoublesAndCaps(t *testing.T) {
	b := newBackoff(time.Second, 8*time.Second)

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 8 * time.Second}
	for i, w := range want {
		if got := b.Current(); got != w {
			t.Fatalf("after %d failures: current = %v, want %v", i, got, w)
		}
		b.Next()
	}
}

func TestBackoffReset(t *testing.T) {
	b := newBackoff(time.Second, time.Minute)
	b.Next()
	b.Next()
	b.Next()

	b.Reset()
	if got := b.Current(); got != time.Second {
		t.Fatalf("current after reset = %v, want 1s", got)
	}
}

func TestBackoffDefaults(t *testing.T) {
	b := newBackoff(0, 0)
	if b.initial != time.Second || b.max != time.Minute {
		t.Fatalf("unexpected defaults: initial=%v max=%v", b.initial, b.max)
	}
}

func TestJitterBounds(t *testing.T) {
	d := 10 * time.Second
	for _, sample := range []float64{0, 0.25, 0.5, 0.75, 0.999} {
		j := jitter(d, sample)
		if j < 7500*time.Millisecond || j > 12500*time.Millisecond {
			t.Fatalf("jitter(%v, %v) = %v, outside 25%% band", d, sample, j)
		}
	}
}

func TestJitterExtremes(t *testing.T) {
	d := 10 * time.Second
	if got := jitter(d, 0); got != 7500*time.Millisecond {
		t.Fatalf("jitter at sample 0 = %v, want 7.5s", got)
	}
	if got := jitter(d, 0.5); got != d {
		t.Fatalf("jitter at sample 0.5 = %v, want %v", got, d)
	}
}

func TestJitterFloor(t *testing.T) {
	if got := jitter(50*time.Millisecond, 0); got != backoffFloor {
		t.Fatalf("jitter below floor = %v, want %v", got, backoffFloor)
	}
}

func TestNextReturnsJitteredCurrent(t *testing.T) {
	b := newBackoff(4*time.Second, time.Minute)
	got := b.Next()
	if got < 3*time.Second || got > 5*time.Second {
		t.Fatalf("Next() = %v, outside 25%% band of 4s", got)
	}
}
