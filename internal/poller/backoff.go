package poller

import (
	"math/rand"
	"sync"
	"time"
)

// backoffFloor is the minimum delay ever slept on failure, jitter included.
const backoffFloor = 100 * time.Millisecond

// backoff tracks the exponential retry delay for feed failures.
// The unjittered value after n consecutive failures is
// min(initial * 2^n, max); Next returns that value with ±25% uniform jitter
// so independent deployments do not retry in lockstep.
type backoff struct {
	mu      sync.Mutex
	initial time.Duration
	max     time.Duration
	current time.Duration
	rand    *rand.Rand
}

func newBackoff(initial, max time.Duration) *backoff {
	if initial <= 0 {
		initial = time.Second
	}
	if max < initial {
		max = time.Minute
	}
	return &backoff{
		initial: initial,
		max:     max,
		current: initial,
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the jittered delay to sleep now and doubles the stored value
// for the next failure, capped at max.
func (b *backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	d := jitter(b.current, b.rand.Float64())
	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return d
}

// Reset returns the delay to its floor after a successful fetch.
func (b *backoff) Reset() {
	b.mu.Lock()
	b.current = b.initial
	b.mu.Unlock()
}

// Current returns the unjittered delay the next failure would start from.
func (b *backoff) Current() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// jitter spreads d by ±25% given a uniform sample in [0,1), clamping to the
// floor so a small base delay cannot jitter down to zero.
func jitter(d time.Duration, sample float64) time.Duration {
	offset := time.Duration(float64(d) * 0.25 * (2*sample - 1))
	j := d + offset
	if j < backoffFloor {
		j = backoffFloor
	}
	return j
}
