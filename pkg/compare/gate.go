package compare

import "time"

const (
	defaultGateCapacity = 1
	defaultGateWait     = 100 * time.Millisecond
)

// Gate is a bounded-concurrency admission gate guarding the expensive
// compare codepaths. It is built once at server startup and shared by
// reference into the request handlers; its slot counter is the only
// cross-request mutable state in the compare core.
//
// A caller that fails to acquire a slot within the wait window must
// return a retry-later response immediately, without doing any of the
// guarded work. There is no queue beyond the wait window, which bounds
// worst-case latency under sustained overload while short bursts still
// get through.
type Gate struct {
	slots chan struct{}
	wait  time.Duration
}

// NewGate creates a gate with the given capacity and acquisition wait.
// Non-positive values select the defaults (capacity 1, 100ms).
func NewGate(capacity int, wait time.Duration) *Gate {
	if capacity <= 0 {
		capacity = defaultGateCapacity
	}

	if wait <= 0 {
		wait = defaultGateWait
	}

	return &Gate{
		slots: make(chan struct{}, capacity),
		wait:  wait,
	}
}

// TryAcquire attempts to take a slot, waiting at most the configured
// wait. It reports whether a slot was obtained; on success the caller
// must Release on every exit path.
func (g *Gate) TryAcquire() bool {
	select {
	case g.slots <- struct{}{}:
		return true
	default:
	}

	timer := time.NewTimer(g.wait)
	defer timer.Stop()

	select {
	case g.slots <- struct{}{}:
		return true
	case <-timer.C:
		return false
	}
}

// Release returns a slot taken by a successful TryAcquire.
func (g *Gate) Release() {
	select {
	case <-g.slots:
	default:
		panic("compare: Gate.Release without matching TryAcquire")
	}
}
