package compare_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/regressoor/pkg/compare"
)

func TestGate_SecondAcquireTimesOut(t *testing.T) {
	gate := compare.NewGate(1, 50*time.Millisecond)

	require.True(t, gate.TryAcquire())

	// The slot is held; a second acquire must fail, and only after the
	// wait window has elapsed.
	start := time.Now()
	acquired := gate.TryAcquire()
	elapsed := time.Since(start)

	assert.False(t, acquired)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)

	// After release, a new acquire succeeds immediately.
	gate.Release()
	assert.True(t, gate.TryAcquire())
	gate.Release()
}

func TestGate_CapacityAboveOne(t *testing.T) {
	gate := compare.NewGate(2, 10*time.Millisecond)

	require.True(t, gate.TryAcquire())
	require.True(t, gate.TryAcquire())
	assert.False(t, gate.TryAcquire())

	gate.Release()
	assert.True(t, gate.TryAcquire())

	gate.Release()
	gate.Release()
}

func TestGate_ConcurrentWaiterGetsFreedSlot(t *testing.T) {
	gate := compare.NewGate(1, 500*time.Millisecond)

	require.True(t, gate.TryAcquire())

	acquired := make(chan bool, 1)

	go func() {
		acquired <- gate.TryAcquire()
	}()

	// Release while the second caller is still within its wait window.
	time.Sleep(20 * time.Millisecond)
	gate.Release()

	select {
	case got := <-acquired:
		assert.True(t, got, "waiter must pick up the freed slot")
	case <-time.After(time.Second):
		t.Fatal("waiter did not return")
	}

	gate.Release()
}

func TestGate_ReleaseWithoutAcquirePanics(t *testing.T) {
	gate := compare.NewGate(1, 10*time.Millisecond)

	assert.Panics(t, func() { gate.Release() })
}
