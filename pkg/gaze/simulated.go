package gaze

import (
	"math/rand/v2"
	"sync"
	"time"
)

// SimulatedTracker is an in-process Tracker that jumps to a random point
// in [-1, 1] every interval. It stands in for a native eye tracker when
// none is installed.
type SimulatedTracker struct {
	interval time.Duration

	mu      sync.Mutex
	x, y    float64
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	rng     *rand.Rand
}

// NewSimulatedTracker creates a simulated tracker.
// interval defaults to 1s when zero or negative.
func NewSimulatedTracker(interval time.Duration, seed uint64) *SimulatedTracker {
	if interval <= 0 {
		interval = time.Second
	}
	return &SimulatedTracker{
		interval: interval,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Open starts the generator goroutine. Opening twice is a no-op.
func (t *SimulatedTracker) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return nil
	}
	t.running = true
	t.stopCh = make(chan struct{})

	t.wg.Add(1)
	go t.loop(t.stopCh)
	return nil
}

func (t *SimulatedTracker) loop(stopCh chan struct{}) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			t.mu.Lock()
			t.x = t.rng.Float64()*2 - 1
			t.y = t.rng.Float64()*2 - 1
			t.mu.Unlock()
		}
	}
}

// Close stops the generator and waits for it.
func (t *SimulatedTracker) Close() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	close(t.stopCh)
	t.mu.Unlock()

	t.wg.Wait()
}

// Read returns the current point.
func (t *SimulatedTracker) Read() (float64, float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.x, t.y, t.running
}
