// Package stats measures frame rate and per-tick cost of the region loop.
package stats

import (
	"math"
	"sync"
	"time"
)

// DefaultPollingWindow is how much time is accumulated before the FPS
// figure is recomputed.
const DefaultPollingWindow = 200 * time.Millisecond

const historySize = 100

// Tick describes one controller tick.
type Tick struct {
	// Duration is how long the tick took.
	Duration time.Duration

	// Objects is the number of tracked objects classified.
	Objects int

	// Zones counts objects per zone index; the last entry is outside.
	Zones []int
}

// Snapshot is a read-only view of the collector.
type Snapshot struct {
	FPS          int           `json:"fps"`
	Frames       int64         `json:"frames"`
	LastTick     time.Duration `json:"last_tick_ns"`
	AverageTick  time.Duration `json:"average_tick_ns"`
	MaxTick      time.Duration `json:"max_tick_ns"`
	Objects      int           `json:"objects"`
	Zones        []int         `json:"zones"`
	GazeSwitches int64         `json:"gaze_switches"`
}

// Collector accumulates frame statistics. It is goroutine-safe.
type Collector struct {
	window time.Duration
	now    func() time.Time

	mu         sync.Mutex
	frameCount int
	elapsed    time.Duration
	lastFrame  time.Time
	fps        int
	frames     int64
	history    []time.Duration
	last       Tick
	switches   int64

	onUpdate func(Snapshot)
}

// NewCollector creates a collector recomputing FPS every window.
// A non-positive window uses DefaultPollingWindow.
func NewCollector(window time.Duration) *Collector {
	if window <= 0 {
		window = DefaultPollingWindow
	}
	return &Collector{
		window:  window,
		now:     time.Now,
		history: make([]time.Duration, 0, historySize),
	}
}

// OnUpdate sets a callback fired each time the FPS figure is recomputed.
func (c *Collector) OnUpdate(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = fn
}

// Frame records one rendered frame and the tick that produced it.
func (c *Collector) Frame(t Tick) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !c.lastFrame.IsZero() {
		c.elapsed += now.Sub(c.lastFrame)
		c.frameCount++
	}
	c.lastFrame = now
	c.frames++

	c.last = t
	c.history = append(c.history, t.Duration)
	if len(c.history) > historySize {
		c.history = c.history[1:]
	}

	if c.elapsed >= c.window {
		c.fps = int(math.Round(float64(c.frameCount) / c.elapsed.Seconds()))
		c.frameCount = 0
		c.elapsed = 0
		c.notify()
	}
}

// GazeSwitched counts a gaze provider change.
func (c *Collector) GazeSwitched() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.switches++
}

// FPS returns the frame rate measured over the last complete window.
func (c *Collector) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

// Snapshot returns the current statistics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Collector) snapshot() Snapshot {
	s := Snapshot{
		FPS:          c.fps,
		Frames:       c.frames,
		LastTick:     c.last.Duration,
		Objects:      c.last.Objects,
		Zones:        append([]int(nil), c.last.Zones...),
		GazeSwitches: c.switches,
	}
	if len(c.history) > 0 {
		var sum time.Duration
		for _, d := range c.history {
			sum += d
			s.MaxTick = max(s.MaxTick, d)
		}
		s.AverageTick = sum / time.Duration(len(c.history))
	}
	return s
}

// notify calls the update callback if set.
// Must be called with mutex held.
func (c *Collector) notify() {
	if c.onUpdate != nil {
		go c.onUpdate(c.snapshot())
	}
}
