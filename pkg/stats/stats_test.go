package stats

import (
	"testing"
	"time"
)

// fakeClock advances by step on every call.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (f *fakeClock) now() time.Time {
	f.t = f.t.Add(f.step)
	return f.t
}

func TestCollector_FPS(t *testing.T) {
	c := NewCollector(200 * time.Millisecond)
	clock := &fakeClock{t: time.Unix(0, 0), step: 10 * time.Millisecond}
	c.now = clock.now

	if c.FPS() != 0 {
		t.Errorf("FPS before any window = %d, want 0", c.FPS())
	}

	// First frame only sets the reference; 20 more cover 200ms.
	for range 21 {
		c.Frame(Tick{Duration: time.Millisecond})
	}

	if got := c.FPS(); got != 100 {
		t.Errorf("FPS = %d, want 100", got)
	}
}

func TestCollector_Snapshot(t *testing.T) {
	c := NewCollector(0)
	if c.window != DefaultPollingWindow {
		t.Errorf("window = %v, want default", c.window)
	}

	c.Frame(Tick{Duration: 2 * time.Millisecond, Objects: 5, Zones: []int{1, 2, 1, 1}})
	c.Frame(Tick{Duration: 4 * time.Millisecond, Objects: 6, Zones: []int{2, 2, 1, 1}})
	c.GazeSwitched()

	s := c.Snapshot()
	if s.Frames != 2 {
		t.Errorf("Frames = %d, want 2", s.Frames)
	}
	if s.AverageTick != 3*time.Millisecond || s.MaxTick != 4*time.Millisecond {
		t.Errorf("avg = %v, max = %v", s.AverageTick, s.MaxTick)
	}
	if s.Objects != 6 || len(s.Zones) != 4 || s.Zones[0] != 2 {
		t.Errorf("last tick = %d objects, zones %v", s.Objects, s.Zones)
	}
	if s.GazeSwitches != 1 {
		t.Errorf("GazeSwitches = %d, want 1", s.GazeSwitches)
	}
}

func TestCollector_OnUpdate(t *testing.T) {
	c := NewCollector(20 * time.Millisecond)
	clock := &fakeClock{t: time.Unix(0, 0), step: 10 * time.Millisecond}
	c.now = clock.now

	got := make(chan Snapshot, 1)
	c.OnUpdate(func(s Snapshot) {
		select {
		case got <- s:
		default:
		}
	})

	for range 3 {
		c.Frame(Tick{})
	}

	select {
	case s := <-got:
		if s.FPS != 100 {
			t.Errorf("FPS in callback = %d, want 100", s.FPS)
		}
	case <-time.After(time.Second):
		t.Fatal("OnUpdate was not called")
	}
}
