package clock

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	var order []string
	c.AfterFunc(3*time.Second, func() { order = append(order, "c") })
	c.AfterFunc(time.Second, func() { order = append(order, "a") })
	c.AfterFunc(2*time.Second, func() { order = append(order, "b") })

	c.Advance(1500 * time.Millisecond)
	if len(order) != 1 || order[0] != "a" {
		t.Fatalf("after 1.5s fired %v", order)
	}
	c.Advance(5 * time.Second)
	if len(order) != 3 || order[1] != "b" || order[2] != "c" {
		t.Fatalf("fired %v", order)
	}
	if got := c.Now(); !got.Equal(time.Unix(0, 0).Add(6500 * time.Millisecond)) {
		t.Fatalf("now = %v", got)
	}
}

func TestFakeStopPreventsFire(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })
	if !tm.Stop() {
		t.Fatal("first stop should report true")
	}
	if tm.Stop() {
		t.Fatal("second stop should report false")
	}
	c.Advance(2 * time.Second)
	if fired {
		t.Fatal("stopped timer fired")
	}
	if c.Pending() != 0 {
		t.Fatalf("pending = %d", c.Pending())
	}
}

func TestFakeChainedTimersFireWithinOneAdvance(t *testing.T) {
	c := NewFake(time.Unix(0, 0))
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		if ticks < 5 {
			c.AfterFunc(100*time.Millisecond, tick)
		}
	}
	c.AfterFunc(100*time.Millisecond, tick)
	c.Advance(time.Second)
	if ticks != 5 {
		t.Fatalf("ticks = %d", ticks)
	}
}

func TestFakeCallbackSeesDeadlineAsNow(t *testing.T) {
	start := time.Unix(100, 0)
	c := NewFake(start)
	var seen time.Time
	c.AfterFunc(2*time.Second, func() { seen = c.Now() })
	c.Advance(10 * time.Second)
	if !seen.Equal(start.Add(2 * time.Second)) {
		t.Fatalf("callback saw %v", seen)
	}
}

func TestRealAfterFuncAndStop(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c := Real{Clock: fc}
	fired := make(chan struct{}, 1)
	c.AfterFunc(time.Second, func() { fired <- struct{}{} })
	stopped := c.AfterFunc(time.Second, func() { t.Error("stopped timer fired") })
	if !stopped.Stop() {
		t.Fatal("Stop on pending timer reported false")
	}
	fc.Advance(time.Second)
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire after Advance")
	}
	if !c.Now().Equal(fc.Now()) {
		t.Fatal("Now not delegated to the underlying clock")
	}
}

func TestNewRealUsesWallClock(t *testing.T) {
	c := NewReal()
	if d := time.Since(c.Now()); d < 0 || d > time.Minute {
		t.Fatalf("wall clock off by %v", d)
	}
	done := make(chan struct{})
	c.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("real timer did not fire")
	}
}
