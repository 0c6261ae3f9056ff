package tracking

import (
	"testing"
	"time"

	"github.com/example/carpool-matching/internal/geo"
	"github.com/example/carpool-matching/internal/models"
)

var pickup = models.Coord{Lat: 37.7749, Lon: -122.4194}

func TestRouteForRiderEndsAtPickup(t *testing.T) {
	driver := models.Coord{Lat: 37.8, Lon: -122.3}
	r := RouteFor(models.RoleRider, pickup, &driver)
	if r.Start != driver || r.End != pickup {
		t.Fatalf("route %+v", r)
	}
}

func TestRouteForDriverStartsAtSelf(t *testing.T) {
	passenger := models.Coord{Lat: 37.8, Lon: -122.3}
	r := RouteFor(models.RoleDriver, pickup, &passenger)
	if r.Start != pickup || r.End != passenger {
		t.Fatalf("route %+v", r)
	}
}

func TestRouteForFallbackOffset(t *testing.T) {
	r := RouteFor(models.RoleRider, pickup, nil)
	want := models.Coord{Lat: pickup.Lat + FallbackOffset, Lon: pickup.Lon + FallbackOffset}
	if r.Start != want || r.End != pickup {
		t.Fatalf("route %+v", r)
	}
}

func TestProgressMonotonicAndClamped(t *testing.T) {
	r := RouteFor(models.RoleRider, pickup, nil)
	p := NewProgress(r, time.Second, 100*time.Millisecond)
	if p.Steps() != 10 {
		t.Fatalf("steps = %d", p.Steps())
	}
	last := r.Remaining(r.Start)
	var done bool
	var pos models.Coord
	for i := 0; i < 10; i++ {
		pos, done = p.Advance()
		d := r.Remaining(pos)
		if d > last {
			t.Fatalf("moved away at step %d: %f > %f", i, d, last)
		}
		last = d
	}
	if !done || pos != pickup {
		t.Fatalf("not clamped to end: %v done=%v", pos, done)
	}
	pos, done = p.Advance()
	if !done || pos != pickup {
		t.Fatal("advance past end left the endpoint")
	}
}

func TestAtPastOneIsExactEnd(t *testing.T) {
	r := Route{Start: models.Coord{Lat: 1, Lon: 1}, End: models.Coord{Lat: 1.3, Lon: 1.7}}
	if r.At(1) != r.End || r.At(5) != r.End {
		t.Fatal("At did not clamp")
	}
	if geo.Distance(r.At(0), r.Start) != 0 {
		t.Fatal("At(0) not start")
	}
}

func TestProgressWithTickLongerThanDuration(t *testing.T) {
	p := NewProgress(Route{End: pickup}, 50*time.Millisecond, time.Second)
	pos, done := p.Advance()
	if !done || pos != pickup {
		t.Fatalf("single step should finish: %v %v", pos, done)
	}
}

func TestProgressCurrentFollowsAdvance(t *testing.T) {
	r := RouteFor(models.RoleDriver, pickup, nil)
	p := NewProgress(r, time.Second, 500*time.Millisecond)
	if p.Current() != r.Start {
		t.Fatalf("current before first tick = %v", p.Current())
	}
	pos, _ := p.Advance()
	if p.Current() != pos {
		t.Fatalf("current %v != advanced %v", p.Current(), pos)
	}
	p.Advance()
	if p.Current() != r.End {
		t.Fatalf("current after end = %v", p.Current())
	}
}
