// Package tracking simulates the vehicle position after a ride is confirmed.
package tracking

import (
	"time"

	"github.com/example/carpool-matching/internal/geo"
	"github.com/example/carpool-matching/internal/models"
)

// FallbackOffset is added to both axes of the requester's origin when the
// counterpart's coordinate is unknown.
const FallbackOffset = 0.02

type Route struct {
	Start models.Coord `json:"start"`
	End   models.Coord `json:"end"`
}

// RouteFor picks the direction of travel for role. A rider watches the
// driver come from the driver's origin to self; a driver moves from self
// to the passenger.
func RouteFor(role models.Role, self models.Coord, counterpart *models.Coord) Route {
	other := models.Coord{Lat: self.Lat + FallbackOffset, Lon: self.Lon + FallbackOffset}
	if counterpart != nil {
		other = *counterpart
	}
	if role == models.RoleRider {
		return Route{Start: other, End: self}
	}
	return Route{Start: self, End: other}
}

// At returns the position at progress in [0, 1]; progress at or past 1 is
// exactly End.
func (r Route) At(progress float64) models.Coord {
	if progress >= 1 {
		return r.End
	}
	return geo.Lerp(r.Start, r.End, progress)
}

// Remaining is the straight-line distance in meters from pos to End.
func (r Route) Remaining(pos models.Coord) float64 {
	return geo.Distance(pos, r.End)
}

// Progress steps along a route in fixed ticks over a fixed duration.
type Progress struct {
	route Route
	steps int
	step  int
}

func NewProgress(route Route, duration, tick time.Duration) *Progress {
	steps := 1
	if tick > 0 && duration > tick {
		steps = int((duration + tick - 1) / tick)
	}
	return &Progress{route: route, steps: steps}
}

// Advance moves one tick and reports whether the end has been reached.
// Calls after the end keep returning End.
func (p *Progress) Advance() (models.Coord, bool) {
	if p.step < p.steps {
		p.step++
	}
	if p.step >= p.steps {
		return p.route.End, true
	}
	return p.route.At(float64(p.step) / float64(p.steps)), false
}

func (p *Progress) Current() models.Coord {
	if p.step >= p.steps {
		return p.route.End
	}
	return p.route.At(float64(p.step) / float64(p.steps))
}

func (p *Progress) Route() Route { return p.route }

func (p *Progress) Steps() int { return p.steps }
