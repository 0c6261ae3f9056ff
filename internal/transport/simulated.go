// Package transport provides the match discovery backend used by sessions.
package transport

import (
	"context"
	"time"

	"github.com/example/carpool-matching/internal/models"
	"github.com/example/carpool-matching/internal/pool"
	"github.com/example/carpool-matching/internal/seed"
)

// CandidateSource lists the standing posts of one role.
type CandidateSource interface {
	View(role models.Role) []models.MatchCandidate
}

// SimulatedClient answers after a fixed latency, from Source when set and
// from seed data otherwise.
type SimulatedClient struct {
	Latency time.Duration
	Source  CandidateSource
}

func NewSimulatedClient(latency time.Duration) *SimulatedClient {
	return &SimulatedClient{Latency: latency}
}

// FindMatches returns the counterpart posts for req.Role: drivers for a
// rider, riders for a driver.
func (c *SimulatedClient) FindMatches(ctx context.Context, req models.RideRequest) ([]models.MatchCandidate, error) {
	if c.Latency > 0 {
		t := time.NewTimer(c.Latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := req.Role.Counterpart()
	if c.Source != nil {
		return pool.WithoutUser(c.Source.View(want), req.RequesterID), nil
	}
	if want == models.RoleRider {
		return seed.Riders(), nil
	}
	return seed.Drivers(), nil
}

// LateMatch is the one counterpart that shows up after results for role.
func (c *SimulatedClient) LateMatch(role models.Role) (models.MatchCandidate, bool) {
	switch role {
	case models.RoleRider:
		return seed.LateDriver(), true
	case models.RoleDriver:
		return seed.LateRider(), true
	}
	return models.MatchCandidate{}, false
}
