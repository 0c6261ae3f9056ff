package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/carpool-matching/internal/models"
)

func TestFindMatchesReturnsCounterparts(t *testing.T) {
	c := NewSimulatedClient(0)
	drivers, err := c.FindMatches(context.Background(), models.RideRequest{Role: models.RoleRider})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(drivers) == 0 {
		t.Fatal("no drivers")
	}
	for _, d := range drivers {
		if d.Role != models.RoleDriver || d.Price == nil {
			t.Fatalf("unexpected candidate %+v", d)
		}
	}
	riders, err := c.FindMatches(context.Background(), models.RideRequest{Role: models.RoleDriver})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	for _, r := range riders {
		if r.Role != models.RoleRider || r.Price != nil {
			t.Fatalf("unexpected candidate %+v", r)
		}
	}
}

func TestFindMatchesHonoursContext(t *testing.T) {
	c := NewSimulatedClient(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.FindMatches(ctx, models.RideRequest{Role: models.RoleRider})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestFindMatchesReturnsFreshCopies(t *testing.T) {
	c := NewSimulatedClient(0)
	a, _ := c.FindMatches(context.Background(), models.RideRequest{Role: models.RoleRider})
	*a[0].Price = 100
	b, _ := c.FindMatches(context.Background(), models.RideRequest{Role: models.RoleRider})
	if *b[0].Price == 100 {
		t.Fatal("results share state between calls")
	}
}

func TestLateMatchByRole(t *testing.T) {
	c := NewSimulatedClient(0)
	d, ok := c.LateMatch(models.RoleRider)
	if !ok || d.Role != models.RoleDriver || d.ID != "m-new" {
		t.Fatalf("late driver %+v", d)
	}
	r, ok := c.LateMatch(models.RoleDriver)
	if !ok || r.Role != models.RoleRider || r.ID != "p-new" {
		t.Fatalf("late rider %+v", r)
	}
	if _, ok := c.LateMatch("PILOT"); ok {
		t.Fatal("unknown role produced a late match")
	}
}

type fakeSource map[models.Role][]models.MatchCandidate

func (f fakeSource) View(role models.Role) []models.MatchCandidate { return f[role] }

func TestFindMatchesUsesSource(t *testing.T) {
	c := &SimulatedClient{Source: fakeSource{
		models.RoleRider: {{ID: "r1", Role: models.RoleRider}},
	}}
	got, err := c.FindMatches(context.Background(), models.RideRequest{Role: models.RoleDriver})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 1 || got[0].ID != "r1" {
		t.Fatalf("got %+v", got)
	}
}

func TestFindMatchesSkipsRequesterPosts(t *testing.T) {
	c := &SimulatedClient{Source: fakeSource{
		models.RoleDriver: {
			{ID: "driver-own", Role: models.RoleDriver, User: models.UserProfile{ID: "u0"}},
			{ID: "m1", Role: models.RoleDriver, User: models.UserProfile{ID: "u1"}},
		},
	}}
	got, err := c.FindMatches(context.Background(), models.RideRequest{Role: models.RoleRider, RequesterID: "u0"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 1 || got[0].ID != "m1" {
		t.Fatalf("got %+v", got)
	}
}
