// Package pool holds the community posts: drivers offering seats and riders
// looking for one. Posts are kept most-recent-first.
package pool

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/example/carpool-matching/internal/models"
	"github.com/example/carpool-matching/internal/observability"
	"github.com/example/carpool-matching/internal/timewindow"
)

type SortCriterion string

const (
	SortRecommended SortCriterion = "RECOMMENDED"
	SortPriceAsc    SortCriterion = "PRICE_ASC"
	SortPriceDesc   SortCriterion = "PRICE_DESC"
	SortTimeAsc     SortCriterion = "TIME_ASC"
	SortTimeDesc    SortCriterion = "TIME_DESC"
	SortDetourAsc   SortCriterion = "DETOUR_ASC"
)

func (c SortCriterion) Valid() bool {
	switch c {
	case SortRecommended, SortPriceAsc, SortPriceDesc, SortTimeAsc, SortTimeDesc, SortDetourAsc:
		return true
	}
	return false
}

// Feed mirrors published posts outside the process.
type Feed interface {
	Push(ctx context.Context, c models.MatchCandidate) error
	Load(ctx context.Context, role models.Role) ([]models.MatchCandidate, error)
}

type Pool struct {
	mu      sync.RWMutex
	drivers []models.MatchCandidate
	riders  []models.MatchCandidate
	feed    Feed
	limit   int // per role; 0 keeps everything
}

// New seeds the pool; seeds keep their given order.
func New(drivers, riders []models.MatchCandidate) *Pool {
	return &Pool{drivers: cloneAll(drivers), riders: cloneAll(riders)}
}

// WithFeed makes Publish also push to f.
func (p *Pool) WithFeed(f Feed) *Pool {
	p.mu.Lock()
	p.feed = f
	p.mu.Unlock()
	return p
}

// WithCap bounds each role's pool to n posts, dropping the oldest first. It
// matches the trim RedisFeed applies so a restart shows the same feed.
func (p *Pool) WithCap(n int) *Pool {
	p.mu.Lock()
	p.limit = n
	p.drivers = p.trim(p.drivers)
	p.riders = p.trim(p.riders)
	p.mu.Unlock()
	return p
}

func (p *Pool) trim(items []models.MatchCandidate) []models.MatchCandidate {
	if p.limit <= 0 || len(items) <= p.limit {
		return items
	}
	return items[:p.limit:p.limit]
}

// Publish prepends c to the pool of its role. The in-memory insert always
// happens; a feed error is returned after it.
func (p *Pool) Publish(ctx context.Context, c models.MatchCandidate) error {
	if !c.Role.Valid() {
		return fmt.Errorf("publish %s: invalid role %q", c.ID, c.Role)
	}
	c = c.Clone()
	p.mu.Lock()
	if c.Role == models.RoleDriver {
		p.drivers = p.trim(prepend(p.drivers, c))
	} else {
		p.riders = p.trim(prepend(p.riders, c))
	}
	feed := p.feed
	p.mu.Unlock()
	observability.PostsPublished.WithLabelValues(string(c.Role)).Inc()

	if feed != nil {
		if err := feed.Push(ctx, c); err != nil {
			return fmt.Errorf("publish %s to feed: %w", c.ID, err)
		}
	}
	return nil
}

// Hydrate prepends the feed's posts for both roles, oldest first, so the
// newest mirrored post ends up at the head.
func (p *Pool) Hydrate(ctx context.Context, f Feed) (int, error) {
	n := 0
	for _, role := range []models.Role{models.RoleDriver, models.RoleRider} {
		posts, err := f.Load(ctx, role)
		if err != nil {
			return n, fmt.Errorf("hydrate %s posts: %w", role, err)
		}
		p.mu.Lock()
		for i := len(posts) - 1; i >= 0; i-- {
			if posts[i].Role != role {
				continue
			}
			if role == models.RoleDriver {
				p.drivers = prepend(p.drivers, posts[i])
			} else {
				p.riders = prepend(p.riders, posts[i])
			}
			n++
		}
		p.drivers = p.trim(p.drivers)
		p.riders = p.trim(p.riders)
		p.mu.Unlock()
	}
	return n, nil
}

// View returns a copy of the posts of one role.
func (p *Pool) View(role models.Role) []models.MatchCandidate {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if role == models.RoleRider {
		return cloneAll(p.riders)
	}
	return cloneAll(p.drivers)
}

type Query struct {
	View     models.Role
	Text     string
	MaxPrice *float64
	SortBy   SortCriterion
}

// List applies search, price filter and sort over a snapshot of one pool.
func (p *Pool) List(q Query) []models.MatchCandidate {
	items := Search(p.View(q.View), q.Text)
	if q.MaxPrice != nil {
		items = FilterByMaxPrice(items, q.View, *q.MaxPrice)
	}
	return Sort(items, q.SortBy)
}

// Search matches query case-insensitively against origin, destination and
// the poster's name. An empty query matches everything.
func Search(items []models.MatchCandidate, query string) []models.MatchCandidate {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.MatchCandidate, 0, len(items))
	for _, c := range items {
		if q == "" ||
			strings.Contains(strings.ToLower(c.Origin), q) ||
			strings.Contains(strings.ToLower(c.Destination), q) ||
			strings.Contains(strings.ToLower(c.User.Name), q) {
			out = append(out, c)
		}
	}
	return out
}

// WithoutUser drops the posts made by userID. An empty userID keeps everything.
func WithoutUser(items []models.MatchCandidate, userID string) []models.MatchCandidate {
	if userID == "" {
		return items
	}
	out := make([]models.MatchCandidate, 0, len(items))
	for _, c := range items {
		if c.User.ID != userID {
			out = append(out, c)
		}
	}
	return out
}

// FilterByMaxPrice only applies to the driver view; unpriced posts always pass.
func FilterByMaxPrice(items []models.MatchCandidate, view models.Role, maxPrice float64) []models.MatchCandidate {
	out := make([]models.MatchCandidate, 0, len(items))
	for _, c := range items {
		if view == models.RoleDriver && c.Price != nil && *c.Price > maxPrice {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Sort returns a stably sorted copy; ties keep their prior order. Unknown
// criteria fall back to RECOMMENDED.
func Sort(items []models.MatchCandidate, by SortCriterion) []models.MatchCandidate {
	out := make([]models.MatchCandidate, len(items))
	copy(out, items)

	var less func(a, b models.MatchCandidate) bool
	switch by {
	case SortPriceAsc:
		less = func(a, b models.MatchCandidate) bool { return a.PriceOrZero() < b.PriceOrZero() }
	case SortPriceDesc:
		less = func(a, b models.MatchCandidate) bool { return a.PriceOrZero() > b.PriceOrZero() }
	case SortTimeAsc:
		less = func(a, b models.MatchCandidate) bool {
			return timewindow.Minutes(a.DepartureTime) < timewindow.Minutes(b.DepartureTime)
		}
	case SortTimeDesc:
		less = func(a, b models.MatchCandidate) bool {
			return timewindow.Minutes(a.DepartureTime) > timewindow.Minutes(b.DepartureTime)
		}
	case SortDetourAsc:
		less = func(a, b models.MatchCandidate) bool { return a.DetourMinutes < b.DetourMinutes }
	default:
		less = func(a, b models.MatchCandidate) bool { return a.MatchScore > b.MatchScore }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func prepend(items []models.MatchCandidate, c models.MatchCandidate) []models.MatchCandidate {
	out := make([]models.MatchCandidate, 0, len(items)+1)
	out = append(out, c)
	return append(out, items...)
}

func cloneAll(items []models.MatchCandidate) []models.MatchCandidate {
	out := make([]models.MatchCandidate, len(items))
	for i, c := range items {
		out[i] = c.Clone()
	}
	return out
}
