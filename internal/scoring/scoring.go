package scoring

import (
	"math"
	"math/rand"
	"sync"

	"github.com/example/carpool-matching/internal/models"
)

const (
	// MinScore and MaxScore bound a re-scored candidate.
	MinScore = 60
	MaxScore = 99
	// jitter is the half-width of the uniform offset applied to the base score.
	jitter = 5.0
)

// Engine re-scores candidates for a request. The candidate's existing score
// is the server-side composite; each request perturbs it so rankings stay live.
type Engine struct {
	mu   sync.Mutex
	rand func() float64 // uniform in [0, 1)
}

// NewEngine returns an engine driven by a seeded PRNG.
func NewEngine(seed int64) *Engine {
	r := rand.New(rand.NewSource(seed))
	return &Engine{rand: r.Float64}
}

// NewEngineWithSource uses f as the uniform [0, 1) source.
func NewEngineWithSource(f func() float64) *Engine {
	return &Engine{rand: f}
}

// Score returns a copy of c with MatchScore recomputed for req.
func (e *Engine) Score(req models.RideRequest, c models.MatchCandidate) models.MatchCandidate {
	e.mu.Lock()
	u := e.rand()
	e.mu.Unlock()

	offset := u*2*jitter - jitter
	out := c.Clone()
	out.MatchScore = clamp(float64(c.MatchScore) + offset)
	return out
}

// ScoreAll scores every candidate, preserving input order.
func (e *Engine) ScoreAll(req models.RideRequest, cands []models.MatchCandidate) []models.MatchCandidate {
	out := make([]models.MatchCandidate, 0, len(cands))
	for _, c := range cands {
		out = append(out, e.Score(req, c))
	}
	return out
}

func clamp(v float64) int {
	v = math.Min(MaxScore, math.Max(MinScore, v))
	return int(math.Round(v))
}
