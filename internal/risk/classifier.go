package risk

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/KaramelBytes/fleetrisk-cli/internal/machine"
)

// Mode selects how a score is placed inside its band.
type Mode string

const (
	// ModeRandom draws score and confidence uniformly from their ranges.
	ModeRandom Mode = "random"
	// ModeDeterministic interpolates the total risk index inside the band.
	ModeDeterministic Mode = "deterministic"
)

// ParseMode resolves a user-supplied scoring mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "random":
		return ModeRandom, nil
	case "deterministic", "fixed":
		return ModeDeterministic, nil
	default:
		return "", fmt.Errorf("invalid scoring mode: %s (use random or deterministic)", s)
	}
}

// Source yields uniform values in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// lockedSource serializes access to a rand.Rand so one classifier can be shared by
// concurrent callers.
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// NewSeededSource returns a goroutine-safe Source. A zero seed uses the current time.
func NewSeededSource(seed int64) Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedSource{r: rand.New(rand.NewSource(seed))}
}

// Classifier assigns risk levels and scores to machine records.
type Classifier struct {
	mode Mode
	src  Source
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithSource draws random scores from src.
func WithSource(src Source) Option {
	return func(c *Classifier) { c.src = src }
}

// WithSeed draws random scores from a generator seeded with seed.
func WithSeed(seed int64) Option {
	return func(c *Classifier) { c.src = NewSeededSource(seed) }
}

// WithMode sets the scoring mode.
func WithMode(m Mode) Option {
	return func(c *Classifier) { c.mode = m }
}

// New returns a Classifier in random mode with a time-seeded source unless
// options say otherwise. Any mode other than deterministic draws from a source.
func New(opts ...Option) *Classifier {
	c := &Classifier{mode: ModeRandom}
	for _, opt := range opts {
		opt(c)
	}
	if c.src == nil && c.mode != ModeDeterministic {
		c.src = NewSeededSource(0)
	}
	return c
}

// Mode reports the scoring mode in use.
func (c *Classifier) Mode() Mode { return c.mode }

// Classify scores one record. The level depends only on the readings.
func (c *Classifier) Classify(r machine.Record) machine.Scored {
	a := Assess(r)
	b := BandFor(a.Total)
	var score, conf float64
	if c.mode == ModeDeterministic {
		score, conf = interpolate(b, a.Total)
	} else {
		score = uniform(b.Min, b.Max, c.src.Float64())
		conf = uniform(ConfidenceMin, ConfidenceMax, c.src.Float64())
	}
	return machine.Scored{
		Record:               r,
		RiskLevel:            b.Level,
		RiskScore:            score,
		PredictionConfidence: conf,
		TotalRisk:            a.Total,
	}
}

// ClassifyAll scores records in order.
func (c *Classifier) ClassifyAll(recs []machine.Record) []machine.Scored {
	out := make([]machine.Scored, len(recs))
	for i, r := range recs {
		out[i] = c.Classify(r)
	}
	return out
}

// uniform maps u in [0, 1) onto [lo, hi). Rounding can land exactly on hi for u
// close to 1, so the result is pulled back below it.
func uniform(lo, hi, u float64) float64 {
	v := lo + (hi-lo)*u
	if v >= hi {
		v = math.Nextafter(hi, lo)
	}
	return v
}

// interpolate places total inside the band: each band spans two totals, so the
// fraction is 0 at the band floor and 0.5 one step above it.
func interpolate(b Band, total int) (score, conf float64) {
	frac := float64(total-b.Floor) / 2
	if frac > 0.5 {
		frac = 0.5
	}
	score = b.Min + (b.Max-b.Min)*frac
	conf = 0.97 - 0.06*frac
	return score, conf
}
