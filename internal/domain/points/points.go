// Package points computes normalized skill-points fractions for timed
// completion records.
//
// A leaderboard with at least SmallLeaderboardThreshold records is
// scored against its fitted distribution's survival function; smaller
// leaderboards fall back to a tier-steepened logistic curve anchored at
// the world-record time.
package points

import (
	"math"

	"github.com/kzero/skillpoints/internal/domain/dist"
)

// SmallLeaderboardThreshold is the record count below which fitting is
// statistically unreliable and the sigmoid fallback governs.
const SmallLeaderboardThreshold = 50

// SmallLeaderboardFraction is the closed-form fallback curve. A run at
// exactly the world-record time scores 1.0; higher tiers drop off more
// steeply per unit of relative slowdown. Requires wr > 0.
func SmallLeaderboardFraction(time, wr float64, tier int) float64 {
	k := 2.1 - 0.25*float64(tier)
	return (1 + math.Exp(-0.5*k)) / (1 + math.Exp(k*(time/wr-1.5)))
}

// Method is a points-fraction function selected once per leaderboard
// and then applied uniformly: either the sigmoid fallback or a fitted
// distribution's normalized survival function.
type Method struct {
	dist     *dist.NIG // nil means fallback
	topScale float64
	wr       float64
	tier     int
	size     int
}

// ForLeaderboard selects the scoring method for one leaderboard.
//
// d may be nil even when size suggests otherwise (a small governing
// leaderboard passes zero parameters around); a nil distribution always
// routes to the fallback rather than dereferencing them.
func ForLeaderboard(d *dist.NIG, topScale, wr float64, tier, size int) Method {
	return Method{dist: d, topScale: topScale, wr: wr, tier: tier, size: size}
}

// Fitted reports whether the method scores via a fitted distribution.
func (m Method) Fitted() bool {
	return m.dist != nil && m.size >= SmallLeaderboardThreshold
}

// Fraction maps one completion time to a points fraction in [0, 1].
func (m Method) Fraction(time float64) float64 {
	if !m.Fitted() {
		return SmallLeaderboardFraction(time, m.wr, m.tier)
	}
	f := m.dist.SF(time) / m.topScale
	// Clip floating-point overshoot from the top_scale division.
	return math.Max(0, math.Min(1, f))
}

// Fractions maps a whole leaderboard's times in one pass.
func (m Method) Fractions(times []float64) []float64 {
	out := make([]float64, len(times))
	for i, t := range times {
		out[i] = m.Fraction(t)
	}
	return out
}
