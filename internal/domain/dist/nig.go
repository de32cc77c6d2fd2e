// Package dist implements the Normal-Inverse-Gaussian distribution used
// to model leaderboard completion times, and its maximum-likelihood
// fitter.
//
// The parameterization matches the one the stored parameters were
// produced with: shape parameters a and b (a > 0, |b| < a) plus location
// and scale. The standardized density is
//
//	a * K1(a*sqrt(1+y^2)) * exp(g + b*y) / (pi * sqrt(1+y^2))
//
// with g = sqrt(a^2 - b^2) and K1 the modified Bessel function of the
// second kind. There is no closed-form CDF; tail probabilities are
// computed by Gauss-Legendre quadrature over a compactified half-line.
package dist

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// quadNodes is the Gauss-Legendre node count for tail integrals.
const quadNodes = 160

// Params is a stored parameter set for one leaderboard's fitted
// distribution. TopScale is the survival function evaluated at the
// fastest recorded time and normalizes fractions so the best run maps
// to ~1.
type Params struct {
	A        float64 `json:"a"`
	B        float64 `json:"b"`
	Loc      float64 `json:"loc"`
	Scale    float64 `json:"scale"`
	TopScale float64 `json:"top_scale"`
}

// NIG is a Normal-Inverse-Gaussian distribution.
type NIG struct {
	A, B, Loc, Scale float64

	gamma float64 // sqrt(A^2 - B^2), cached
}

// New validates the parameters and returns the distribution.
func New(a, b, loc, scale float64) (*NIG, error) {
	switch {
	case !(a > 0) || math.IsInf(a, 0):
		return nil, fmt.Errorf("%w: a must be positive, got %v", ErrInvalidParams, a)
	case math.Abs(b) >= a || math.IsNaN(b):
		return nil, fmt.Errorf("%w: need |b| < a, got a=%v b=%v", ErrInvalidParams, a, b)
	case !(scale > 0) || math.IsInf(scale, 0):
		return nil, fmt.Errorf("%w: scale must be positive, got %v", ErrInvalidParams, scale)
	case math.IsNaN(loc) || math.IsInf(loc, 0):
		return nil, fmt.Errorf("%w: loc must be finite, got %v", ErrInvalidParams, loc)
	}
	return &NIG{A: a, B: b, Loc: loc, Scale: scale, gamma: math.Sqrt(a*a - b*b)}, nil
}

// FromParams reconstructs a distribution from a stored parameter set.
// TopScale is carried by the caller; only the four shape/location/scale
// fields matter here.
func FromParams(p Params) (*NIG, error) {
	return New(p.A, p.B, p.Loc, p.Scale)
}

// logPDFStd is the log density of the standardized (loc=0, scale=1)
// distribution. Computed with the exponentially scaled K1 so large |y|
// underflows gracefully instead of producing 0*Inf.
func (d *NIG) logPDFStd(y float64) float64 {
	s := math.Sqrt(1 + y*y)
	w := d.A * s
	return math.Log(d.A) + math.Log(besselK1Scaled(w)) - w +
		d.gamma + d.B*y - math.Log(math.Pi) - math.Log(s)
}

// LogPDF returns the log density at x.
func (d *NIG) LogPDF(x float64) float64 {
	y := (x - d.Loc) / d.Scale
	return d.logPDFStd(y) - math.Log(d.Scale)
}

// PDF returns the density at x.
func (d *NIG) PDF(x float64) float64 {
	return math.Exp(d.LogPDF(x))
}

// pdfStd is the standardized density.
func (d *NIG) pdfStd(y float64) float64 {
	return math.Exp(d.logPDFStd(y))
}

// tailStd integrates the standardized density over (y, +inf) when dir
// is +1, or (-inf, y) when dir is -1, via the substitution
// t = y + dir*u/(1-u), u in [0, 1).
func (d *NIG) tailStd(y, dir float64) float64 {
	f := func(u float64) float64 {
		r := 1 - u
		v := d.pdfStd(y + dir*u/r)
		if v == 0 {
			return 0
		}
		return v / (r * r)
	}
	p := quad.Fixed(f, 0, 1, quadNodes, nil, 0)
	// Quadrature overshoot on near-total mass.
	return math.Max(0, math.Min(1, p))
}

// CDF returns P(X <= x).
func (d *NIG) CDF(x float64) float64 {
	return 1 - d.SF(x)
}

// SF returns the survival function P(X > x), the raw points signal.
// Non-increasing in x.
func (d *NIG) SF(x float64) float64 {
	y := (x - d.Loc) / d.Scale
	// Integrate the shorter tail and complement for the other one; the
	// standardized mean b/gamma splits the mass well enough.
	if y < d.B/d.gamma {
		return 1 - d.tailStd(y, -1)
	}
	return d.tailStd(y, +1)
}
