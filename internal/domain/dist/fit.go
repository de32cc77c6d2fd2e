package dist

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// Fit configuration constants.
const (
	maxFitIterations = 5000
	convergeAbsTol   = 1e-10
	convergeIters    = 250
)

// FitResult is the outcome of a maximum-likelihood fit.
type FitResult struct {
	Dist   *NIG
	Params Params

	// TopScaleReset reports that the survival function at the fastest
	// time came out non-positive and TopScale was reset to 1. The fit
	// itself is still usable; callers should surface a warning.
	TopScaleReset bool
}

// Fit fits a Normal-Inverse-Gaussian distribution to times (ascending)
// by maximum likelihood. seed, when non-nil, warm-starts the optimizer
// from a previously converged parameter set; its TopScale field is
// ignored. TopScale of the returned params is the survival function at
// times[0].
//
// Optimizer failure is returned as an error and is fatal for the batch
// that requested the fit.
func Fit(times []float64, seed *Params) (FitResult, error) {
	if len(times) == 0 {
		return FitResult{}, ErrEmptySample
	}

	x0 := startingPoint(times, seed)

	problem := optimize.Problem{
		Func: func(u []float64) float64 { return negLogLikelihood(times, u) },
	}
	settings := &optimize.Settings{
		MajorIterations: maxFitIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   convergeAbsTol,
			Iterations: convergeIters,
		},
	}

	res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil {
		return FitResult{}, fmt.Errorf("%w: %w", ErrFitFailed, err)
	}

	a, b, loc, scale := fromUnconstrained(res.X)
	d, err := New(a, b, loc, scale)
	if err != nil {
		return FitResult{}, fmt.Errorf("%w: %w", ErrFitFailed, err)
	}

	out := FitResult{
		Dist:   d,
		Params: Params{A: a, B: b, Loc: loc, Scale: scale},
	}
	out.Params.TopScale, out.TopScaleReset = normalizeTopScale(d.SF(times[0]))
	return out, nil
}

// normalizeTopScale guards against a numerically degenerate fit: a
// non-positive survival value at the fastest time is reset to 1 so the
// normalization stays usable. The reset is reported, never fatal.
func normalizeTopScale(topScale float64) (float64, bool) {
	if topScale <= 0 || math.IsNaN(topScale) {
		return 1, true
	}
	return topScale, false
}

// The optimizer runs over an unconstrained reparameterization:
//
//	a = e^{u0}, b = a*tanh(u1), loc = u2, scale = e^{u3}
//
// which keeps a > 0, |b| < a and scale > 0 without penalty terms.

func fromUnconstrained(u []float64) (a, b, loc, scale float64) {
	a = math.Exp(u[0])
	r := math.Tanh(u[1])
	// tanh saturates to exactly +-1 in float64; keep |b| strictly below a.
	if r >= 1 {
		r = 1 - 1e-12
	} else if r <= -1 {
		r = -(1 - 1e-12)
	}
	b = a * r
	loc = u[2]
	scale = math.Exp(u[3])
	return a, b, loc, scale
}

func toUnconstrained(a, b, loc, scale float64) []float64 {
	r := b / a
	// atanh is singular at +-1; keep the seed strictly inside.
	if r > 0.999999 {
		r = 0.999999
	} else if r < -0.999999 {
		r = -0.999999
	}
	return []float64{math.Log(a), math.Atanh(r), loc, math.Log(scale)}
}

// startingPoint builds the optimizer's initial guess: the previous
// parameters when warm-starting, moment heuristics otherwise.
func startingPoint(times []float64, seed *Params) []float64 {
	if seed != nil && seed.A > 0 && math.Abs(seed.B) < seed.A && seed.Scale > 0 {
		return toUnconstrained(seed.A, seed.B, seed.Loc, seed.Scale)
	}
	mean := stat.Mean(times, nil)
	sd := stat.StdDev(times, nil)
	if !(sd > 0) || math.IsNaN(sd) {
		sd = 1e-6
	}
	// Cold-start shapes a=1, b=0.5 mirror the generic fit heuristic the
	// stored parameters were originally produced with.
	return toUnconstrained(1.0, 0.5, mean, sd)
}

// negLogLikelihood evaluates the NLL at an unconstrained point. Points
// where the likelihood is not finite get +Inf so the simplex walks away
// from them.
func negLogLikelihood(times []float64, u []float64) float64 {
	a, b, loc, scale := fromUnconstrained(u)
	if math.IsInf(a, 0) || math.IsInf(scale, 0) || a == 0 || scale == 0 {
		return math.Inf(1)
	}
	d := &NIG{A: a, B: b, Loc: loc, Scale: scale, gamma: math.Sqrt(a*a - b*b)}
	var nll float64
	for _, t := range times {
		nll -= d.LogPDF(t)
	}
	if math.IsNaN(nll) {
		return math.Inf(1)
	}
	return nll
}
