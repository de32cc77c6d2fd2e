package dist_test

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/kzero/skillpoints/internal/domain/dist"
	. "github.com/smartystreets/goconvey/convey"
)

// syntheticTimes builds a deterministic, right-skewed completion-time
// sample, sorted ascending, the shape leaderboards actually have.
func syntheticTimes(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	times := make([]float64, n)
	for i := range times {
		times[i] = 8.0 + rng.ExpFloat64()*1.5 + rng.Float64()*0.25
	}
	sort.Float64s(times)
	return times
}

func TestFit(t *testing.T) {
	Convey("Given an ascending sample of completion times", t, func() {
		times := syntheticTimes(200, 1)

		Convey("When fitting cold", func() {
			res, err := dist.Fit(times, nil)

			Convey("Then the fit should converge to valid parameters", func() {
				So(err, ShouldBeNil)
				So(res.Dist, ShouldNotBeNil)
				So(res.Params.A, ShouldBeGreaterThan, 0)
				So(math.Abs(res.Params.B), ShouldBeLessThan, res.Params.A)
				So(res.Params.Scale, ShouldBeGreaterThan, 0)
			})

			Convey("Then top_scale should anchor the fastest time near 1", func() {
				So(err, ShouldBeNil)
				So(res.Params.TopScale, ShouldBeGreaterThan, 0)
				So(res.Params.TopScale, ShouldBeLessThanOrEqualTo, 1)
				So(res.TopScaleReset, ShouldBeFalse)
				So(res.Dist.SF(times[0])/res.Params.TopScale, ShouldAlmostEqual, 1.0, 1e-9)
			})

			Convey("Then the fitted location should sit near the sample bulk", func() {
				So(err, ShouldBeNil)
				So(res.Params.Loc, ShouldBeGreaterThan, times[0]-5)
				So(res.Params.Loc, ShouldBeLessThan, times[len(times)-1]+5)
			})
		})

		Convey("When warm-starting from a previous converged fit", func() {
			cold, err := dist.Fit(times, nil)
			So(err, ShouldBeNil)

			warm, err := dist.Fit(times, &cold.Params)
			So(err, ShouldBeNil)

			Convey("Then both fits should agree within numerical tolerance", func() {
				So(warm.Params.TopScale, ShouldAlmostEqual, cold.Params.TopScale, 0.02)
				for _, x := range []float64{times[0], times[len(times)/2], times[len(times)-1]} {
					So(warm.Dist.SF(x), ShouldAlmostEqual, cold.Dist.SF(x), 0.02)
				}
			})
		})

		Convey("When warm-starting from garbage parameters", func() {
			bad := &dist.Params{A: -3, B: 9, Scale: -1}
			res, err := dist.Fit(times, bad)

			Convey("Then the seed should be ignored and the fit should still converge", func() {
				So(err, ShouldBeNil)
				So(res.Params.A, ShouldBeGreaterThan, 0)
			})
		})
	})

	Convey("Given an empty sample", t, func() {
		_, err := dist.Fit(nil, nil)

		Convey("Then fitting should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
