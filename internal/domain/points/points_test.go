package points_test

import (
	"math"
	"testing"

	"github.com/kzero/skillpoints/internal/domain/dist"
	"github.com/kzero/skillpoints/internal/domain/points"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSmallLeaderboardFraction(t *testing.T) {
	Convey("Given the sigmoid fallback curve", t, func() {
		Convey("Then a run at the world record should score exactly 1", func() {
			for tier := 1; tier <= 8; tier++ {
				So(points.SmallLeaderboardFraction(10.0, 10.0, tier), ShouldAlmostEqual, 1.0, 1e-12)
			}
		})

		Convey("Then it should match the closed form", func() {
			refs := []struct {
				tier int
				rel  float64
				want float64
			}{
				{1, 1.2, 0.8872092174558136},
				{1, 2.0, 0.3965314190749929},
				{1, 3.0, 0.08196267336746473},
				{3, 1.2, 0.9053253835188928},
				{3, 1.5, 0.7545782103037746},
				{7, 1.5, 0.9197285103846037},
				{7, 3.0, 0.6836963969463485},
			}
			for _, ref := range refs {
				got := points.SmallLeaderboardFraction(ref.rel*10.0, 10.0, ref.tier)
				So(got, ShouldAlmostEqual, ref.want, 1e-12)
			}
		})

		Convey("Then it should be non-increasing in time", func() {
			for tier := 1; tier <= 8; tier++ {
				prev := math.Inf(1)
				for rel := 1.0; rel <= 5.0; rel += 0.1 {
					f := points.SmallLeaderboardFraction(rel*7.5, 7.5, tier)
					So(f, ShouldBeLessThanOrEqualTo, prev)
					prev = f
				}
			}
		})

		Convey("Then higher tiers should drop off more steeply near the record", func() {
			// Steeper curve means a bigger share kept at moderate slowdown.
			slow := 1.5
			low := points.SmallLeaderboardFraction(slow*10, 10, 1)
			high := points.SmallLeaderboardFraction(slow*10, 10, 7)
			So(high, ShouldBeGreaterThan, low)
		})
	})
}

func TestMethodDispatch(t *testing.T) {
	Convey("Given a fitted distribution and its top_scale", t, func() {
		d, err := dist.New(1.5, 0.7, 10.0, 2.0)
		So(err, ShouldBeNil)
		wr := 8.0
		topScale := d.SF(wr)

		Convey("When the leaderboard is exactly at the fit threshold", func() {
			m := points.ForLeaderboard(d, topScale, wr, 3, 50)

			Convey("Then scoring should use the fitted distribution", func() {
				So(m.Fitted(), ShouldBeTrue)
				So(m.Fraction(wr), ShouldAlmostEqual, 1.0, 1e-9)
				So(m.Fraction(12.0), ShouldAlmostEqual, math.Min(1, d.SF(12.0)/topScale), 1e-12)
			})
		})

		Convey("When the leaderboard is one short of the threshold", func() {
			m := points.ForLeaderboard(d, topScale, wr, 3, 49)

			Convey("Then scoring should fall back to the sigmoid", func() {
				So(m.Fitted(), ShouldBeFalse)
				So(m.Fraction(12.0), ShouldAlmostEqual, points.SmallLeaderboardFraction(12.0, wr, 3), 1e-12)
			})
		})

		Convey("When the distribution is nil despite a large size", func() {
			// A small governing leaderboard hands over zeroed parameters
			// and no distribution; they must never be dereferenced.
			m := points.ForLeaderboard(nil, 0, wr, 3, 120)

			Convey("Then scoring should fall back to the sigmoid", func() {
				So(m.Fitted(), ShouldBeFalse)
				So(m.Fraction(12.0), ShouldAlmostEqual, points.SmallLeaderboardFraction(12.0, wr, 3), 1e-12)
			})
		})

		Convey("When scoring a whole leaderboard at once", func() {
			m := points.ForLeaderboard(d, topScale, wr, 3, 60)
			times := []float64{8.0, 9.5, 10.0, 13.0, 17.5}

			Convey("Then batch results should equal scalar results", func() {
				got := m.Fractions(times)
				So(len(got), ShouldEqual, len(times))
				for i, tm := range times {
					So(got[i], ShouldEqual, m.Fraction(tm))
				}
			})

			Convey("Then every fraction should lie in [0, 1]", func() {
				for _, f := range m.Fractions(times) {
					So(f, ShouldBeGreaterThanOrEqualTo, 0)
					So(f, ShouldBeLessThanOrEqualTo, 1)
				}
			})

			Convey("Then fractions should be non-increasing in time", func() {
				got := m.Fractions(times)
				for i := 1; i < len(got); i++ {
					So(got[i], ShouldBeLessThanOrEqualTo, got[i-1])
				}
			})
		})

		Convey("When top_scale undershoots the survival value", func() {
			// Clip guards the fraction range when sf(t)/top_scale
			// overshoots 1.
			m := points.ForLeaderboard(d, topScale/2, wr, 3, 60)

			Convey("Then the fraction should clip to 1", func() {
				So(m.Fraction(wr), ShouldEqual, 1.0)
			})
		})
	})
}
