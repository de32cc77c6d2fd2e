package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})
			metricsEnabledOpt := WithMetricsEnabled(true)

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(metricsEnabledOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager(WithRegistry(prometheus.NewRegistry()))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Handler(), ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRegistry(prometheus.NewRegistry()),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with registration disabled", func() {
			manager := NewManager(WithMetricsEnabled(false), WithRegistry(prometheus.NewRegistry()))

			Convey("Then recording should still be safe", func() {
				So(func() {
					manager.RecordRequest()
					manager.RecordFit(VariantNub, 12.5)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording the request stream", func() {
			So(func() {
				RecordRequest()
				RecordRequest()
				RecordWarning()
			}, ShouldNotPanic)
		})

		Convey("When recording scoring activity", func() {
			So(func() {
				RecordFit(VariantNub, 42.0)
				RecordFit(VariantPro, 17.5)
				RecordCompute(VariantNub, 3.0)
				RecordCompute(VariantPro, 2.0)
				RecordFallbackScored()
				RecordFittedScored()
				SetLeaderboardSize(VariantNub, 224)
				SetLeaderboardSize(VariantPro, 165)
			}, ShouldNotPanic)
		})

		Convey("When recording store activity", func() {
			So(func() {
				RecordDBQuery(5.0)
				RecordDBWrite(8.0)
			}, ShouldNotPanic)
		})

		Convey("When recording edge values", func() {
			So(func() {
				RecordFit(VariantNub, 0.0)
				RecordCompute(VariantPro, 30000.0)
				SetLeaderboardSize(VariantNub, 0)
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recording", t, func() {
		done := make(chan bool, 10)

		for i := 0; i < 10; i++ {
			go func() {
				for j := 0; j < 100; j++ {
					RecordRequest()
					RecordFit(VariantNub, float64(j))
					SetLeaderboardSize(VariantPro, j)
				}
				done <- true
			}()
		}

		for i := 0; i < 10; i++ {
			<-done
		}

		Convey("Then it should handle concurrent access without panics", func() {
			So(true, ShouldBeTrue)
		})
	})
}
