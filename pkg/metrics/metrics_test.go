package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	convey.Convey("Given a metrics manager", t, func() {
		convey.Convey("When creating with a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			convey.Convey("Then it should be created successfully", func() {
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("core"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(registry),
			)

			convey.Convey("Then it should be created successfully", func() {
				convey.So(manager, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	convey.Convey("Given the global metrics manager", t, func() {
		convey.Convey("The registry is available for scraping", func() {
			convey.So(GetRegistry(), convey.ShouldNotBeNil)
		})

		convey.Convey("Recording through the helpers does not panic", func() {
			convey.So(func() {
				RecordBusPublish("speech")
				RecordBusDrop()
				RecordBusEmergencyBypass()
				UpdateBusDepth(3)
				UpdateBusCapacity(1024)

				RecordTurnCompleted()
				RecordTurnAborted()
				RecordPreemption()
				RecordEmergencyConflict()
				RecordHandlerFallback("speech")
				RecordHandlerLatency(12.5)

				RecordPhonemeErrorRate(0.25)
				RecordScoringFailure()

				RecordActionSelected("encourage")
				RecordExploration()
				RecordReplayStep()
				RecordSnapshotError()

				UpdateSyncPending(2)
				RecordSyncSent()
				RecordSyncFailed()
				RecordSyncRetry()
				RecordFlushLatency(40)
				UpdateRemoteOnline(true)

				RecordNotificationSent()
				RecordNotificationUnresolved()
			}, convey.ShouldNotPanic)
		})

		convey.Convey("Recorded metrics are gatherable", func() {
			RecordTurnCompleted()
			families, err := GetRegistry().Gather()
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(families), convey.ShouldBeGreaterThan, 0)
		})
	})
}
