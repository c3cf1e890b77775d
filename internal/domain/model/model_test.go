package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestOutcomeRecord(t *testing.T) {
	convey.Convey("Given an outcome record", t, func() {
		rec := OutcomeRecord{StudentID: "s1", SessionID: "sess-a", Seq: 7}

		convey.Convey("Its idempotency key is stable and fully qualified", func() {
			convey.So(rec.IdempotencyKey(), convey.ShouldEqual, "s1:sess-a:7")
			convey.So(rec.IdempotencyKey(), convey.ShouldEqual, rec.IdempotencyKey())
		})

		convey.Convey("Synced reflects the terminal state only", func() {
			convey.So(rec.Synced(), convey.ShouldBeFalse)
			rec.State = SyncInFlight
			convey.So(rec.Synced(), convey.ShouldBeFalse)
			rec.State = SyncSynced
			convey.So(rec.Synced(), convey.ShouldBeTrue)
		})
	})
}

func TestFailureClassification(t *testing.T) {
	convey.Convey("Given classified errors", t, func() {
		convey.Convey("Each wrapper reports its kind", func() {
			convey.So(KindOf(Invalid(fmt.Errorf("bad"))), convey.ShouldEqual, FailureInvalidInput)
			convey.So(KindOf(Transient(fmt.Errorf("down"))), convey.ShouldEqual, FailureTransient)
			convey.So(KindOf(Permanent(fmt.Errorf("no"))), convey.ShouldEqual, FailurePermanent)
		})

		convey.Convey("Classification survives wrapping", func() {
			err := fmt.Errorf("outer: %w", Invalid(fmt.Errorf("inner")))
			convey.So(KindOf(err), convey.ShouldEqual, FailureInvalidInput)
		})

		convey.Convey("Unclassified errors default to transient", func() {
			convey.So(KindOf(errors.New("mystery")), convey.ShouldEqual, FailureTransient)
		})

		convey.Convey("The wrapped cause stays reachable", func() {
			cause := errors.New("root")
			convey.So(errors.Is(Transient(cause), cause), convey.ShouldBeTrue)
		})
	})
}

func TestEventDefaults(t *testing.T) {
	convey.Convey("Given the event kinds", t, func() {
		convey.Convey("Default priorities follow the lane design", func() {
			convey.So(DefaultPriority(KindEmergency), convey.ShouldEqual, PriorityEmergency)
			convey.So(DefaultPriority(KindSpeech), convey.ShouldEqual, PriorityLesson)
			convey.So(DefaultPriority(KindVision), convey.ShouldEqual, PriorityAmbient)
			convey.So(DefaultPriority(KindSensor), convey.ShouldEqual, PriorityAmbient)
			convey.So(DefaultPriority(KindTimer), convey.ShouldEqual, PriorityBackground)
		})

		convey.Convey("Priorities are strictly ordered", func() {
			convey.So(PriorityEmergency, convey.ShouldBeGreaterThan, PriorityCommand)
			convey.So(PriorityCommand, convey.ShouldBeGreaterThan, PriorityLesson)
			convey.So(PriorityLesson, convey.ShouldBeGreaterThan, PriorityAmbient)
			convey.So(PriorityAmbient, convey.ShouldBeGreaterThan, PriorityBackground)
		})
	})
}

func TestPolicyStateClone(t *testing.T) {
	convey.Convey("Given a policy state with history and trace", t, func() {
		st := &PolicyState{
			StudentID:  "s1",
			History:    []Turn{{Action: ActionEncourage, Score: 80}},
			Trace:      []float64{0.5},
			Difficulty: 0.5,
		}

		convey.Convey("Clone is deep", func() {
			c := st.Clone()
			c.History[0].Score = 10
			c.Trace[0] = 9

			convey.So(st.History[0].Score, convey.ShouldEqual, 80)
			convey.So(st.Trace[0], convey.ShouldEqual, 0.5)
		})

		convey.Convey("Cloning nil yields nil", func() {
			var nilState *PolicyState
			convey.So(nilState.Clone(), convey.ShouldBeNil)
		})
	})
}
