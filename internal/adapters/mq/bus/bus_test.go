package bus

import (
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/domain/model"
)

func event(id string, kind model.Kind, prio model.Priority, ts time.Time) model.Event {
	return model.Event{ID: id, Kind: kind, Priority: prio, TS: ts}
}

func TestPriorityOrdering(t *testing.T) {
	convey.Convey("Given a bus with mixed-priority events queued", t, func() {
		b := NewPriorityBus()
		now := time.Now()

		convey.So(b.Publish(event("bg", model.KindTimer, model.PriorityBackground, now)), convey.ShouldBeTrue)
		convey.So(b.Publish(event("lesson", model.KindSpeech, model.PriorityLesson, now)), convey.ShouldBeTrue)
		convey.So(b.Publish(event("ambient", model.KindVision, model.PriorityAmbient, now)), convey.ShouldBeTrue)
		convey.So(b.Publish(event("cmd", model.KindSpeech, model.PriorityCommand, now)), convey.ShouldBeTrue)

		convey.Convey("When the consumer drains the bus", func() {
			convey.So(b.Close(), convey.ShouldBeNil)

			var order []string
			for e := range b.Events() {
				order = append(order, e.ID)
			}

			convey.Convey("Then higher priority always comes out first", func() {
				convey.So(order, convey.ShouldResemble, []string{"cmd", "lesson", "ambient", "bg"})
			})
		})
	})

	convey.Convey("Given equal-priority events with distinct timestamps", t, func() {
		b := NewPriorityBus()
		base := time.Now()

		convey.So(b.Publish(event("second", model.KindSpeech, model.PriorityLesson, base.Add(time.Millisecond))), convey.ShouldBeTrue)
		convey.So(b.Publish(event("first", model.KindSpeech, model.PriorityLesson, base)), convey.ShouldBeTrue)
		convey.So(b.Publish(event("third", model.KindSpeech, model.PriorityLesson, base.Add(2*time.Millisecond))), convey.ShouldBeTrue)

		convey.Convey("Delivery follows the timestamps", func() {
			convey.So(b.Close(), convey.ShouldBeNil)

			var order []string
			for e := range b.Events() {
				order = append(order, e.ID)
			}
			convey.So(order, convey.ShouldResemble, []string{"first", "second", "third"})
		})
	})

	convey.Convey("Given equal priority and equal timestamps", t, func() {
		b := NewPriorityBus()
		ts := time.Now()

		for _, id := range []string{"a", "b", "c"} {
			convey.So(b.Publish(event(id, model.KindSpeech, model.PriorityLesson, ts)), convey.ShouldBeTrue)
		}

		convey.Convey("Delivery preserves publish order", func() {
			convey.So(b.Close(), convey.ShouldBeNil)

			var order []string
			for e := range b.Events() {
				order = append(order, e.ID)
			}
			convey.So(order, convey.ShouldResemble, []string{"a", "b", "c"})
		})
	})
}

func TestEmergencyLane(t *testing.T) {
	convey.Convey("Given a bus whose queue is completely full", t, func() {
		b := NewPriorityBus(WithCapacity(2))
		now := time.Now()

		convey.So(b.Publish(event("e1", model.KindSpeech, model.PriorityLesson, now)), convey.ShouldBeTrue)
		convey.So(b.Publish(event("e2", model.KindSpeech, model.PriorityLesson, now)), convey.ShouldBeTrue)

		convey.Convey("Ordinary publishes are rejected", func() {
			convey.So(b.Publish(event("e3", model.KindSpeech, model.PriorityLesson, now)), convey.ShouldBeFalse)
			convey.So(b.Len(), convey.ShouldEqual, 2)
		})

		convey.Convey("An emergency still gets through immediately", func() {
			emg := model.Event{
				ID:        "fire",
				Kind:      model.KindEmergency,
				Priority:  model.PriorityEmergency,
				TS:        now,
				Emergency: &model.EmergencyPayload{Reason: "smoke detected"},
			}
			convey.So(b.Publish(emg), convey.ShouldBeTrue)

			select {
			case got := <-b.Emergencies():
				convey.So(got.ID, convey.ShouldEqual, "fire")
			case <-time.After(time.Second):
				convey.So("timeout waiting for emergency", convey.ShouldBeEmpty)
			}

			convey.Convey("And the ordinary queue is untouched", func() {
				convey.So(b.Len(), convey.ShouldEqual, 2)
			})
		})
	})
}

func TestBusLifecycle(t *testing.T) {
	convey.Convey("Given a closed bus", t, func() {
		b := NewPriorityBus()
		convey.So(b.Close(), convey.ShouldBeNil)

		convey.Convey("It reports closed and rejects new events", func() {
			convey.So(b.IsClosed(), convey.ShouldBeTrue)
			convey.So(b.Publish(event("late", model.KindSpeech, model.PriorityLesson, time.Now())), convey.ShouldBeFalse)
		})

		convey.Convey("Closing again is harmless", func() {
			convey.So(b.Close(), convey.ShouldBeNil)
		})

		convey.Convey("The events channel terminates", func() {
			select {
			case _, ok := <-b.Events():
				convey.So(ok, convey.ShouldBeFalse)
			case <-time.After(time.Second):
				convey.So("timeout waiting for close", convey.ShouldBeEmpty)
			}
		})
	})

	convey.Convey("Given queued events at close time", t, func() {
		b := NewPriorityBus()
		now := time.Now()
		convey.So(b.Publish(event("queued", model.KindSpeech, model.PriorityLesson, now)), convey.ShouldBeTrue)
		convey.So(b.Close(), convey.ShouldBeNil)

		convey.Convey("They are still delivered before the channel closes", func() {
			var got []string
			for e := range b.Events() {
				got = append(got, e.ID)
			}
			convey.So(got, convey.ShouldResemble, []string{"queued"})
		})
	})

	convey.Convey("Given queued events, a closed bus and no consumer", t, func() {
		b := NewPriorityBus()
		ch := b.Events()
		now := time.Now()
		convey.So(b.Publish(event("e1", model.KindSpeech, model.PriorityLesson, now)), convey.ShouldBeTrue)
		convey.So(b.Publish(event("e2", model.KindSpeech, model.PriorityLesson, now)), convey.ShouldBeTrue)
		convey.So(b.Close(), convey.ShouldBeNil)

		convey.Convey("The dispatcher gives up instead of blocking forever", func() {
			time.Sleep(5 * closeDrainGrace)

			select {
			case _, ok := <-ch:
				convey.So(ok, convey.ShouldBeFalse)
			default:
				convey.So("delivery channel still open", convey.ShouldBeEmpty)
			}
		})
	})
}
