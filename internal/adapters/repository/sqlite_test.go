package repository

import (
	"context"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/Sadhu2005/ANU-Humanoid-AI/internal/domain/model"
)

func TestOutcomeLog(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given an empty store", t, func() {
		store, err := NewSQLiteStore(":memory:")
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = store.Close() }()

		convey.Convey("When outcomes are appended for one student", func() {
			var seqs []int64
			for _, score := range []float64{60, 75, 90} {
				rec := &model.OutcomeRecord{
					StudentID:    "s1",
					SessionID:    "sess-a",
					ActionTaken:  model.ActionEncourage,
					PER:          0.1,
					OverallScore: score,
					Feedback:     "good",
				}
				convey.So(store.AppendOutcome(ctx, rec), convey.ShouldBeNil)
				convey.So(rec.State, convey.ShouldEqual, model.SyncPending)
				seqs = append(seqs, rec.Seq)
			}

			convey.Convey("Then sequence numbers are strictly increasing", func() {
				convey.So(seqs, convey.ShouldResemble, []int64{1, 2, 3})
			})

			convey.Convey("And pending records come back in creation order", func() {
				pending, err := store.PendingOutcomes(ctx, "s1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(pending, convey.ShouldHaveLength, 3)
				convey.So(pending[0].Seq, convey.ShouldEqual, 1)
				convey.So(pending[1].Seq, convey.ShouldEqual, 2)
				convey.So(pending[2].Seq, convey.ShouldEqual, 3)
				convey.So(pending[0].OverallScore, convey.ShouldEqual, 60)
				convey.So(pending[0].ActionTaken, convey.ShouldEqual, model.ActionEncourage)
			})
		})

		convey.Convey("When records exist for several students", func() {
			for _, id := range []string{"s1", "s2"} {
				rec := &model.OutcomeRecord{StudentID: id, SessionID: "sess", ActionTaken: model.DefaultAction}
				convey.So(store.AppendOutcome(ctx, rec), convey.ShouldBeNil)
			}

			convey.Convey("PendingStudents lists them all", func() {
				students, err := store.PendingStudents(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(students, convey.ShouldResemble, []string{"s1", "s2"})
			})

			convey.Convey("CountPending counts across students", func() {
				n, err := store.CountPending(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(n, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("Appending without identifiers is rejected", func() {
			err := store.AppendOutcome(ctx, &model.OutcomeRecord{})
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(model.KindOf(err), convey.ShouldEqual, model.FailureInvalidInput)
		})
	})
}

func TestSyncStateTransitions(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a store with one pending record", t, func() {
		store, err := NewSQLiteStore(":memory:")
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = store.Close() }()

		rec := &model.OutcomeRecord{StudentID: "s1", SessionID: "sess", ActionTaken: model.DefaultAction}
		convey.So(store.AppendOutcome(ctx, rec), convey.ShouldBeNil)

		convey.Convey("When the record moves through the state machine", func() {
			convey.So(store.SetOutcomeState(ctx, "s1", "sess", rec.Seq, model.SyncInFlight), convey.ShouldBeNil)

			convey.Convey("In-flight records still count as pending", func() {
				n, err := store.CountPending(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(n, convey.ShouldEqual, 1)
			})

			convey.Convey("A synced record leaves the pending set", func() {
				convey.So(store.SetOutcomeState(ctx, "s1", "sess", rec.Seq, model.SyncSynced), convey.ShouldBeNil)

				n, err := store.CountPending(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(n, convey.ShouldEqual, 0)

				students, err := store.PendingStudents(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(students, convey.ShouldBeEmpty)
			})

			convey.Convey("Rolling back to pending works", func() {
				convey.So(store.SetOutcomeState(ctx, "s1", "sess", rec.Seq, model.SyncPending), convey.ShouldBeNil)

				pending, err := store.PendingOutcomes(ctx, "s1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(pending, convey.ShouldHaveLength, 1)
				convey.So(pending[0].State, convey.ShouldEqual, model.SyncPending)
			})
		})

		convey.Convey("Transitioning an unknown record returns ErrNotFound", func() {
			err := store.SetOutcomeState(ctx, "nobody", "sess", 1, model.SyncSynced)
			convey.So(err, convey.ShouldEqual, ErrNotFound)
		})
	})
}

func TestPolicySnapshots(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a store", t, func() {
		store, err := NewSQLiteStore(":memory:")
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = store.Close() }()

		convey.Convey("A snapshot round-trips through the store", func() {
			state := &model.PolicyState{
				StudentID: "s1",
				History: []model.Turn{
					{Action: model.ActionEncourage, Score: 88},
					{Action: model.ActionAdvanceHarder, Score: 92},
				},
				Trace:      []float64{0.1, 0.2, 0.3},
				Difficulty: 0.6,
			}
			convey.So(store.SavePolicySnapshot(ctx, state), convey.ShouldBeNil)

			got, err := store.LoadPolicySnapshot(ctx, "s1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldNotBeNil)
			convey.So(got.History, convey.ShouldHaveLength, 2)
			convey.So(got.History[1].Action, convey.ShouldEqual, model.ActionAdvanceHarder)
			convey.So(got.Trace, convey.ShouldResemble, []float64{0.1, 0.2, 0.3})
			convey.So(got.Difficulty, convey.ShouldEqual, 0.6)
		})

		convey.Convey("Saving again overwrites the previous snapshot", func() {
			first := &model.PolicyState{StudentID: "s1", Difficulty: 0.4}
			second := &model.PolicyState{StudentID: "s1", Difficulty: 0.8}
			convey.So(store.SavePolicySnapshot(ctx, first), convey.ShouldBeNil)
			convey.So(store.SavePolicySnapshot(ctx, second), convey.ShouldBeNil)

			got, err := store.LoadPolicySnapshot(ctx, "s1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.Difficulty, convey.ShouldEqual, 0.8)
		})

		convey.Convey("Loading a missing snapshot returns nil without error", func() {
			got, err := store.LoadPolicySnapshot(ctx, "ghost")
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldBeNil)
		})

		convey.Convey("SnapshotStudents lists every stored student", func() {
			convey.So(store.SavePolicySnapshot(ctx, &model.PolicyState{StudentID: "a"}), convey.ShouldBeNil)
			convey.So(store.SavePolicySnapshot(ctx, &model.PolicyState{StudentID: "b"}), convey.ShouldBeNil)

			students, err := store.SnapshotStudents(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(students, convey.ShouldResemble, []string{"a", "b"})
		})

		convey.Convey("A snapshot without a student id is rejected", func() {
			err := store.SavePolicySnapshot(ctx, &model.PolicyState{})
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(model.KindOf(err), convey.ShouldEqual, model.FailureInvalidInput)
		})
	})
}

func TestModelWeights(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a store", t, func() {
		store, err := NewSQLiteStore(":memory:")
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = store.Close() }()

		convey.Convey("With no model saved yet, load returns nil without error", func() {
			blob, err := store.LoadModelWeights(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(blob, convey.ShouldBeNil)
		})

		convey.Convey("The model blob round-trips through the store", func() {
			saved := []byte(`{"actions":5,"weights":[[0.1,0.2]]}`)
			convey.So(store.SaveModelWeights(ctx, saved), convey.ShouldBeNil)

			got, err := store.LoadModelWeights(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldResemble, saved)
		})

		convey.Convey("Saving again overwrites the single model row", func() {
			convey.So(store.SaveModelWeights(ctx, []byte(`{"v":1}`)), convey.ShouldBeNil)
			convey.So(store.SaveModelWeights(ctx, []byte(`{"v":2}`)), convey.ShouldBeNil)

			got, err := store.LoadModelWeights(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(got), convey.ShouldEqual, `{"v":2}`)
		})

		convey.Convey("An empty blob is rejected", func() {
			err := store.SaveModelWeights(ctx, nil)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(model.KindOf(err), convey.ShouldEqual, model.FailureInvalidInput)
		})
	})
}
