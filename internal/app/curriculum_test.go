package app

import (
	"context"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestStaticCurriculum(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given the built-in exercise bank", t, func() {
		c := NewStaticCurriculum()

		convey.Convey("Consecutive turns get different exercises", func() {
			a, err := c.CurrentExercise(ctx, "s1")
			convey.So(err, convey.ShouldBeNil)
			b, err := c.CurrentExercise(ctx, "s1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(a.Prompt, convey.ShouldNotEqual, b.Prompt)
		})

		convey.Convey("Students advance independently", func() {
			first, err := c.CurrentExercise(ctx, "s1")
			convey.So(err, convey.ShouldBeNil)
			_, err = c.CurrentExercise(ctx, "s1")
			convey.So(err, convey.ShouldBeNil)

			other, err := c.CurrentExercise(ctx, "s2")
			convey.So(err, convey.ShouldBeNil)
			convey.So(other.Prompt, convey.ShouldEqual, first.Prompt)
		})

		convey.Convey("The bank wraps around", func() {
			var last Exercise
			for i := 0; i <= len(defaultBank); i++ {
				var err error
				last, err = c.CurrentExercise(ctx, "s3")
				convey.So(err, convey.ShouldBeNil)
			}
			convey.So(last.Prompt, convey.ShouldEqual, defaultBank[0].Prompt)
		})

		convey.Convey("Every exercise carries phonemes to score against", func() {
			for _, ex := range defaultBank {
				convey.So(ex.Phonemes, convey.ShouldNotBeEmpty)
			}
		})
	})

	convey.Convey("Given a custom exercise list", t, func() {
		c := NewStaticCurriculum(Exercise{Prompt: "Say: hi", Phonemes: []string{"h", "aɪ"}})

		convey.Convey("Only the custom content is served", func() {
			for i := 0; i < 3; i++ {
				ex, err := c.CurrentExercise(ctx, "s1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(ex.Prompt, convey.ShouldEqual, "Say: hi")
			}
		})
	})
}
