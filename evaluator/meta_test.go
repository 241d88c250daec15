package evaluator_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"shelfquest/evaluator"
	"shelfquest/models"
)

func TestYearly(t *testing.T) {
	Convey("Given finishes spread over two calendar years", t, func() {
		in2023 := time.Date(2023, time.June, 1, 12, 0, 0, 0, time.UTC)
		in2024 := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

		user := snapshotWithDates(map[string]int64{
			"a": in2023.Unix(),
			"b": in2023.Add(24 * time.Hour).Unix(),
			"c": in2023.Add(48 * time.Hour).Unix(),
			"d": in2024.Unix(),
		})

		Convey("When a 3-books-in-a-year rule is evaluated", func() {
			rules := []models.Achievement{
				{ID: "y3", Category: "milestone_yearly", Trigger: "Finish 3 books in a calendar year"},
			}
			events := evaluator.Yearly(user, rules, time.UTC)

			Convey("Then the qualifying year's latest finish dates the award", func() {
				So(events, ShouldHaveLength, 1)
				So(events[0].Evidence["year"], ShouldEqual, 2023)
				ts, _ := events[0].Evidence.Timestamp()
				So(ts, ShouldEqual, in2023.Add(48*time.Hour).Unix())
			})
		})

		Convey("When no single year reaches the target", func() {
			rules := []models.Achievement{
				{ID: "y4", Category: "milestone_yearly", Trigger: "Finish 4 books in a calendar year"},
			}
			So(evaluator.Yearly(user, rules, time.UTC), ShouldBeEmpty)
		})
	})
}

func TestMeta(t *testing.T) {
	rules := []models.Achievement{
		{ID: "meta5", Category: "meta", Trigger: "Earn 5 achievements"},
	}
	user := snapshotWithDates(map[string]int64{})

	Convey("Given a prior award count at the threshold", t, func() {
		events := evaluator.Meta(user, rules, 5)

		Convey("Then the meta rule fires", func() {
			So(events, ShouldHaveLength, 1)
			So(events[0].Evidence["total_achievements"], ShouldEqual, 5)
		})
	})

	Convey("Given a prior award count below the threshold", t, func() {
		Convey("Then awards inserted this cycle do not count yet", func() {
			So(evaluator.Meta(user, rules, 4), ShouldBeEmpty)
		})
	})
}
