package evaluator_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"shelfquest/abstats"
	"shelfquest/evaluator"
	"shelfquest/models"
)

func snapshotWithDates(dates map[string]int64) *models.UserSnapshot {
	ids := make(map[string]bool, len(dates))
	for id := range dates {
		ids[id] = true
	}
	return &models.UserSnapshot{
		UserID:        "u1",
		Username:      "alice",
		FinishedIDs:   ids,
		FinishedDates: dates,
		FinishedCount: len(ids),
	}
}

func TestMilestones(t *testing.T) {
	Convey("Given a user with three dated finishes", t, func() {
		user := snapshotWithDates(map[string]int64{
			"book-a": 100,
			"book-b": 200,
			"book-c": 300,
		})

		Convey("When a 2-book milestone is evaluated", func() {
			rules := []models.Achievement{
				{ID: "m2", Category: "milestone_books", Trigger: "Finish 2 books"},
			}
			events := evaluator.Milestones(user, rules, nil)

			Convey("Then the award is backdated to the second finish", func() {
				So(events, ShouldHaveLength, 1)
				ts, ok := events[0].Evidence.Timestamp()
				So(ok, ShouldBeTrue)
				So(ts, ShouldEqual, 200)
			})
		})

		Convey("When the milestone target exceeds the finish count", func() {
			rules := []models.Achievement{
				{ID: "m5", Category: "milestone_books", Trigger: "Finish 5 books"},
			}
			So(evaluator.Milestones(user, rules, nil), ShouldBeEmpty)
		})
	})

	Convey("Given a finish count larger than the dated history", t, func() {
		user := snapshotWithDates(map[string]int64{"book-a": 500})
		user.FinishedCount = 10

		rules := []models.Achievement{
			{ID: "m10", Category: "milestone_books", Trigger: "Finish 10 books"},
		}
		events := evaluator.Milestones(user, rules, nil)

		Convey("Then the latest known date is used as a fallback", func() {
			So(events, ShouldHaveLength, 1)
			ts, _ := events[0].Evidence.Timestamp()
			So(ts, ShouldEqual, 500)
		})
	})

	Convey("Given a series index", t, func() {
		seriesIndex := []abstats.Series{
			{ID: "s1", Name: "The Wheel of Time", Books: []abstats.SeriesBook{
				{LibraryItemID: "wot-1"}, {LibraryItemID: "wot-2"},
			}},
			{ID: "s2", Name: "Mistborn", Books: []abstats.SeriesBook{
				{LibraryItemID: "mb-1"},
			}},
		}

		Convey("When every member of one series is finished", func() {
			user := snapshotWithDates(map[string]int64{"wot-1": 100, "wot-2": 400})

			Convey("Then series completion is dated to the last member finish", func() {
				completed := evaluator.CompletedSeriesDates(user, seriesIndex)
				So(completed, ShouldContainKey, "s1")
				So(completed["s1"], ShouldEqual, 400)
				So(completed, ShouldNotContainKey, "s2")
			})

			Convey("Then the matching named-series rule is awarded", func() {
				rules := []models.Achievement{
					{ID: "wot", Category: "series_complete", Trigger: "Complete all books in The Wheel of Time"},
					{ID: "mb", Category: "series_complete", Trigger: "Complete all books in Mistborn"},
				}
				events := evaluator.Milestones(user, rules, seriesIndex)
				So(events, ShouldHaveLength, 1)
				So(events[0].Rule.ID, ShouldEqual, "wot")
				ts, _ := events[0].Evidence.Timestamp()
				So(ts, ShouldEqual, 400)
			})

			Convey("Then a series milestone counts completed series", func() {
				rules := []models.Achievement{
					{ID: "s-one", Category: "milestone_series", Trigger: "Complete 1 series"},
					{ID: "s-two", Category: "milestone_series", Trigger: "Complete 2 series"},
				}
				events := evaluator.Milestones(user, rules, seriesIndex)
				So(events, ShouldHaveLength, 1)
				So(events[0].Rule.ID, ShouldEqual, "s-one")
			})
		})

		Convey("When a partially-read series is evaluated", func() {
			user := snapshotWithDates(map[string]int64{"wot-1": 100})
			rules := []models.Achievement{
				{ID: "wot", Category: "series_complete", Trigger: "Complete all books in The Wheel of Time"},
			}
			So(evaluator.Milestones(user, rules, seriesIndex), ShouldBeEmpty)
		})
	})
}
