package evaluator_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"shelfquest/evaluator"
	"shelfquest/models"
)

func TestSocial(t *testing.T) {
	weekRule := []models.Achievement{
		{ID: "week", Category: "social", Trigger: "Finish the same book within the same week as another user"},
	}

	Convey("Given two users who finished the same book", t, func() {
		base := int64(1_700_000_000)

		makeUsers := func(otherTS int64) (*models.UserSnapshot, []models.UserSnapshot) {
			me := snapshotWithDates(map[string]int64{"shared": base})
			other := models.UserSnapshot{
				UserID:        "u2",
				Username:      "bob",
				FinishedIDs:   map[string]bool{"shared": true},
				FinishedDates: map[string]int64{"shared": otherTS},
				FinishedCount: 1,
			}
			return me, []models.UserSnapshot{*me, other}
		}

		Convey("When the finishes are exactly seven days apart", func() {
			me, all := makeUsers(base + 7*86400)
			events := evaluator.Social(me, weekRule, all, 1, nil)

			Convey("Then the boundary is inclusive and dated to the later finish", func() {
				So(events, ShouldHaveLength, 1)
				So(events[0].Evidence["otherUser"], ShouldEqual, "bob")
				ts, _ := events[0].Evidence.Timestamp()
				So(ts, ShouldEqual, base+7*86400)
			})
		})

		Convey("When the finishes are seven days and one second apart", func() {
			me, all := makeUsers(base + 7*86400 + 1)
			So(evaluator.Social(me, weekRule, all, 1, nil), ShouldBeEmpty)
		})

		Convey("When the other user's finish date is unknown", func() {
			me, all := makeUsers(0)
			So(evaluator.Social(me, weekRule, all, 1, nil), ShouldBeEmpty)
		})
	})

	Convey("Given a general overlap rule against every other user", t, func() {
		rule := []models.Achievement{
			{ID: "club", Category: "social", Trigger: "Share a finished book with every other user"},
		}

		me := snapshotWithDates(map[string]int64{"a": 100, "b": 300})
		bob := models.UserSnapshot{
			UserID:      "u2",
			FinishedIDs: map[string]bool{"a": true},
		}
		carol := models.UserSnapshot{
			UserID:      "u3",
			FinishedIDs: map[string]bool{"b": true},
		}

		Convey("When the overlap holds with everyone", func() {
			all := []models.UserSnapshot{*me, bob, carol}
			events := evaluator.Social(me, rule, all, 1, nil)

			Convey("Then the award dates to the last pairwise requirement met", func() {
				So(events, ShouldHaveLength, 1)
				ts, _ := events[0].Evidence.Timestamp()
				So(ts, ShouldEqual, 300)
			})
		})

		Convey("When one user shares nothing", func() {
			dave := models.UserSnapshot{UserID: "u4", FinishedIDs: map[string]bool{"z": true}}
			all := []models.UserSnapshot{*me, bob, carol, dave}
			So(evaluator.Social(me, rule, all, 1, nil), ShouldBeEmpty)
		})
	})

	Convey("Given a lone user", t, func() {
		me := snapshotWithDates(map[string]int64{"a": 100})
		all := []models.UserSnapshot{*me}

		Convey("Then social rules never fire", func() {
			So(evaluator.Social(me, weekRule, all, 1, nil), ShouldBeEmpty)
		})
	})
}
