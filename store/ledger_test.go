package store_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"shelfquest/models"
	"shelfquest/store"
)

func TestMemoryLedger(t *testing.T) {
	Convey("Given a fresh ledger", t, func() {
		ledger := store.NewMemoryLedger()

		Convey("When one candidate is recorded", func() {
			inserted := ledger.RecordAwards("u1", []store.Candidate{
				{AchievementID: "first-book", Evidence: models.Evidence{models.TimestampKey: int64(1234)}},
			})

			Convey("Then it reports as inserted and awarded", func() {
				So(inserted, ShouldResemble, []string{"first-book"})
				So(ledger.IsAwarded("u1", "first-book"), ShouldBeTrue)
				So(ledger.IsAwarded("u2", "first-book"), ShouldBeFalse)
				So(ledger.CountForUser("u1"), ShouldEqual, 1)
			})

			Convey("Then the award is backdated to the evidence timestamp", func() {
				awards, err := ledger.GetAllAwards()
				So(err, ShouldBeNil)
				So(awards, ShouldHaveLength, 1)
				So(awards[0].AwardedAt, ShouldEqual, 1234)
			})

			Convey("When the same candidate is recorded again", func() {
				again := ledger.RecordAwards("u1", []store.Candidate{
					{AchievementID: "first-book", Evidence: models.Evidence{models.TimestampKey: int64(9999)}},
				})

				Convey("Then the duplicate is silently skipped", func() {
					So(again, ShouldBeEmpty)
					awards, _ := ledger.GetAllAwards()
					So(awards, ShouldHaveLength, 1)
					So(awards[0].AwardedAt, ShouldEqual, 1234)
				})
			})
		})

		Convey("When evidence carries no timestamp", func() {
			ledger.RecordAwards("u1", []store.Candidate{
				{AchievementID: "undated", Evidence: models.Evidence{"note": "no date"}},
			})
			awards, _ := ledger.GetAllAwards()

			Convey("Then the award falls back to the recording moment", func() {
				So(awards, ShouldHaveLength, 1)
				So(awards[0].AwardedAt, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When several users earn the same achievement", func() {
			ledger.RecordAwards("u1", []store.Candidate{{AchievementID: "shared", Evidence: models.Evidence{models.TimestampKey: int64(100)}}})
			ledger.RecordAwards("u2", []store.Candidate{{AchievementID: "shared", Evidence: models.Evidence{models.TimestampKey: int64(200)}}})

			Convey("Then both rows exist and sort newest first", func() {
				awards, _ := ledger.GetAllAwards()
				So(awards, ShouldHaveLength, 2)
				So(awards[0].UserID, ShouldEqual, "u2")
				So(awards[1].UserID, ShouldEqual, "u1")
			})
		})
	})
}

func TestAwardPayload(t *testing.T) {
	Convey("Given a recorded award", t, func() {
		ledger := store.NewMemoryLedger()
		ledger.RecordAwards("u1", []store.Candidate{{
			AchievementID: "with-payload",
			Evidence: models.Evidence{
				"itemId":            "book-a",
				models.TimestampKey: int64(42),
			},
		}})
		awards, _ := ledger.GetAllAwards()
		So(awards, ShouldHaveLength, 1)

		Convey("Then the evidence survives the JSON round trip", func() {
			payload := awards[0].Payload()
			So(payload["itemId"], ShouldEqual, "book-a")
		})
	})
}
