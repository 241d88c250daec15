package evaluator_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"shelfquest/abstats"
	"shelfquest/evaluator"
	"shelfquest/models"
)

func timedSession(id, itemID string, start time.Time, wall time.Duration, listened float64) abstats.Session {
	return abstats.Session{
		ID:            id,
		LibraryItemID: itemID,
		StartedAt:     start.UnixMilli(),
		UpdatedAt:     start.Add(wall).UnixMilli(),
		TimeListening: listened,
	}
}

func TestBehaviorSession(t *testing.T) {
	Convey("Given a five-hour listening session", t, func() {
		user := snapshotWithDates(map[string]int64{})
		start := time.Date(2024, time.February, 14, 10, 0, 0, 0, time.UTC)
		sessions := sessionsFor("u1",
			timedSession("s1", "book-a", start, 5*time.Hour, 5*3600),
		)

		Convey("When single-session rules are evaluated", func() {
			rules := []models.Achievement{
				{ID: "binge4", Category: "behavior_session", Trigger: "Listen for 4 hours in a single listening session"},
				{ID: "binge6", Category: "behavior_session", Trigger: "Listen for 6 hours in a single listening session"},
			}
			events := evaluator.BehaviorSession(user, rules, sessions, time.UTC)

			Convey("Then only the reachable threshold fires", func() {
				So(events, ShouldHaveLength, 1)
				So(events[0].Rule.ID, ShouldEqual, "binge4")
				ts, _ := events[0].Evidence.Timestamp()
				So(ts, ShouldEqual, start.Add(5*time.Hour).Unix())
			})
		})
	})

	Convey("Given a corrupt multi-day session record", t, func() {
		user := snapshotWithDates(map[string]int64{})
		start := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
		sessions := sessionsFor("u1",
			timedSession("bad", "book-a", start, 72*time.Hour, 55*3600),
		)
		rules := []models.Achievement{
			{ID: "binge30", Category: "behavior_session", Trigger: "Listen for 30 hours in a single listening session"},
		}

		Convey("Then credited time is capped at one day", func() {
			So(evaluator.BehaviorSession(user, rules, sessions, time.UTC), ShouldBeEmpty)
		})
	})

	Convey("Given Saturday and Sunday sessions", t, func() {
		user := snapshotWithDates(map[string]int64{})
		sat := time.Date(2024, time.January, 6, 14, 0, 0, 0, time.UTC)
		sun := time.Date(2024, time.January, 7, 14, 0, 0, 0, time.UTC)
		sessions := sessionsFor("u1",
			timedSession("sat", "book-a", sat, 3*time.Hour, 3*3600),
			timedSession("sun", "book-a", sun, 3*time.Hour, 3*3600),
		)

		Convey("When weekend rules are evaluated", func() {
			rules := []models.Achievement{
				{ID: "wk6", Category: "behavior_session", Trigger: "Listen 6 hours over a single weekend"},
				{ID: "wk7", Category: "behavior_session", Trigger: "Listen 7 hours over a single weekend"},
			}
			events := evaluator.BehaviorSession(user, rules, sessions, time.UTC)

			Convey("Then Sunday rolls into Saturday's weekend total", func() {
				So(events, ShouldHaveLength, 1)
				So(events[0].Rule.ID, ShouldEqual, "wk6")
				ts, _ := events[0].Evidence.Timestamp()
				So(ts, ShouldEqual, sun.Add(3*time.Hour).Unix())
			})
		})
	})

	Convey("Given a finished book listened in one day", t, func() {
		user := snapshotWithDates(map[string]int64{"book-a": 1000})
		start := time.Date(2024, time.April, 2, 9, 0, 0, 0, time.UTC)
		sessions := sessionsFor("u1",
			timedSession("s1", "book-a", start, 2*time.Hour, 2*3600),
			timedSession("s2", "book-a", start.Add(4*time.Hour), 2*time.Hour, 2*3600),
		)
		rules := []models.Achievement{
			{ID: "oneday", Category: "behavior_session", Trigger: "Finish a book in a single day"},
		}

		Convey("Then the single-day rule fires on the matching book", func() {
			events := evaluator.BehaviorSession(user, rules, sessions, time.UTC)
			So(events, ShouldHaveLength, 1)
			So(events[0].Evidence["itemId"], ShouldEqual, "book-a")
			So(events[0].Evidence["date"], ShouldEqual, "2024-04-02")
		})

		Convey("When the listening spans two days", func() {
			spread := sessionsFor("u1",
				timedSession("s1", "book-a", start, 2*time.Hour, 2*3600),
				timedSession("s2", "book-a", start.AddDate(0, 0, 1), 2*time.Hour, 2*3600),
			)
			So(evaluator.BehaviorSession(user, rules, spread, time.UTC), ShouldBeEmpty)
		})
	})

	Convey("Given a long book finished within a week", t, func() {
		user := snapshotWithDates(map[string]int64{"epic": 2000})
		start := time.Date(2024, time.May, 6, 8, 0, 0, 0, time.UTC)
		long := timedSession("s1", "epic", start, 8*time.Hour, 8*3600)
		long.Duration = 21 * 3600
		later := timedSession("s2", "epic", start.AddDate(0, 0, 5), 8*time.Hour, 8*3600)
		later.Duration = 21 * 3600
		sessions := sessionsFor("u1", long, later)

		rules := []models.Achievement{
			{ID: "speed", Category: "behavior_session", Trigger: "Finish a 20+ hours book within 7 days"},
		}

		Convey("Then the speed-reader rule fires", func() {
			events := evaluator.BehaviorSession(user, rules, sessions, time.UTC)
			So(events, ShouldHaveLength, 1)
			So(events[0].Evidence["days_taken"], ShouldEqual, 6)
		})
	})
}
