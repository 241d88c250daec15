package evaluator

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTriggerParsing(t *testing.T) {
	Convey("Given numeric trigger phrases", t, func() {
		Convey("Then firstInt takes the first digit group", func() {
			So(firstInt("Finish 25 books"), ShouldEqual, 25)
			So(firstInt("Finish 1,000 books"), ShouldEqual, 1000)
			So(firstInt("no numbers here"), ShouldEqual, 0)
		})

		Convey("Then extractHours only accepts hour-qualified figures", func() {
			So(extractHours("Listen for 100 hours total"), ShouldEqual, 100)
			So(extractHours("Listen for 1 hour straight"), ShouldEqual, 1)
			So(extractHours("Finish 5 books"), ShouldEqual, 0)
		})

		Convey("Then extractBookCount defaults to one book", func() {
			So(extractBookCount("Finish 3 books under 4 hours"), ShouldEqual, 3)
			So(extractBookCount("Finish a book under 4 hours"), ShouldEqual, 1)
		})
	})

	Convey("Given duration rule triggers", t, func() {
		Convey("Then over/under phrasing parses directly", func() {
			mode, hours, ok := parseDurationRule("Finish a book over 20 hours")
			So(ok, ShouldBeTrue)
			So(mode, ShouldEqual, "over")
			So(hours, ShouldEqual, 20.0)
		})

		Convey("Then longer/shorter-than normalizes to over/under", func() {
			mode, hours, ok := parseDurationRule("Finish a book shorter than 2.5 hours")
			So(ok, ShouldBeTrue)
			So(mode, ShouldEqual, "under")
			So(hours, ShouldEqual, 2.5)
		})

		Convey("Then explicit operators normalize too", func() {
			mode, hours, ok := parseDurationRule("duration >= 12 hours")
			So(ok, ShouldBeTrue)
			So(mode, ShouldEqual, "over")
			So(hours, ShouldEqual, 12.0)

			mode, hours, ok = parseDurationRule("duration <= 4 hours")
			So(ok, ShouldBeTrue)
			So(mode, ShouldEqual, "under")
			So(hours, ShouldEqual, 4.0)
		})

		Convey("Then unrelated triggers do not parse", func() {
			_, _, ok := parseDurationRule("Finish 10 books")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given keyword triggers", t, func() {
		Convey("Then the canonical phrase yields the keyword list", func() {
			So(keywordsFromTrigger("Finish a book with dragon, wizard or sword in the title"),
				ShouldResemble, []string{"dragon", "wizard", "sword"})
		})

		Convey("Then a non-canonical phrase yields nothing", func() {
			So(keywordsFromTrigger("Finish any book"), ShouldBeNil)
		})
	})

	Convey("Given timestamp helpers", t, func() {
		Convey("Then positiveSorted drops zeros and sorts", func() {
			So(positiveSorted([]int64{300, 0, 100, 200, -5}), ShouldResemble, []int64{100, 200, 300})
		})

		Convey("Then nthTimestamp is 1-based with a zero fallback", func() {
			sorted := []int64{100, 200, 300}
			So(nthTimestamp(sorted, 2), ShouldEqual, 200)
			So(nthTimestamp(sorted, 4), ShouldEqual, 0)
			So(nthTimestamp(sorted, 0), ShouldEqual, 0)
		})
	})

	Convey("Given free text normalization", t, func() {
		So(normText("The  Wheel--of Time!"), ShouldEqual, "the wheel of time")
		So(normName("  Brandon   Sanderson "), ShouldEqual, "brandon sanderson")
	})
}
