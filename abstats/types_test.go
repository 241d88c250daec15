package abstats_test

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"shelfquest/abstats"
)

func TestFlexibleDecoding(t *testing.T) {
	Convey("Given author fields in both server spellings", t, func() {
		Convey("Then a bare string decodes to a single-entry list", func() {
			var item abstats.Item
			err := json.Unmarshal([]byte(`{"title": "T", "authors": "Ann Writer"}`), &item)
			So(err, ShouldBeNil)
			So(item.AuthorNames(), ShouldResemble, []string{"Ann Writer"})
		})

		Convey("Then an array decodes with blanks dropped", func() {
			var item abstats.Item
			err := json.Unmarshal([]byte(`{"authors": ["Ann Writer", "  ", "Bo Author"]}`), &item)
			So(err, ShouldBeNil)
			So(item.AuthorNames(), ShouldResemble, []string{"Ann Writer", "Bo Author"})
		})

		Convey("Then nested media metadata is reachable as a fallback", func() {
			var item abstats.Item
			err := json.Unmarshal([]byte(`{"media": {"metadata": {"title": "Deep Title", "narrators": ["Voice"]}}}`), &item)
			So(err, ShouldBeNil)
			So(item.DisplayTitle(), ShouldEqual, "Deep Title")
			So(item.NarratorNames(), ShouldResemble, []string{"Voice"})
		})
	})

	Convey("Given series book sequences in both encodings", t, func() {
		Convey("Then numeric and string sequences both decode", func() {
			var detail abstats.SeriesDetail
			err := json.Unmarshal([]byte(`{"id": "s1", "name": "S", "books": [
				{"libraryItemId": "b2", "sequence": "2"},
				{"libraryItemId": "b1", "sequence": 1},
				{"libraryItemId": "b3"}
			]}`), &detail)
			So(err, ShouldBeNil)

			sorted := detail.SortedBooks()
			So(sorted[0].ItemID(), ShouldEqual, "b1")
			So(sorted[1].ItemID(), ShouldEqual, "b2")
			// missing sequence sorts last
			So(sorted[2].ItemID(), ShouldEqual, "b3")
		})
	})

	Convey("Given a sessions payload", t, func() {
		payload := &abstats.SessionsPayload{Users: []abstats.UserSessions{
			{UserID: "u1", Sessions: []abstats.Session{{ID: "s1"}}},
		}}

		Convey("Then ForUser finds the matching group", func() {
			So(payload.ForUser("u1"), ShouldHaveLength, 1)
			So(payload.ForUser("u2"), ShouldBeNil)
		})

		Convey("Then a nil payload is safe to query", func() {
			var nilPayload *abstats.SessionsPayload
			So(nilPayload.ForUser("u1"), ShouldBeNil)
		})
	})

	Convey("Given session end timestamps", t, func() {
		Convey("Then EndMillis prefers updatedAt, then endedAt, then start", func() {
			s := abstats.Session{StartedAt: 1, EndedAt: 2, UpdatedAt: 3}
			So(s.EndMillis(), ShouldEqual, 3)
			s.UpdatedAt = 0
			So(s.EndMillis(), ShouldEqual, 2)
			s.EndedAt = 0
			So(s.EndMillis(), ShouldEqual, 1)
		})
	})
}
