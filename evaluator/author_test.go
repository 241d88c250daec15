package evaluator_test

import (
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"shelfquest/abstats"
	"shelfquest/evaluator"
	"shelfquest/models"
)

// fakeLibrary serves canned item and series metadata to evaluator contexts.
type fakeLibrary struct {
	items  map[string]*abstats.Item
	series map[string]*abstats.SeriesDetail
}

func (f *fakeLibrary) GetItem(itemID string) (*abstats.Item, error) {
	if item, ok := f.items[itemID]; ok {
		return item, nil
	}
	return nil, fmt.Errorf("item %s not found", itemID)
}

func (f *fakeLibrary) GetSeries(seriesID string) (*abstats.SeriesDetail, error) {
	if s, ok := f.series[seriesID]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("series %s not found", seriesID)
}

func bookItem(title string, authors, narrators []string) *abstats.Item {
	return &abstats.Item{
		Title:     title,
		Authors:   abstats.StringList(authors),
		Narrators: abstats.StringList(narrators),
	}
}

func TestAuthor(t *testing.T) {
	Convey("Given a shelf of finished books with metadata", t, func() {
		lib := &fakeLibrary{items: map[string]*abstats.Item{
			"b1": bookItem("Book One", []string{"Ann Writer"}, []string{"Some Voice"}),
			"b2": bookItem("Book Two", []string{"Ann Writer"}, []string{"Some Voice"}),
			"b3": bookItem("Book Three", []string{"Bo Author"}, []string{"Bo Author"}),
		}}
		ctx := evaluator.NewContext(lib, lib)

		user := snapshotWithDates(map[string]int64{
			"b1": 100,
			"b2": 200,
			"b3": 300,
		})

		Convey("When the self-narrated rule is evaluated", func() {
			rules := []models.Achievement{
				{ID: "self", Category: "author", Trigger: "Finish a book narrated by the author"},
			}
			events := evaluator.Author(user, rules, nil, ctx)

			Convey("Then the author-narrator overlap is detected", func() {
				So(events, ShouldHaveLength, 1)
				So(events[0].Evidence["itemId"], ShouldEqual, "b3")
				ts, _ := events[0].Evidence.Timestamp()
				So(ts, ShouldEqual, 300)
			})
		})

		Convey("When the distinct-authors rule is evaluated", func() {
			rules := []models.Achievement{
				{ID: "da2", Category: "author", Trigger: "Read books from 2 different authors"},
			}
			events := evaluator.Author(user, rules, nil, ctx)

			Convey("Then the award dates to the second author's first book", func() {
				So(events, ShouldHaveLength, 1)
				So(events[0].Evidence["count"], ShouldEqual, 2)
				ts, _ := events[0].Evidence.Timestamp()
				So(ts, ShouldEqual, 300)
			})
		})

		Convey("When the same-author count rule is evaluated", func() {
			rules := []models.Achievement{
				{ID: "sa2", Category: "author", Trigger: "Finish 2 books by the same author"},
			}
			events := evaluator.Author(user, rules, nil, ctx)

			Convey("Then the most-read author wins and dates to their second book", func() {
				So(events, ShouldHaveLength, 1)
				So(events[0].Evidence["author"], ShouldEqual, "Ann Writer")
				ts, _ := events[0].Evidence.Timestamp()
				So(ts, ShouldEqual, 200)
			})
		})

		Convey("When author names differ only in case and spacing", func() {
			lib.items["b4"] = bookItem("Book Four", []string{"ann  writer"}, nil)
			user := snapshotWithDates(map[string]int64{"b1": 100, "b4": 400})
			ctx := evaluator.NewContext(lib, lib)

			rules := []models.Achievement{
				{ID: "sa2", Category: "author", Trigger: "Finish 2 books by the same author"},
			}
			events := evaluator.Author(user, rules, nil, ctx)

			Convey("Then they count as the same author", func() {
				So(events, ShouldHaveLength, 1)
				So(events[0].Evidence["count"], ShouldEqual, 2)
			})
		})
	})
}

func TestNarrator(t *testing.T) {
	Convey("Given books sharing one narrator", t, func() {
		lib := &fakeLibrary{items: map[string]*abstats.Item{
			"b1": bookItem("Book One", []string{"A"}, []string{"Big Voice"}),
			"b2": bookItem("Book Two", []string{"B"}, []string{"Big Voice"}),
			"b3": bookItem("Book Three", []string{"C"}, []string{"Other Voice"}),
		}}
		ctx := evaluator.NewContext(lib, lib)

		user := snapshotWithDates(map[string]int64{
			"b1": 100,
			"b2": 200,
			"b3": 300,
		})

		Convey("When a 2-books-same-narrator rule is evaluated", func() {
			rules := []models.Achievement{
				{ID: "n2", Category: "narrator", Trigger: "Finish 2 books with the same narrator"},
			}
			events := evaluator.Narrator(user, rules, ctx)

			Convey("Then the leading narrator wins, dated to their second book", func() {
				So(events, ShouldHaveLength, 1)
				So(events[0].Evidence["narrator"], ShouldEqual, "Big Voice")
				ts, _ := events[0].Evidence.Timestamp()
				So(ts, ShouldEqual, 200)
			})
		})

		Convey("When the threshold is out of reach", func() {
			rules := []models.Achievement{
				{ID: "n5", Category: "narrator", Trigger: "Finish 5 books with the same narrator"},
			}
			So(evaluator.Narrator(user, rules, ctx), ShouldBeEmpty)
		})
	})
}
