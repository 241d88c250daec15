// evaluator/seriesshape.go - Series-shape rules
//
// Shape rules need each series' total book count and sequence order, which
// only the per-series detail endpoint provides; lookups go through the cycle
// context so one pass fetches each series at most once.
package evaluator

import (
	"strings"

	"shelfquest/abstats"
	"shelfquest/models"
)

// SeriesShape evaluates duology/trilogy/long-series completion and
// "first book of N different series" rules.
func SeriesShape(user *models.UserSnapshot, achievements []models.Achievement, seriesIndex []abstats.Series, ctx *Context) []Event {
	var shapeRules []models.Achievement
	for _, a := range achievements {
		if a.Category == "series_shape" {
			shapeRules = append(shapeRules, a)
		}
	}
	if len(shapeRules) == 0 || len(user.FinishedIDs) == 0 {
		return nil
	}

	var earned []Event

	for _, rule := range shapeRules {
		trig := strings.ToLower(rule.Trigger)

		if hasAny(trig, "exactly 2", "trilogy", "10+ books", "more than 10") {
			if ev, ok := completedShape(user, &rule, trig, seriesIndex, ctx); ok {
				earned = append(earned, ev)
			}
		}

		if strings.Contains(trig, "first book of") {
			if ev, ok := firstBookOfN(user, &rule, trig, seriesIndex, ctx); ok {
				earned = append(earned, ev)
			}
		}
	}

	return earned
}

// completedShape awards the first fully-finished series whose total book
// count matches the rule's shape, dated to the series completion moment.
func completedShape(user *models.UserSnapshot, rule *models.Achievement, trig string, seriesIndex []abstats.Series, ctx *Context) (Event, bool) {
	for i := range seriesIndex {
		sid := seriesIndex[i].Key()
		if sid == "" {
			continue
		}
		detail := ctx.SeriesDetail(sid)
		if detail == nil {
			continue
		}
		books := detail.SortedBooks()
		if len(books) == 0 {
			continue
		}

		total := len(books)
		complete := true
		var seriesTS int64
		for j := range books {
			id := books[j].ItemID()
			if !user.Finished(id) {
				complete = false
				break
			}
			if ts := user.FinishDate(id); ts > seriesTS {
				seriesTS = ts
			}
		}
		if !complete {
			continue
		}

		match := false
		switch {
		case strings.Contains(trig, "exactly 2"):
			match = total == 2
		case strings.Contains(trig, "trilogy"):
			match = total == 3
		case strings.Contains(trig, "10+") || strings.Contains(trig, "more than 10"):
			match = total >= 10
		}
		if match {
			return newEvent(*rule, models.Evidence{
				"series":            detail.DisplayName(),
				"books":             total,
				models.TimestampKey: seriesTS,
			}), true
		}
	}
	return Event{}, false
}

// firstBookOfN awards finishing the sequence-position-1 book of N distinct
// series, dated to the N-th such first-book finish.
func firstBookOfN(user *models.UserSnapshot, rule *models.Achievement, trig string, seriesIndex []abstats.Series, ctx *Context) (Event, bool) {
	n := firstInt(trig)
	if n <= 0 {
		n = 5
	}

	count := 0
	var firstBookDates []int64

	for i := range seriesIndex {
		sid := seriesIndex[i].Key()
		if sid == "" {
			continue
		}
		detail := ctx.SeriesDetail(sid)
		if detail == nil {
			continue
		}
		books := detail.SortedBooks()
		if len(books) == 0 {
			continue
		}

		firstID := books[0].ItemID()
		if !user.Finished(firstID) {
			continue
		}
		count++
		if ts := user.FinishDate(firstID); ts > 0 {
			firstBookDates = append(firstBookDates, ts)
		}

		if count >= n {
			sorted := positiveSorted(firstBookDates)
			return newEvent(*rule, models.Evidence{
				"threshold":         n,
				"count":             count,
				models.TimestampKey: nthTimestamp(sorted, n),
			}), true
		}
	}
	return Event{}, false
}

func hasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
