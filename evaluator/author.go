// evaluator/author.go - Author analytics rules
package evaluator

import (
	"sort"
	"strings"

	"shelfquest/abstats"
	"shelfquest/models"
)

// Author evaluates the author-category rules: self-narrated detection,
// distinct-author counts, most books by one author, and most completed
// series by one author. Names match case- and whitespace-insensitively.
func Author(user *models.UserSnapshot, achievements []models.Achievement, seriesIndex []abstats.Series, ctx *Context) []Event {
	var authorRules []models.Achievement
	for _, a := range achievements {
		if a.Category == "author" {
			authorRules = append(authorRules, a)
		}
	}
	if len(authorRules) == 0 || len(user.FinishedIDs) == 0 {
		return nil
	}

	ids := make([]string, 0, len(user.FinishedIDs))
	for id := range user.FinishedIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// author key -> finish timestamps of that author's finished books
	authorDates := make(map[string][]int64)
	authorDisplay := make(map[string]string)

	selfNarrated := false
	var selfNarratedEvidence models.Evidence

	for _, itemID := range ids {
		item := ctx.Item(itemID)
		if item == nil {
			continue
		}
		ts := user.FinishDate(itemID)

		authors := item.AuthorNames()
		narrators := item.NarratorNames()

		for _, name := range authors {
			key := normName(name)
			if key == "" {
				continue
			}
			authorDates[key] = append(authorDates[key], ts)
			if _, seen := authorDisplay[key]; !seen {
				authorDisplay[key] = name
			}
		}

		if !selfNarrated && len(authors) > 0 && len(narrators) > 0 {
			if intersects(authors, narrators) {
				selfNarrated = true
				selfNarratedEvidence = models.Evidence{
					"itemId":            itemID,
					"title":             item.DisplayTitle(),
					"authors":           strings.Join(authors, ", "),
					"narrators":         strings.Join(narrators, ", "),
					models.TimestampKey: ts,
				}
			}
		}
	}

	distinctAuthors := len(authorDates)

	// author key -> completion timestamps of that author's completed series,
	// attributed through each series' first member book
	seriesByAuthor := make(map[string][]int64)
	seriesAuthorDisplay := make(map[string]string)

	for i := range seriesIndex {
		bookIDs := seriesIndex[i].BookIDs()
		if len(bookIDs) == 0 {
			continue
		}

		all := true
		var seriesTS int64
		for _, bid := range bookIDs {
			if !user.Finished(bid) {
				all = false
				break
			}
			if ts := user.FinishDate(bid); ts > seriesTS {
				seriesTS = ts
			}
		}
		if !all {
			continue
		}

		rep := ctx.Item(bookIDs[0])
		if rep == nil {
			continue
		}
		for _, name := range rep.AuthorNames() {
			key := normName(name)
			if key == "" {
				continue
			}
			seriesByAuthor[key] = append(seriesByAuthor[key], seriesTS)
			if _, seen := seriesAuthorDisplay[key]; !seen {
				seriesAuthorDisplay[key] = name
			}
		}
	}

	var earned []Event

	for _, rule := range authorRules {
		trig := strings.ToLower(rule.Trigger)
		target := firstInt(trig)

		switch {
		case strings.Contains(trig, "narrated by the author"):
			if selfNarrated {
				earned = append(earned, newEvent(rule, selfNarratedEvidence))
			}

		case strings.Contains(trig, "different authors") || strings.Contains(trig, "distinct authors"):
			if target <= 0 || distinctAuthors < target {
				continue
			}
			// the Nth distinct author, ordered by each author's earliest book
			var earliest []int64
			for _, dates := range authorDates {
				if sorted := positiveSorted(dates); len(sorted) > 0 {
					earliest = append(earliest, sorted[0])
				}
			}
			sorted := positiveSorted(earliest)
			earned = append(earned, newEvent(rule, models.Evidence{
				"count":             distinctAuthors,
				"target":            target,
				models.TimestampKey: nthTimestamp(sorted, target),
			}))

		case strings.Contains(trig, "complete series by the same author"):
			if target <= 0 {
				continue
			}
			if key, count, ts := bestByCount(seriesByAuthor, target); key != "" {
				earned = append(earned, newEvent(rule, models.Evidence{
					"author":            seriesAuthorDisplay[key],
					"seriesCount":       count,
					"target":            target,
					models.TimestampKey: ts,
				}))
			}

		case strings.Contains(trig, "books by the same author"):
			if target <= 0 {
				continue
			}
			if key, count, ts := bestByCount(authorDates, target); key != "" {
				earned = append(earned, newEvent(rule, models.Evidence{
					"author":            authorDisplay[key],
					"count":             count,
					"target":            target,
					models.TimestampKey: ts,
				}))
			}
		}
	}

	return earned
}

// bestByCount finds the key with the strictly greatest count at or above
// target (first seen wins ties) and the target-th sorted timestamp for it.
func bestByCount(dates map[string][]int64, target int) (bestKey string, bestCount int, bestTS int64) {
	keys := make([]string, 0, len(dates))
	for k := range dates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		count := len(dates[k])
		if count >= target && count > bestCount {
			bestKey = k
			bestCount = count
			bestTS = nthTimestamp(positiveSorted(dates[k]), target)
		}
	}
	return bestKey, bestCount, bestTS
}

func intersects(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, v := range a {
		if key := normName(v); key != "" {
			set[key] = true
		}
	}
	for _, v := range b {
		if set[normName(v)] {
			return true
		}
	}
	return false
}
