// evaluator/milestone.go - Milestone and named-series-completion rules
package evaluator

import (
	"regexp"
	"strings"

	"shelfquest/abstats"
	"shelfquest/models"
)

var seriesTriggerRe = regexp.MustCompile(`(?i)^(?:complete|finish)\s+all\s+books\s+in\s+(.+)$`)

// CompletedSeriesDates returns seriesID -> completion timestamp for every
// series whose member books are all finished. The completion timestamp is
// the latest member finish date, or 0 when no member has a known date.
func CompletedSeriesDates(user *models.UserSnapshot, seriesIndex []abstats.Series) map[string]int64 {
	completed := make(map[string]int64)

	for i := range seriesIndex {
		s := &seriesIndex[i]
		sid := s.Key()
		if sid == "" {
			continue
		}
		bookIDs := s.BookIDs()
		if len(bookIDs) == 0 {
			continue
		}

		all := true
		var maxTS int64
		for _, bid := range bookIDs {
			if !user.Finished(bid) {
				all = false
				break
			}
			if ts := user.FinishDate(bid); ts > maxTS {
				maxTS = ts
			}
		}
		if all {
			completed[sid] = maxTS
		}
	}

	return completed
}

// Milestones evaluates total-book milestones, total-series milestones, and
// named series completion. Awards are backdated to the moment the counting
// condition was first met.
func Milestones(user *models.UserSnapshot, achievements []models.Achievement, seriesIndex []abstats.Series) []Event {
	var earned []Event

	completedSeries := CompletedSeriesDates(user, seriesIndex)
	seriesDates := positiveSorted(valuesOf(completedSeries))
	completedSeriesCount := len(completedSeries)
	bookDates := positiveSorted(valuesOf(user.FinishedDates))

	for _, a := range achievements {
		switch a.Category {
		case "milestone_books":
			target := firstInt(a.Trigger)
			if target <= 0 || user.FinishedCount < target {
				continue
			}
			// the target-th finish date; fall back to the latest known one
			// for counts inherited from before dates were tracked
			ts := nthTimestamp(bookDates, target)
			if ts == 0 && len(bookDates) > 0 {
				ts = bookDates[len(bookDates)-1]
			}
			earned = append(earned, newEvent(a, models.Evidence{
				"finished_count":    user.FinishedCount,
				"target":            target,
				models.TimestampKey: ts,
			}))

		case "milestone_series":
			target := firstInt(a.Trigger)
			if target <= 0 || completedSeriesCount < target {
				continue
			}
			earned = append(earned, newEvent(a, models.Evidence{
				"completed_series_count": completedSeriesCount,
				"target":                 target,
				models.TimestampKey:      nthTimestamp(seriesDates, target),
			}))

		case "series_complete":
			name := seriesNameFromRule(&a)
			if name == "" {
				continue
			}
			series := findSeriesByName(seriesIndex, name)
			if series == nil {
				continue
			}
			sid := series.Key()
			ts, done := completedSeries[sid]
			if !done {
				continue
			}
			earned = append(earned, newEvent(a, models.Evidence{
				"series_name":       name,
				"series_id":         sid,
				"books_total":       len(series.Books),
				models.TimestampKey: ts,
			}))
		}
	}

	return earned
}

// seriesNameFromRule pulls the target series name from the canonical
// "complete all books in X" trigger, falling back to the rule title.
func seriesNameFromRule(a *models.Achievement) string {
	if m := seriesTriggerRe.FindStringSubmatch(strings.TrimSpace(a.Trigger)); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(a.Title)
}

// findSeriesByName matches by normalized exact name first, then by
// normalized substring containment.
func findSeriesByName(seriesIndex []abstats.Series, target string) *abstats.Series {
	targetNorm := normText(target)
	if targetNorm == "" {
		return nil
	}
	for i := range seriesIndex {
		if normText(seriesIndex[i].DisplayName()) == targetNorm {
			return &seriesIndex[i]
		}
	}
	for i := range seriesIndex {
		if strings.Contains(normText(seriesIndex[i].DisplayName()), targetNorm) {
			return &seriesIndex[i]
		}
	}
	return nil
}

func valuesOf(m map[string]int64) []int64 {
	out := make([]int64, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
