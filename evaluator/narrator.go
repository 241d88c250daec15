// evaluator/narrator.go - Narrator analytics rules
package evaluator

import (
	"sort"

	"shelfquest/models"
)

// Narrator awards "N books with the same narrator" rules. The winner is the
// narrator with the strictly greatest finished-book count at or above the
// threshold; the award is dated to that narrator's threshold-th book.
func Narrator(user *models.UserSnapshot, achievements []models.Achievement, ctx *Context) []Event {
	var narratorRules []models.Achievement
	for _, a := range achievements {
		if a.Category == "narrator" {
			narratorRules = append(narratorRules, a)
		}
	}
	if len(narratorRules) == 0 || len(user.FinishedIDs) == 0 {
		return nil
	}

	ids := make([]string, 0, len(user.FinishedIDs))
	for id := range user.FinishedIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	narratorDates := make(map[string][]int64)
	narratorDisplay := make(map[string]string)

	for _, itemID := range ids {
		item := ctx.Item(itemID)
		if item == nil {
			continue
		}
		ts := user.FinishDate(itemID)

		for _, name := range item.NarratorNames() {
			key := normName(name)
			if key == "" {
				continue
			}
			narratorDates[key] = append(narratorDates[key], ts)
			if _, seen := narratorDisplay[key]; !seen {
				narratorDisplay[key] = name
			}
		}
	}

	var earned []Event

	for _, rule := range narratorRules {
		threshold := firstInt(rule.Trigger)
		if threshold <= 0 {
			continue
		}

		if key, count, ts := bestByCount(narratorDates, threshold); key != "" {
			earned = append(earned, newEvent(rule, models.Evidence{
				"narrator":          narratorDisplay[key],
				"count":             count,
				"threshold":         threshold,
				models.TimestampKey: ts,
			}))
		}
	}

	return earned
}
