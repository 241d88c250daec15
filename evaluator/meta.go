// evaluator/meta.go - Cross-cutting yearly and meta rules
//
// These two run at the orchestrator level rather than as true categories:
// the yearly count needs only the snapshot, and the meta rule needs the
// ledger state from before the current cycle's inserts.
package evaluator

import (
	"strings"
	"time"

	"shelfquest/models"
)

// Yearly awards "N books in a calendar year" rules, bucketing finish dates
// by year in the reference zone and dating the award to the qualifying
// year's latest finish.
func Yearly(user *models.UserSnapshot, achievements []models.Achievement, loc *time.Location) []Event {
	var earned []Event

	for _, rule := range achievements {
		if rule.Category != "milestone_yearly" {
			continue
		}
		trig := strings.ToLower(rule.Trigger)
		if !strings.Contains(trig, "books") || !strings.Contains(trig, "year") {
			continue
		}
		target := firstInt(trig)
		if target <= 0 || len(user.FinishedDates) == 0 {
			continue
		}

		yearCounts := make(map[int]int)
		yearLastTS := make(map[int]int64)
		for _, ts := range user.FinishedDates {
			if ts <= 0 {
				continue
			}
			y := time.Unix(ts, 0).In(loc).Year()
			yearCounts[y]++
			if ts > yearLastTS[y] {
				yearLastTS[y] = ts
			}
		}

		for y, count := range yearCounts {
			if count >= target {
				earned = append(earned, newEvent(rule, models.Evidence{
					"books":             count,
					"target":            target,
					"year":              y,
					models.TimestampKey: yearLastTS[y],
				}))
				break
			}
		}
	}

	return earned
}

// Meta awards "earn N achievements" rules. priorCount is the user's ledger
// size from before this cycle's inserts, so crossing the threshold mid-cycle
// only registers on the next pass.
func Meta(user *models.UserSnapshot, achievements []models.Achievement, priorCount int) []Event {
	var earned []Event

	for _, rule := range achievements {
		if rule.Category != "meta" {
			continue
		}
		trig := strings.ToLower(rule.Trigger)
		if !strings.Contains(trig, "earn") || !strings.Contains(trig, "achievement") {
			continue
		}
		target := firstInt(trig)
		if target <= 0 || priorCount < target {
			continue
		}

		earned = append(earned, newEvent(rule, models.Evidence{
			"total_achievements": priorCount,
			"target":             target,
			models.TimestampKey:  time.Now().Unix(),
		}))
	}

	return earned
}
