// evaluator/duration.go - Book duration threshold rules
package evaluator

import (
	"math"
	"sort"

	"shelfquest/abstats"
	"shelfquest/models"
)

type durationMatch struct {
	itemID   string
	seconds  float64
	finished int64
}

// Duration evaluates "finish N books over/under H hours" rules. An item's
// duration is the maximum duration field observed across the user's sessions
// for it. The award is dated to the N-th qualifying finish; the exemplar in
// the evidence is the longest (over) or shortest (under) qualifying book.
func Duration(user *models.UserSnapshot, achievements []models.Achievement, sessions *abstats.SessionsPayload) []Event {
	var durationRules []models.Achievement
	for _, a := range achievements {
		if a.Category == "duration" || a.Category == "duration_based" {
			durationRules = append(durationRules, a)
		}
	}
	if len(durationRules) == 0 {
		return nil
	}

	userSessions := sessions.ForUser(user.UserID)
	if len(userSessions) == 0 {
		return nil
	}

	itemDuration := make(map[string]float64)
	for i := range userSessions {
		s := &userSessions[i]
		if s.LibraryItemID == "" || s.Duration <= 0 {
			continue
		}
		if s.Duration > itemDuration[s.LibraryItemID] {
			itemDuration[s.LibraryItemID] = s.Duration
		}
	}
	if len(itemDuration) == 0 {
		return nil
	}

	var finishedItems []durationMatch
	for itemID, sec := range itemDuration {
		if user.Finished(itemID) {
			finishedItems = append(finishedItems, durationMatch{
				itemID:   itemID,
				seconds:  sec,
				finished: user.FinishDate(itemID),
			})
		}
	}
	if len(finishedItems) == 0 {
		return nil
	}

	var earned []Event

	for _, rule := range durationRules {
		mode, hours, ok := parseDurationRule(rule.Trigger)
		if !ok {
			continue
		}
		thresholdSec := hours * 3600.0
		requiredCount := extractBookCount(rule.Trigger)

		var matches []durationMatch
		for _, it := range finishedItems {
			if (mode == "over" && it.seconds >= thresholdSec) ||
				(mode == "under" && it.seconds <= thresholdSec) {
				matches = append(matches, it)
			}
		}
		if len(matches) < requiredCount {
			continue
		}

		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].finished < matches[j].finished
		})
		triggerTS := matches[requiredCount-1].finished

		best := matches[0]
		for _, m := range matches[1:] {
			if (mode == "over" && m.seconds > best.seconds) ||
				(mode == "under" && m.seconds < best.seconds) {
				best = m
			}
		}

		earned = append(earned, newEvent(rule, models.Evidence{
			"matchedItemId":     best.itemID,
			"matchCount":        len(matches),
			"requiredCount":     requiredCount,
			"durationSeconds":   best.seconds,
			"durationHours":     math.Round(best.seconds/3600.0*100) / 100,
			"thresholdHours":    hours,
			"mode":              mode,
			models.TimestampKey: triggerTS,
		}))
	}

	return earned
}
