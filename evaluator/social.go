// evaluator/social.go - Social overlap rules
package evaluator

import (
	"math"
	"sort"
	"strings"

	"shelfquest/models"
)

// sameWeekSeconds is the inclusive "within a week" window: finishing exactly
// seven days apart still counts.
const sameWeekSeconds = 7 * 86400

// Social evaluates overlap rules against the other users' snapshots.
//
// "Same book within the same week" awards the first shared book both users
// finished within seven days of each other, dated to the later finish.
// The general variant requires a finished-book overlap of at least
// minOverlap with every other user simultaneously; it is dated by taking,
// per other user, the minOverlap-th chronologically shared finish, then the
// maximum across users (the last pairwise requirement satisfied).
func Social(user *models.UserSnapshot, achievements []models.Achievement, allUsers []models.UserSnapshot, minOverlap int, ctx *Context) []Event {
	var socialRules []models.Achievement
	for _, a := range achievements {
		if a.Category == "social" {
			socialRules = append(socialRules, a)
		}
	}
	if len(socialRules) == 0 {
		return nil
	}
	if minOverlap <= 0 {
		minOverlap = 1
	}

	var others []*models.UserSnapshot
	for i := range allUsers {
		if allUsers[i].UserID != user.UserID {
			others = append(others, &allUsers[i])
		}
	}
	if len(others) == 0 {
		return nil
	}

	var earned []Event

	for _, rule := range socialRules {
		trig := strings.ToLower(rule.Trigger)

		if strings.Contains(trig, "same book") && strings.Contains(trig, "same week") {
			if ev, ok := sharedWithinWeek(user, &rule, others, ctx); ok {
				earned = append(earned, ev)
			}
			continue
		}

		if ev, ok := overlapWithEveryone(user, &rule, others, minOverlap); ok {
			earned = append(earned, ev)
		}
	}

	return earned
}

func sharedWithinWeek(user *models.UserSnapshot, rule *models.Achievement, others []*models.UserSnapshot, ctx *Context) (Event, bool) {
	for _, other := range others {
		for _, bookID := range sharedBooks(user, other) {
			myTS := user.FinishDate(bookID)
			theirTS := other.FinishDate(bookID)
			if myTS <= 0 || theirTS <= 0 {
				continue
			}

			diff := myTS - theirTS
			if diff < 0 {
				diff = -diff
			}
			if diff > sameWeekSeconds {
				continue
			}

			title := ""
			if ctx != nil {
				if item := ctx.Item(bookID); item != nil {
					title = item.DisplayTitle()
				}
			}

			otherName := other.Username
			if otherName == "" {
				otherName = other.UserID
			}

			return newEvent(*rule, models.Evidence{
				"bookId":            bookID,
				"bookTitle":         title,
				"otherUser":         otherName,
				"daysBetween":       math.Round(float64(diff)/86400.0*10) / 10,
				models.TimestampKey: max64(myTS, theirTS),
			}), true
		}
	}
	return Event{}, false
}

func overlapWithEveryone(user *models.UserSnapshot, rule *models.Achievement, others []*models.UserSnapshot, minOverlap int) (Event, bool) {
	allOverlap := true
	var overlapDates []int64
	var details []models.Evidence

	for _, other := range others {
		shared := sharedBooks(user, other)

		otherName := other.Username
		if otherName == "" {
			otherName = other.UserID
		}
		details = append(details, models.Evidence{
			"otherUser": otherName,
			"overlap":   len(shared),
		})

		if len(shared) < minOverlap {
			allOverlap = false
			continue
		}

		var dates []int64
		for _, bookID := range shared {
			dates = append(dates, user.FinishDate(bookID))
		}
		overlapDates = append(overlapDates, nthTimestamp(positiveSorted(dates), minOverlap))
	}

	if !allOverlap {
		return Event{}, false
	}

	var finalTS int64
	for _, ts := range overlapDates {
		if ts > finalTS {
			finalTS = ts
		}
	}

	return newEvent(*rule, models.Evidence{
		"min_overlap":       minOverlap,
		"overlaps":          details,
		models.TimestampKey: finalTS,
	}), true
}

func sharedBooks(a, b *models.UserSnapshot) []string {
	var shared []string
	for id := range a.FinishedIDs {
		if b.FinishedIDs[id] {
			shared = append(shared, id)
		}
	}
	sort.Strings(shared)
	return shared
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
