// evaluator/session.go - Session-shape rules
package evaluator

import (
	"math"
	"sort"
	"strings"
	"time"

	"shelfquest/abstats"
	"shelfquest/models"
)

// maxSessionSeconds is a hard defensive cap on any single session's credited
// listening time; corrupt records sometimes report multi-day sessions.
const maxSessionSeconds = 86400.0

type bookDaySpan struct {
	first        time.Time
	last         time.Time
	lastTS       int64
	bookDuration float64
}

// BehaviorSession evaluates single-session binges, weekend marathons,
// finish-in-a-day, and speed-reader rules. A session's credited duration is
// its reported listening time capped by the book's length and the session's
// wall-clock span, then by 24 hours.
func BehaviorSession(user *models.UserSnapshot, achievements []models.Achievement, sessions *abstats.SessionsPayload, loc *time.Location) []Event {
	var sessionRules []models.Achievement
	for _, a := range achievements {
		if a.Category == "behavior_session" {
			sessionRules = append(sessionRules, a)
		}
	}
	if len(sessionRules) == 0 {
		return nil
	}

	userSessions := sessions.ForUser(user.UserID)
	if len(userSessions) == 0 {
		return nil
	}

	var maxSession float64
	var maxSessionTS int64

	type weekendTotal struct {
		seconds float64
		ts      int64
	}
	weekends := make(map[string]*weekendTotal) // key: Saturday date

	bookDays := make(map[string]*bookDaySpan)

	for i := range userSessions {
		s := &userSessions[i]
		startMS := s.StartedAt
		endMS := s.EndMillis()
		if startMS == 0 || endMS == 0 || endMS <= startMS {
			continue
		}
		if s.TimeListening <= 0 {
			continue
		}

		duration := s.TimeListening
		if s.Duration > 0 && s.Duration < duration {
			duration = s.Duration
		}
		if wall := float64(endMS-startMS) / 1000.0; wall > 0 && wall < duration {
			duration = wall
		}
		duration = math.Min(duration, maxSessionSeconds)

		endTS := endMS / 1000

		if duration > maxSession {
			maxSession = duration
			maxSessionTS = endTS
		}

		start := time.UnixMilli(startMS).In(loc)
		switch start.Weekday() {
		case time.Saturday, time.Sunday:
			sat := start
			if start.Weekday() == time.Sunday {
				sat = start.AddDate(0, 0, -1)
			}
			key := sat.Format("2006-01-02")
			w := weekends[key]
			if w == nil {
				w = &weekendTotal{}
				weekends[key] = w
			}
			w.seconds += duration
			if endTS > w.ts {
				w.ts = endTS
			}
		}

		if s.LibraryItemID != "" && user.Finished(s.LibraryItemID) {
			startDay := civilDay(start)
			endDay := civilDay(time.UnixMilli(endMS).In(loc))

			entry := bookDays[s.LibraryItemID]
			if entry == nil {
				entry = &bookDaySpan{first: startDay, last: endDay}
				bookDays[s.LibraryItemID] = entry
			}
			if startDay.Before(entry.first) {
				entry.first = startDay
			}
			if endDay.After(entry.last) {
				entry.last = endDay
			}
			if endTS > entry.lastTS {
				entry.lastTS = endTS
			}
			if s.Duration > entry.bookDuration {
				entry.bookDuration = s.Duration
			}
		}
	}

	var maxWeekend float64
	var maxWeekendTS int64
	for _, w := range weekends {
		if w.seconds > maxWeekend {
			maxWeekend = w.seconds
			maxWeekendTS = w.ts
		}
	}

	var earned []Event

	for _, rule := range sessionRules {
		trig := strings.ToLower(rule.Trigger)
		targetHours := extractHours(trig)

		switch {
		case strings.Contains(trig, "single listening session"):
			if targetHours > 0 && maxSession >= float64(targetHours)*3600 {
				earned = append(earned, newEvent(rule, models.Evidence{
					"seconds":           int64(maxSession),
					"hours":             math.Round(maxSession/3600*100) / 100,
					"target":            targetHours,
					models.TimestampKey: maxSessionTS,
				}))
			}

		case strings.Contains(trig, "over a single weekend"):
			if targetHours > 0 && maxWeekend >= float64(targetHours)*3600 {
				earned = append(earned, newEvent(rule, models.Evidence{
					"seconds":           int64(maxWeekend),
					"hours":             math.Round(maxWeekend/3600*100) / 100,
					"target":            targetHours,
					models.TimestampKey: maxWeekendTS,
				}))
			}

		case strings.Contains(trig, "finish a book in a single day"):
			for _, itemID := range sortedKeys(bookDays) {
				entry := bookDays[itemID]
				if entry.first.Equal(entry.last) {
					earned = append(earned, newEvent(rule, models.Evidence{
						"itemId":            itemID,
						"date":              entry.first.Format("2006-01-02"),
						models.TimestampKey: entry.lastTS,
					}))
					break
				}
			}

		case strings.Contains(trig, "20+ hours") && strings.Contains(trig, "7 days"):
			for _, itemID := range sortedKeys(bookDays) {
				entry := bookDays[itemID]
				if entry.bookDuration < 20*3600 {
					continue
				}
				spanDays := int(entry.last.Sub(entry.first).Hours()/24) + 1
				if spanDays <= 7 {
					earned = append(earned, newEvent(rule, models.Evidence{
						"itemId":            itemID,
						"book_hours":        math.Round(entry.bookDuration/3600*10) / 10,
						"days_taken":        spanDays,
						models.TimestampKey: entry.lastTS,
					}))
					break
				}
			}
		}
	}

	return earned
}

// civilDay normalizes a local time to midnight UTC of its calendar date so
// day arithmetic stays exact across DST shifts.
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// sortedKeys gives a deterministic scan order; map iteration would pick an
// arbitrary book when several qualify.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
