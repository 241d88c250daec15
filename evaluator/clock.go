// evaluator/clock.go - Time-of-day rules
package evaluator

import (
	"strings"
	"time"

	"shelfquest/abstats"
	"shelfquest/models"
)

// BehaviorTime evaluates clock-of-day rules: the weekday night-owl window
// (02:00-05:00, Monday through Friday, keyed on when a session ended) and
// the early-bird rule (any session started before 06:00). The first
// qualifying session wins and dates the award.
func BehaviorTime(user *models.UserSnapshot, achievements []models.Achievement, sessions *abstats.SessionsPayload, loc *time.Location) []Event {
	var timeRules []models.Achievement
	for _, a := range achievements {
		if a.Category == "behavior_time" {
			timeRules = append(timeRules, a)
		}
	}
	if len(timeRules) == 0 {
		return nil
	}

	userSessions := sessions.ForUser(user.UserID)
	if len(userSessions) == 0 {
		return nil
	}

	var earned []Event

	for _, rule := range timeRules {
		trig := strings.ToLower(rule.Trigger)

		if strings.Contains(trig, "2:00 am") {
			for i := range userSessions {
				s := &userSessions[i]
				endMS := s.UpdatedAt
				if endMS == 0 {
					endMS = s.EndedAt
				}
				if endMS == 0 {
					continue
				}

				dt := time.UnixMilli(endMS).In(loc)
				wd := dt.Weekday()
				if wd == time.Saturday || wd == time.Sunday {
					continue
				}
				if dt.Hour() >= 2 && dt.Hour() < 5 {
					earned = append(earned, newEvent(rule, models.Evidence{
						"sessionId":         s.ID,
						"libraryItemId":     s.LibraryItemID,
						"local_time":        dt.Format("Monday 15:04"),
						"timezone":          loc.String(),
						models.TimestampKey: endMS / 1000,
					}))
					break
				}
			}
		}

		if strings.Contains(trig, "before 6:00 am") {
			for i := range userSessions {
				s := &userSessions[i]
				if s.StartedAt == 0 {
					continue
				}

				dt := time.UnixMilli(s.StartedAt).In(loc)
				if dt.Hour() < 6 {
					earned = append(earned, newEvent(rule, models.Evidence{
						"sessionId":         s.ID,
						"libraryItemId":     s.LibraryItemID,
						"local_time":        dt.Format("Monday 15:04"),
						"timezone":          loc.String(),
						models.TimestampKey: s.StartedAt / 1000,
					}))
					break
				}
			}
		}
	}

	return earned
}
