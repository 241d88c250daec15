// evaluator/listening.go - Cumulative listening-time milestones
package evaluator

import (
	"math"
	"sort"

	"shelfquest/abstats"
	"shelfquest/models"
)

// MilestoneTime evaluates cumulative listening-hour milestones. Sessions are
// replayed in end-timestamp order and the running total is checked against
// every distinct hour threshold, recording the exact session at which each
// one was first crossed.
func MilestoneTime(user *models.UserSnapshot, achievements []models.Achievement, sessions *abstats.SessionsPayload) []Event {
	var timeRules []models.Achievement
	for _, a := range achievements {
		if a.Category == "milestone_time" {
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

	type tick struct {
		endMillis int64
		seconds   float64
	}
	var valid []tick
	for i := range userSessions {
		s := &userSessions[i]
		end := s.EndMillis()
		if end == 0 || s.TimeListening <= 0 {
			continue
		}
		valid = append(valid, tick{endMillis: end, seconds: s.TimeListening})
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].endMillis < valid[j].endMillis
	})

	targets := make(map[int]bool)
	for _, rule := range timeRules {
		if h := extractHours(rule.Trigger); h > 0 {
			targets[h] = true
		}
	}

	running := 0.0
	crossedAt := make(map[int]int64)
	for _, t := range valid {
		running += t.seconds
		hours := running / 3600.0
		for target := range targets {
			if crossedAt[target] == 0 && hours >= float64(target) {
				crossedAt[target] = t.endMillis / 1000
			}
		}
	}

	totalHours := running / 3600.0
	var earned []Event

	for _, rule := range timeRules {
		hours := extractHours(rule.Trigger)
		if hours <= 0 || totalHours < float64(hours) {
			continue
		}
		earned = append(earned, newEvent(rule, models.Evidence{
			"listeningHours":    math.Round(totalHours*100) / 100,
			"thresholdHours":    hours,
			models.TimestampKey: crossedAt[hours],
		}))
	}

	return earned
}
