// evaluator/streak.go - Streak and frequency rules
//
// Calendar days are computed in a fixed reference time zone so a streak
// doesn't break or double-count when the server host changes zones. A
// session contributes to every day it spans, start through end inclusive.
package evaluator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"shelfquest/abstats"
	"shelfquest/models"
)

type monthKey struct {
	year  int
	month time.Month
}

type monthTotal struct {
	seconds float64
	ts      int64
}

// BehaviorStreak evaluates consecutive-day streaks, hours-per-month, and
// distinct-days-per-month rules.
func BehaviorStreak(user *models.UserSnapshot, achievements []models.Achievement, sessions *abstats.SessionsPayload, loc *time.Location) []Event {
	var streakRules []models.Achievement
	for _, a := range achievements {
		if a.Category == "behavior_streak" {
			streakRules = append(streakRules, a)
		}
	}
	if len(streakRules) == 0 {
		return nil
	}

	userSessions := sessions.ForUser(user.UserID)
	if len(userSessions) == 0 {
		return nil
	}

	dayMaxTS := make(map[time.Time]int64)
	listenedDays := make(map[time.Time]bool)
	monthDays := make(map[monthKey]map[int]bool)

	monthSeconds := make(map[monthKey]*monthTotal)

	for i := range userSessions {
		s := &userSessions[i]
		if s.StartedAt == 0 {
			continue
		}
		endMS := s.EndMillis()
		endTS := endMS / 1000

		startDay := civilDay(time.UnixMilli(s.StartedAt).In(loc))
		endDay := civilDay(time.UnixMilli(endMS).In(loc))

		for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
			listenedDays[day] = true

			mk := monthKey{year: day.Year(), month: day.Month()}
			if monthDays[mk] == nil {
				monthDays[mk] = make(map[int]bool)
			}
			monthDays[mk][day.Day()] = true

			if endTS > dayMaxTS[day] {
				dayMaxTS[day] = endTS
			}
		}

		// monthly listening time uses reported listening seconds, grouped
		// by the month the session started in
		if s.TimeListening > 0 {
			startDate := time.UnixMilli(s.StartedAt).In(loc)
			mk := monthKey{year: startDate.Year(), month: startDate.Month()}
			mt := monthSeconds[mk]
			if mt == nil {
				mt = &monthTotal{}
				monthSeconds[mk] = mt
			}
			mt.seconds += s.TimeListening
			if endTS > mt.ts {
				mt.ts = endTS
			}
		}
	}

	if len(listenedDays) == 0 {
		return nil
	}

	days := make([]time.Time, 0, len(listenedDays))
	for d := range listenedDays {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	// break the day list into runs of consecutive calendar days
	type run struct {
		length  int
		endDate time.Time
	}
	var runs []run
	current := 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			current++
		} else {
			runs = append(runs, run{length: current, endDate: days[i-1]})
			current = 1
		}
	}
	runs = append(runs, run{length: current, endDate: days[len(days)-1]})

	maxStreak := 0
	bestRun := runs[0]
	for _, r := range runs {
		if r.length > maxStreak {
			maxStreak = r.length
			bestRun = r
		}
	}

	// best month by distinct listening days
	maxMonthDays := 0
	var bestMonth monthKey
	var bestMonthTS int64
	monthKeys := make([]monthKey, 0, len(monthDays))
	for mk := range monthDays {
		monthKeys = append(monthKeys, mk)
	}
	sort.Slice(monthKeys, func(i, j int) bool {
		if monthKeys[i].year != monthKeys[j].year {
			return monthKeys[i].year < monthKeys[j].year
		}
		return monthKeys[i].month < monthKeys[j].month
	})
	for _, mk := range monthKeys {
		if count := len(monthDays[mk]); count > maxMonthDays {
			maxMonthDays = count
			bestMonth = mk
			// latest active day in the month dates the award
			for _, d := range days {
				if d.Year() == mk.year && d.Month() == mk.month {
					bestMonthTS = dayMaxTS[d]
				}
			}
		}
	}

	var earned []Event

	for _, rule := range streakRules {
		trig := strings.ToLower(rule.Trigger)
		target := firstInt(trig)
		if target <= 0 {
			continue
		}

		switch {
		case strings.Contains(trig, "consecutive") || strings.Contains(trig, "streak"):
			if maxStreak >= target {
				earned = append(earned, newEvent(rule, models.Evidence{
					"streak":            maxStreak,
					"target":            target,
					"endDate":           bestRun.endDate.Format("2006-01-02"),
					models.TimestampKey: dayMaxTS[bestRun.endDate],
				}))
			}

		case strings.Contains(trig, "hours") && strings.Contains(trig, "month"):
			for _, mk := range sortedMonthKeys(monthSeconds) {
				mt := monthSeconds[mk]
				if mt.seconds/3600.0 >= float64(target) {
					earned = append(earned, newEvent(rule, models.Evidence{
						"hours":             roundTenth(mt.seconds / 3600.0),
						"target":            target,
						"month":             fmt.Sprintf("%04d-%02d", mk.year, int(mk.month)),
						models.TimestampKey: mt.ts,
					}))
					break
				}
			}

		case strings.Contains(trig, "distinct days") && strings.Contains(trig, "month"):
			if maxMonthDays >= target {
				earned = append(earned, newEvent(rule, models.Evidence{
					"days":              maxMonthDays,
					"target":            target,
					"month":             fmt.Sprintf("%04d-%02d", bestMonth.year, int(bestMonth.month)),
					models.TimestampKey: bestMonthTS,
				}))
			}
		}
	}

	return earned
}

func sortedMonthKeys(m map[monthKey]*monthTotal) []monthKey {
	keys := make([]monthKey, 0, len(m))
	for mk := range m {
		keys = append(keys, mk)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})
	return keys
}

func roundTenth(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
