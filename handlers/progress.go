// handlers/progress.go - "Next Up" progress data for the Awards Center
package handlers

import (
	"log"
	"math"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"

	"shelfquest/models"
)

// Starter milestone sets used for the progress bars. These mirror the common
// catalog thresholds but are display-only; the engine works off the catalog.
var (
	bookMilestones = []int{5, 10, 20, 25, 50, 100}
	hourMilestones = []int{1, 10, 50, 100, 500, 1000}
)

type nextUp struct {
	Current   int     `json:"current"`
	Target    int     `json:"target"`
	Remaining int     `json:"remaining"`
	Percent   float64 `json:"percent"`
}

// nextMilestone finds the first milestone the current value hasn't reached.
func nextMilestone(current int, milestones []int) *nextUp {
	if len(milestones) == 0 {
		return nil
	}
	for _, target := range milestones {
		if current < target {
			return &nextUp{
				Current:   current,
				Target:    target,
				Remaining: target - current,
				Percent:   math.Min(1.0, math.Max(0.0, float64(current)/float64(target))),
			}
		}
	}
	top := milestones[len(milestones)-1]
	return &nextUp{Current: current, Target: top, Remaining: 0, Percent: 1.0}
}

func booksByYear(snap *models.UserSnapshot) map[string]int {
	counts := make(map[string]int)
	for _, ts := range snap.FinishedDates {
		if ts > 0 {
			counts[time.Unix(ts, 0).Format("2006")]++
		}
	}
	return counts
}

// GetProgress returns per-user metrics, next-up milestones, and in-flight
// series progress. Every upstream fetch is best-effort; the dashboard
// renders whatever could be gathered.
func GetProgress(c *fiber.Ctx) error {
	userMap := usernameMap()

	snapshots, err := reader.GetCompleted(cfg.CompletedEndpoint)
	if err != nil {
		log.Printf("[api] /api/progress failed to fetch completions: %v", err)
		snapshots = nil
	}

	listenSec, err := reader.GetListeningTime()
	if err != nil {
		log.Printf("[api] /api/progress failed to fetch listening time: %v", err)
		listenSec = map[string]int64{}
	}

	seriesIndex, err := reader.GetSeriesIndex()
	if err != nil {
		log.Printf("[api] /api/progress failed to fetch series: %v", err)
		seriesIndex = nil
	}

	type seriesProgress struct {
		SeriesName string  `json:"seriesName"`
		Done       int     `json:"done"`
		Total      int     `json:"total"`
		Percent    float64 `json:"percent"`
	}

	usersOut := make([]fiber.Map, 0, len(snapshots))

	for i := range snapshots {
		snap := &snapshots[i]

		completedSeriesCount := 0
		var inFlight []seriesProgress
		for j := range seriesIndex {
			s := &seriesIndex[j]
			bookIDs := s.BookIDs()
			if len(bookIDs) < 2 {
				continue
			}
			done := 0
			for _, id := range bookIDs {
				if snap.Finished(id) {
					done++
				}
			}
			switch {
			case done == len(bookIDs):
				completedSeriesCount++
			case done > 0:
				inFlight = append(inFlight, seriesProgress{
					SeriesName: s.DisplayName(),
					Done:       done,
					Total:      len(bookIDs),
					Percent:    math.Round(float64(done)/float64(len(bookIDs))*1000) / 1000,
				})
			}
		}
		sort.Slice(inFlight, func(a, b int) bool {
			return inFlight[a].Percent > inFlight[b].Percent
		})

		sec := listenSec[snap.UserID]
		hours := float64(sec) / 3600.0

		username := userMap[snap.UserID]
		if username == "" {
			username = snap.Username
		}

		usersOut = append(usersOut, fiber.Map{
			"user_id":  snap.UserID,
			"username": username,
			"metrics": fiber.Map{
				"finished_count":         len(snap.FinishedIDs),
				"completed_series_count": completedSeriesCount,
				"listening_seconds":      sec,
				"listening_hours":        hours,
				"books_by_year":          booksByYear(snap),
			},
			"next_up": fiber.Map{
				"books_total":     nextMilestone(len(snap.FinishedIDs), bookMilestones),
				"listening_hours": nextMilestone(int(hours), hourMilestones),
			},
			"series_progress": inFlight,
		})
	}

	sort.Slice(usersOut, func(a, b int) bool {
		ma := usersOut[a]["metrics"].(fiber.Map)
		mb := usersOut[b]["metrics"].(fiber.Map)
		ha := ma["listening_hours"].(float64)
		hb := mb["listening_hours"].(float64)
		if ha != hb {
			return ha > hb
		}
		return ma["finished_count"].(int) > mb["finished_count"].(int)
	})

	return c.JSON(fiber.Map{
		"generated_at": time.Now().Unix(),
		"total_users":  len(usersOut),
		"user_map":     userMap,
		"users":        usersOut,
	})
}
