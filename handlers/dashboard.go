// handlers/dashboard.go - Read-side dashboard API
package handlers

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"shelfquest/abstats"
	"shelfquest/catalog"
	"shelfquest/config"
	"shelfquest/models"
	"shelfquest/store"
)

// StatsReader is the slice of the provider the dashboard needs; an
// interface so tests can stub it without a server.
type StatsReader interface {
	GetUsernames() (map[string]string, error)
	GetCompleted(completedEndpoint string) ([]models.UserSnapshot, error)
	GetListeningTime() (map[string]int64, error)
	GetSeriesIndex() ([]abstats.Series, error)
}

var (
	cfg    *config.Settings
	ledger store.Ledger
	reader StatsReader
)

// InitDashboard wires the dashboard handlers' dependencies.
func InitDashboard(settings *config.Settings, l store.Ledger, r StatsReader) {
	cfg = settings
	ledger = l
	reader = r
}

// --- Catalog definitions cache -------------------------------------------

type defsCache struct {
	mu    sync.Mutex
	mtime int64
	items []models.Achievement
	byID  map[string]*models.Achievement
}

var defs defsCache

// loadDefs reloads the catalog file only when its mtime changes.
func loadDefs() ([]models.Achievement, map[string]*models.Achievement) {
	defs.mu.Lock()
	defer defs.mu.Unlock()

	st, err := os.Stat(cfg.AchievementsPath)
	if err != nil {
		defs.mtime = 0
		defs.items = nil
		defs.byID = map[string]*models.Achievement{}
		return defs.items, defs.byID
	}

	mtime := st.ModTime().Unix()
	if defs.items != nil && defs.mtime == mtime {
		return defs.items, defs.byID
	}

	items, err := catalog.Load(cfg.AchievementsPath)
	if err != nil {
		log.Printf("[api] failed to reload definitions: %v", err)
		return defs.items, defs.byID
	}

	defs.mtime = mtime
	defs.items = items
	defs.byID = catalog.ByID(items)
	return defs.items, defs.byID
}

func usernameMap() map[string]string {
	m, err := reader.GetUsernames()
	if err != nil {
		log.Printf("[api] usernames fetch failed (continuing without usernames): %v", err)
		return map[string]string{}
	}
	return m
}

// --- Static pages ---------------------------------------------------------

// Page returns a handler serving one HTML file from the data directory.
func Page(filename string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := filepath.Join(cfg.DataDir, filename)
		if _, err := os.Stat(path); err != nil {
			return c.Status(404).JSON(fiber.Map{"error": "Missing " + filename})
		}
		return c.SendFile(path)
	}
}

// --- API ------------------------------------------------------------------

// GetDefinitions serves the catalog in the stable Awards Center shape.
func GetDefinitions(c *fiber.Ctx) error {
	items, _ := loadDefs()
	return c.JSON(fiber.Map{
		"generated_at":      time.Now().Unix(),
		"total_definitions": len(items),
		"achievements":      items,
	})
}

// GetAchievementsLegacy serves the bare definition list for older dashboards.
func GetAchievementsLegacy(c *fiber.Ctx) error {
	items, _ := loadDefs()
	return c.JSON(items)
}

type mergedAward struct {
	AchievementID string         `json:"achievement_id"`
	AwardedAt     int64          `json:"awarded_at"`
	Points        int            `json:"points"`
	Category      string         `json:"category,omitempty"`
	Achievement   string         `json:"achievement,omitempty"`
	Title         string         `json:"title,omitempty"`
	FlavorText    string         `json:"flavorText,omitempty"`
	IconPath      string         `json:"iconPath,omitempty"`
	Payload       map[string]any `json:"payload"`
}

type userAwards struct {
	UserID      string        `json:"user_id"`
	Username    string        `json:"username"`
	Points      int           `json:"points"`
	EarnedCount int           `json:"earned_count"`
	Awards      []mergedAward `json:"awards"`
}

// GetAwards returns every user's awards merged with catalog definitions,
// per-user point totals, and the leaderboard.
func GetAwards(c *fiber.Ctx) error {
	items, byID := loadDefs()
	userMap := usernameMap()

	awards, err := ledger.GetAllAwards()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to read awards"})
	}

	usersByID := make(map[string]*userAwards)
	for i := range awards {
		a := &awards[i]

		merged := mergedAward{
			AchievementID: a.AchievementID,
			AwardedAt:     a.AwardedAt,
			Payload:       a.Payload(),
		}
		if d, ok := byID[a.AchievementID]; ok {
			merged.Points = d.Points
			merged.Category = d.Category
			merged.Achievement = d.DisplayTitle()
			merged.Title = d.Title
			merged.FlavorText = d.FlavorText
			merged.IconPath = d.IconPath
		}

		u := usersByID[a.UserID]
		if u == nil {
			u = &userAwards{
				UserID:   a.UserID,
				Username: userMap[a.UserID],
				Awards:   []mergedAward{},
			}
			usersByID[a.UserID] = u
		}
		u.Awards = append(u.Awards, merged)
		u.Points += merged.Points
		u.EarnedCount++
	}

	users := make([]*userAwards, 0, len(usersByID))
	for _, u := range usersByID {
		sort.Slice(u.Awards, func(i, j int) bool {
			return u.Awards[i].AwardedAt > u.Awards[j].AwardedAt
		})
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Points != users[j].Points {
			return users[i].Points > users[j].Points
		}
		return users[i].EarnedCount > users[j].EarnedCount
	})

	leaderboard := make([]fiber.Map, 0, len(users))
	for _, u := range users {
		leaderboard = append(leaderboard, fiber.Map{
			"user_id":      u.UserID,
			"username":     u.Username,
			"points":       u.Points,
			"earned_count": u.EarnedCount,
		})
	}

	return c.JSON(fiber.Map{
		"generated_at":      time.Now().Unix(),
		"total_users":       len(users),
		"total_definitions": len(items),
		"user_map":          userMap,
		"leaderboard":       leaderboard,
		"users":             users,
	})
}

// GetUIConfig serves user alias and icon display maps for the frontend.
func GetUIConfig(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"aliases": config.UserAliases(),
		"icons":   config.UserIcons(),
	})
}

// Health reports liveness plus the paths the engine depends on.
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":            "ok",
		"achievements_path": cfg.AchievementsPath,
		"data_dir":          cfg.DataDir,
	})
}
